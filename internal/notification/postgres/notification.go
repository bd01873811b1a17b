package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	notificationDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/club-management/internal/notification"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateInApp(ctx context.Context, n *notificationDatamodel.InApp) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) CreateLog(ctx context.Context, l *notificationDatamodel.Log) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *NotificationRepository) InApp(ctx context.Context, memberID string, limit int) ([]*notificationDatamodel.InApp, error) {
	var rows []*notificationDatamodel.InApp
	q := r.db.WithContext(ctx).Where("member_id = ?", memberID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, memberID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&notificationDatamodel.InApp{}).
		Where("member_id = ? AND read = ?", memberID, false).
		Count(&n).Error
	return n, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, memberID, id string) error {
	var n notificationDatamodel.InApp
	if err := r.db.WithContext(ctx).Where("id = ? AND member_id = ?", id, memberID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return internal.ErrNotificationNotFound
		}
		return err
	}
	if n.Read {
		return nil
	}
	return r.db.WithContext(ctx).Model(&notificationDatamodel.InApp{}).Where("id = ?", id).Update("read", true).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, memberID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&notificationDatamodel.InApp{}).
		Where("member_id = ? AND read = ?", memberID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Logs(ctx context.Context, filter notification.LogFilter) ([]*notificationDatamodel.Log, error) {
	var rows []*notificationDatamodel.Log
	q := r.db.WithContext(ctx).Order("sent_at DESC").Order("id DESC")
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// RecipientRepository resolves members into notification recipients.
type RecipientRepository struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) notification.Recipients {
	return &RecipientRepository{db: db}
}

func toRecipient(m *memberDatamodel.Member) notification.Recipient {
	return notification.Recipient{ID: m.ID, FirstName: m.FirstName, Phone: m.Phone}
}

func (r *RecipientRepository) Recipient(ctx context.Context, id string) (*notification.Recipient, error) {
	var m memberDatamodel.Member
	if err := r.db.WithContext(ctx).Select("id", "first_name", "phone").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrMemberNotFound
		}
		return nil, err
	}
	rec := toRecipient(&m)
	return &rec, nil
}

func (r *RecipientRepository) ByRoles(ctx context.Context, roles []auth.Role) ([]notification.Recipient, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	var rows []*memberDatamodel.Member
	if err := r.db.WithContext(ctx).Select("id", "first_name", "phone").
		Where("role IN ? AND is_suspended = ?", names, false).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]notification.Recipient, 0, len(rows))
	for _, m := range rows {
		out = append(out, toRecipient(m))
	}
	return out, nil
}
