package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/club-management/internal"
	activityDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/activity"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	notificationDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/club-management/internal/member"
	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) member.Repository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) List(ctx context.Context, filter member.ListFilter) ([]*memberDatamodel.Member, error) {
	q := r.db.WithContext(ctx).Model(&memberDatamodel.Member{})
	if filter.Role != nil {
		q = q.Where("role = ?", strings.ToUpper(*filter.Role))
	}
	if filter.IsSuspended != nil {
		q = q.Where("is_suspended = ?", *filter.IsSuspended)
	}
	if filter.Search != nil {
		like := "%" + strings.ToLower(*filter.Search) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ?", like, like, like)
	}
	var rows []*memberDatamodel.Member
	err := q.Order("last_name ASC").Order("first_name ASC").Order("phone ASC").Find(&rows).Error
	return rows, err
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*memberDatamodel.Member, error) {
	var m memberDatamodel.Member
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) PhoneTaken(ctx context.Context, phone, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&memberDatamodel.Member{}).Where("phone = ?", phone)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MemberRepository) Create(ctx context.Context, m *memberDatamodel.Member, audit *memberDatamodel.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return internal.ErrPhoneTaken
			}
			return err
		}
		if audit != nil {
			return tx.Create(audit).Error
		}
		return nil
	})
}

func (r *MemberRepository) Update(ctx context.Context, id string, fields map[string]interface{}, audit []*memberDatamodel.AuditLog) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&memberDatamodel.Member{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return internal.ErrPhoneTaken
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrMemberNotFound
		}
		if len(audit) > 0 {
			return tx.Create(&audit).Error
		}
		return nil
	})
}

// Delete removes the member with its audit trail, notifications and feed
// marker. Payments are kept so the ledger does not move.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&memberDatamodel.AuditLog{},
			&notificationDatamodel.InApp{},
			&notificationDatamodel.Log{},
		}
		for _, model := range owned {
			if err := tx.Where("member_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("member_id = ?", id).Delete(&activityDatamodel.Seen{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&memberDatamodel.Member{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrMemberNotFound
		}
		return nil
	})
}

func (r *MemberRepository) AuditLog(ctx context.Context, memberID string) ([]*memberDatamodel.AuditLog, error) {
	var rows []*memberDatamodel.AuditLog
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
