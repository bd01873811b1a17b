package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/activity"
	activityDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/activity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) activity.Repository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) List(ctx context.Context) ([]*activityDatamodel.Activity, error) {
	var rows []*activityDatamodel.Activity
	err := r.db.WithContext(ctx).Order("date DESC").Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*activityDatamodel.Activity, error) {
	var a activityDatamodel.Activity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrActivityNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ActivityRepository) Create(ctx context.Context, a *activityDatamodel.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ActivityRepository) Announcements(ctx context.Context) ([]*activityDatamodel.Announcement, error) {
	var rows []*activityDatamodel.Announcement
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *ActivityRepository) CreateAnnouncement(ctx context.Context, a *activityDatamodel.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ActivityRepository) SeenAt(ctx context.Context, memberID string) (*time.Time, error) {
	var seen activityDatamodel.Seen
	if err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&seen).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seen.SeenAt, nil
}

func (r *ActivityRepository) MarkSeen(ctx context.Context, memberID string, at time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"seen_at"}),
	}).Create(&activityDatamodel.Seen{MemberID: memberID, SeenAt: at}).Error
}

func (r *ActivityRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var activities, announcements int64
	if err := r.db.WithContext(ctx).Model(&activityDatamodel.Activity{}).
		Where("created_at > ?", since).Count(&activities).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&activityDatamodel.Announcement{}).
		Where("created_at > ?", since).Count(&announcements).Error; err != nil {
		return 0, err
	}
	return activities + announcements, nil
}
