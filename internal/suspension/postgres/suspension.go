package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/club-management/internal"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/frahmantamala/club-management/internal/suspension"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const auditActionAutoSuspended = "AUTO_SUSPENDED"

type SuspensionRepository struct {
	db *gorm.DB
}

func NewSuspensionRepository(db *gorm.DB) suspension.MemberStore {
	return &SuspensionRepository{db: db}
}

func (r *SuspensionRepository) Suspend(ctx context.Context, memberID string, at time.Time, details string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&memberDatamodel.Member{}).
			Where("id = ? AND is_suspended = ?", memberID, false).
			Updates(map[string]interface{}{
				"is_suspended":   true,
				"suspended_at":   at,
				"reactivated_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrMemberNotFound
		}
		return tx.Create(&memberDatamodel.AuditLog{
			ID:       uuid.New().String(),
			MemberID: memberID,
			Action:   auditActionAutoSuspended,
			Details:  &details,
		}).Error
	})
}

func (r *SuspensionRepository) ClearGrace(ctx context.Context, memberID string) error {
	return r.db.WithContext(ctx).Model(&memberDatamodel.Member{}).
		Where("id = ?", memberID).
		Update("reactivated_at", nil).Error
}
