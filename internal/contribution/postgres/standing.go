package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/contribution"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"gorm.io/gorm"
)

// StandingRepository reads the member columns the dues rules need.
type StandingRepository struct {
	db *gorm.DB
}

func NewStandingRepository(db *gorm.DB) contribution.MemberStore {
	return &StandingRepository{db: db}
}

func toStanding(m *memberDatamodel.Member) *contribution.Standing {
	return &contribution.Standing{
		ID:            m.ID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Phone:         m.Phone,
		Role:          auth.Role(m.Role),
		IsSuspended:   m.IsSuspended,
		SuspendedAt:   m.SuspendedAt,
		ReactivatedAt: m.ReactivatedAt,
		CreatedAt:     m.CreatedAt,
	}
}

func (r *StandingRepository) Standings(ctx context.Context) ([]*contribution.Standing, error) {
	var rows []*memberDatamodel.Member
	if err := r.db.WithContext(ctx).Order("last_name ASC").Order("first_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*contribution.Standing, 0, len(rows))
	for _, m := range rows {
		out = append(out, toStanding(m))
	}
	return out, nil
}

func (r *StandingRepository) Standing(ctx context.Context, id string) (*contribution.Standing, error) {
	var m memberDatamodel.Member
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrMemberNotFound
		}
		return nil, err
	}
	return toStanding(&m), nil
}

func (r *StandingRepository) ClearGrace(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&memberDatamodel.Member{}).
		Where("id = ?", id).
		Update("reactivated_at", nil).Error
}
