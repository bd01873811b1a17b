package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.CredentialStore {
	return &Repository{db: db}
}

func (r *Repository) FindByPhone(ctx context.Context, phone string) (*memberDatamodel.Member, error) {
	var m memberDatamodel.Member
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*memberDatamodel.Member, error) {
	var m memberDatamodel.Member
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}
