package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/contribution"
	contributionDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/contribution"
	"gorm.io/gorm"
)

type ContributionRepository struct {
	db *gorm.DB
}

func NewContributionRepository(db *gorm.DB) contribution.Repository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) List(ctx context.Context) ([]*contributionDatamodel.Contribution, error) {
	var rows []*contributionDatamodel.Contribution
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *ContributionRepository) GetByID(ctx context.Context, id string) (*contributionDatamodel.Contribution, error) {
	var row contributionDatamodel.Contribution
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrContributionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *ContributionRepository) Create(ctx context.Context, c *contributionDatamodel.Contribution) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContributionRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&contributionDatamodel.Contribution{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrContributionNotFound
	}
	return nil
}

func (r *ContributionRepository) Monthly(ctx context.Context) (*contributionDatamodel.Contribution, error) {
	var row contributionDatamodel.Contribution
	err := r.db.WithContext(ctx).
		Where("type = ?", string(contribution.TypeMonthly)).
		Order("created_at ASC").Order("id ASC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrNoMonthlyContribution
		}
		return nil, err
	}
	return &row, nil
}

func (r *ContributionRepository) RecordPayment(ctx context.Context, p *contributionDatamodel.Payment, project bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if !project {
			return nil
		}
		return tx.Model(&contributionDatamodel.Contribution{}).
			Where("id = ?", p.ContributionID).
			Update("received_amount", gorm.Expr("received_amount + ?", p.Amount)).Error
	})
}

func (r *ContributionRepository) ListPayments(ctx context.Context, filter contribution.PaymentFilter) ([]*contributionDatamodel.Payment, error) {
	var rows []*contributionDatamodel.Payment
	q := r.db.WithContext(ctx).Order("paid_at DESC").Order("id DESC")
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.ContributionID != nil {
		q = q.Where("contribution_id = ?", *filter.ContributionID)
	}
	if filter.Year != nil {
		q = q.Where("period_year = ?", *filter.Year)
	}
	if filter.Month != nil {
		q = q.Where("period_month = ?", *filter.Month)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}
