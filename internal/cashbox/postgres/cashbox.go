package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/cashbox"
	cashboxDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/cashbox"
	contributionDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/contribution"
	expenseDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/expense"
	transferDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/transfer"
	"gorm.io/gorm"
)

type CashBoxRepository struct {
	db *gorm.DB
}

func NewCashBoxRepository(db *gorm.DB) cashbox.RepositoryAPI {
	return &CashBoxRepository{db: db}
}

func (r *CashBoxRepository) List(ctx context.Context) ([]*cashboxDatamodel.CashBox, error) {
	var boxes []*cashboxDatamodel.CashBox
	err := r.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&boxes).Error
	return boxes, err
}

func (r *CashBoxRepository) GetByID(ctx context.Context, id string) (*cashboxDatamodel.CashBox, error) {
	var box cashboxDatamodel.CashBox
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&box).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCashBoxNotFound
		}
		return nil, err
	}
	return &box, nil
}

func (r *CashBoxRepository) Create(ctx context.Context, box *cashboxDatamodel.CashBox) error {
	return r.db.WithContext(ctx).Create(box).Error
}

func (r *CashBoxRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&cashboxDatamodel.CashBox{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrCashBoxNotFound
	}
	return nil
}

func (r *CashBoxRepository) SetDefault(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&cashboxDatamodel.CashBox{}).
			Where("is_default = ? AND id <> ?", true, id).
			Update("is_default", false).Error; err != nil {
			return err
		}
		res := tx.Model(&cashboxDatamodel.CashBox{}).Where("id = ?", id).Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrCashBoxNotFound
		}
		return nil
	})
}

func (r *CashBoxRepository) DeleteAndReassign(ctx context.Context, id, targetID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reassign := []struct {
			model  interface{}
			column string
		}{
			{&contributionDatamodel.Payment{}, "cash_box_id"},
			{&expenseDatamodel.Expense{}, "cash_box_id"},
			{&transferDatamodel.CashBoxTransfer{}, "from_cash_box_id"},
			{&transferDatamodel.CashBoxTransfer{}, "to_cash_box_id"},
		}
		for _, rr := range reassign {
			if err := tx.Model(rr.model).Where(rr.column+" = ?", id).Update(rr.column, targetID).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&cashboxDatamodel.CashBox{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrCashBoxNotFound
		}
		return nil
	})
}
