package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	expenseDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/expense"
	"github.com/frahmantamala/club-management/internal/expense"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.Repository interface using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	return r.db.WithContext(ctx).Create(exp).Error
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

func (r *ExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	q := r.db.WithContext(ctx).Order("expense_date DESC").Order("created_at DESC")
	if filter.CashBoxID != nil {
		if filter.IncludeUnassigned {
			q = q.Where("(cash_box_id = ? OR cash_box_id IS NULL)", *filter.CashBoxID)
		} else {
			q = q.Where("cash_box_id = ?", *filter.CashBoxID)
		}
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&expenses).Error
	return expenses, err
}

// Transition is a compare-and-set on status: zero matched rows means another
// request moved the expense first.
func (r *ExpenseRepository) Transition(ctx context.Context, id string, from approval.Status, cols map[string]interface{}) error {
	cols["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return approval.ErrStale
	}
	return nil
}

func (r *ExpenseRepository) PendingCounts(ctx context.Context) (approval.Counts, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).
		Select("status, COUNT(*) AS n").
		Where("status IN ?", []string{string(approval.StatusPendingTreasurer), string(approval.StatusPendingCommissioner)}).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return approval.Counts{}, err
	}
	var c approval.Counts
	for _, row := range rows {
		switch approval.Status(row.Status) {
		case approval.StatusPendingTreasurer:
			c.PendingTreasurer = row.N
		case approval.StatusPendingCommissioner:
			c.PendingCommissioner = row.N
		}
	}
	return c, nil
}
