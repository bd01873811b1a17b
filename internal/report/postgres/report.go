package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/report"
	"github.com/frahmantamala/club-management/internal/transfer"
	"github.com/jmoiron/sqlx"
)

// ReportRepository runs the report aggregates as plain SQL.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &ReportRepository{db: db}
}

const (
	sumPayments = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= ? AND paid_at < ?`

	sumExpenses = `SELECT COALESCE(SUM(amount), 0) FROM expenses
WHERE status = ? AND expense_date >= ? AND expense_date < ?`

	sumTransfers = `SELECT COALESCE(SUM(amount), 0) FROM cash_box_transfers
WHERE status = ? AND type = ? AND commissioner_approved_at >= ? AND commissioner_approved_at < ?`

	listPayments = `SELECT p.id, p.amount, p.paid_at,
  COALESCE(m.first_name, '') AS "member.first_name",
  COALESCE(m.last_name, '') AS "member.last_name",
  COALESCE(m.phone, '') AS "member.phone",
  COALESCE(c.name, '') AS "contribution.name"
FROM payments p
LEFT JOIN members m ON m.id = p.member_id
LEFT JOIN contributions c ON c.id = p.contribution_id
WHERE p.paid_at >= ? AND p.paid_at < ?
ORDER BY p.paid_at DESC, p.id DESC`

	listExpenses = `SELECT e.id, e.amount, e.expense_date, e.description,
  COALESCE(m.first_name, '') AS "requested_by.first_name",
  COALESCE(m.last_name, '') AS "requested_by.last_name",
  COALESCE(m.phone, '') AS "requested_by.phone"
FROM expenses e
LEFT JOIN members m ON m.id = e.requested_by_id
WHERE e.status = ? AND e.expense_date >= ? AND e.expense_date < ?
ORDER BY e.expense_date DESC, e.id DESC`
)

func (r *ReportRepository) sum(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, r.db.Rebind(query), args...)
	return total, err
}

func (r *ReportRepository) Entries(ctx context.Context, from, to time.Time) (int64, error) {
	payments, err := r.sum(ctx, sumPayments, from, to)
	if err != nil {
		return 0, err
	}
	allocations, err := r.sum(ctx, sumTransfers, string(approval.StatusApproved), string(transfer.TypeAllocation), from, to)
	if err != nil {
		return 0, err
	}
	return payments + allocations, nil
}

func (r *ReportRepository) Exits(ctx context.Context, from, to time.Time) (int64, error) {
	expenses, err := r.sum(ctx, sumExpenses, string(approval.StatusApproved), from, to)
	if err != nil {
		return 0, err
	}
	withdrawals, err := r.sum(ctx, sumTransfers, string(approval.StatusApproved), string(transfer.TypeWithdrawal), from, to)
	if err != nil {
		return 0, err
	}
	return expenses + withdrawals, nil
}

func (r *ReportRepository) Payments(ctx context.Context, from, to time.Time) ([]report.PaymentLine, error) {
	var rows []report.PaymentLine
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(listPayments), from, to)
	return rows, err
}

func (r *ReportRepository) ApprovedExpenses(ctx context.Context, from, to time.Time) ([]report.ExpenseLine, error) {
	var rows []report.ExpenseLine
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(listExpenses), string(approval.StatusApproved), from, to)
	return rows, err
}
