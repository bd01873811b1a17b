package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/cache"
	"github.com/frahmantamala/club-management/internal/cashbox"
	"github.com/frahmantamala/club-management/internal/contribution"
	"github.com/frahmantamala/club-management/internal/expense"
	"github.com/frahmantamala/club-management/internal/transfer"
)

type BoxSource interface {
	List(ctx context.Context) ([]*cashbox.CashBox, error)
}

type PaymentSource interface {
	ListPayments(ctx context.Context, filter contribution.PaymentFilter) ([]*contribution.Payment, error)
}

type ExpenseSource interface {
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
	PendingCounts(ctx context.Context) (approval.Counts, error)
}

type TransferSource interface {
	List(ctx context.Context, filter transfer.ListFilter) ([]*transfer.Transfer, error)
	PendingCounts(ctx context.Context) (approval.Counts, error)
}

type ServiceAPI interface {
	Summary(ctx context.Context) (*Summary, error)
	Livre(ctx context.Context, limit int) ([]Line, error)
	PendingCount(ctx context.Context) (approval.Counts, error)
}

type Service struct {
	boxes     BoxSource
	payments  PaymentSource
	expenses  ExpenseSource
	transfers TransferSource
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(boxes BoxSource, payments PaymentSource, expenses ExpenseSource, transfers TransferSource, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		boxes:     boxes,
		payments:  payments,
		expenses:  expenses,
		transfers: transfers,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) load(ctx context.Context, limit int) ([]Line, []*cashbox.CashBox, error) {
	boxes, err := s.boxes.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.payments.ListPayments(ctx, contribution.PaymentFilter{})
	if err != nil {
		return nil, nil, err
	}
	approved := string(approval.StatusApproved)
	expenses, err := s.expenses.List(ctx, expense.ListFilter{Status: &approved})
	if err != nil {
		return nil, nil, err
	}
	transfers, err := s.transfers.List(ctx, transfer.ListFilter{Status: &approved})
	if err != nil {
		return nil, nil, err
	}
	return Build(payments, expenses, transfers, boxes, limit), boxes, nil
}

// Summary recomputes every balance from scratch.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	lines, boxes, err := s.load(ctx, 0)
	if err != nil {
		s.logger.Error("failed to build caisse summary", "error", err)
		return nil, internal.NewInternalError("failed to build caisse summary", err)
	}
	summary := Aggregate(lines, boxes)
	summary.LastUpdated = s.now()
	return &summary, nil
}

func (s *Service) Livre(ctx context.Context, limit int) ([]Line, error) {
	lines, _, err := s.load(ctx, limit)
	if err != nil {
		s.logger.Error("failed to build livre de caisse", "error", err)
		return nil, internal.NewInternalError("failed to build livre de caisse", err)
	}
	return lines, nil
}

// PendingCount merges the expense and transfer badges.
func (s *Service) PendingCount(ctx context.Context) (approval.Counts, error) {
	return cache.Remember(ctx, s.cache, cache.KeyPendingCount, s.cacheTTL, s.logger, func(ctx context.Context) (approval.Counts, error) {
		e, err := s.expenses.PendingCounts(ctx)
		if err != nil {
			return approval.Counts{}, internal.NewInternalError("failed to count pending expenses", err)
		}
		t, err := s.transfers.PendingCounts(ctx)
		if err != nil {
			return approval.Counts{}, internal.NewInternalError("failed to count pending transfers", err)
		}
		return e.Add(t), nil
	})
}
