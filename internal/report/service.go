package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

// Repository aggregates over the half-open range [from, to).
type Repository interface {
	// Entries sums recorded payments plus approved allocations.
	Entries(ctx context.Context, from, to time.Time) (int64, error)
	// Exits sums approved expenses plus approved withdrawals.
	Exits(ctx context.Context, from, to time.Time) (int64, error)
	Payments(ctx context.Context, from, to time.Time) ([]PaymentLine, error)
	ApprovedExpenses(ctx context.Context, from, to time.Time) ([]ExpenseLine, error)
}

type ServiceAPI interface {
	Monthly(ctx context.Context, actor auth.Principal, year, month int) (*MonthlyReport, error)
	Annual(ctx context.Context, actor auth.Principal, year int) (*AnnualReport, error)
}

type Service struct {
	repo     Repository
	policy   *auth.Policy
	location *time.Location
	logger   *slog.Logger
}

func NewService(repo Repository, policy *auth.Policy, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, policy: policy, location: loc, logger: logger}
}

func (s *Service) monthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.location)
	return from, from.AddDate(0, 1, 0)
}

func (s *Service) totals(ctx context.Context, from, to time.Time) (Totals, error) {
	entries, err := s.repo.Entries(ctx, from, to)
	if err != nil {
		return Totals{}, internal.NewInternalError("failed to sum entries", err)
	}
	exits, err := s.repo.Exits(ctx, from, to)
	if err != nil {
		return Totals{}, internal.NewInternalError("failed to sum exits", err)
	}
	return newTotals(entries, exits), nil
}

func (s *Service) Monthly(ctx context.Context, actor auth.Principal, year, month int) (*MonthlyReport, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionViewReports); err != nil {
		return nil, err
	}
	if err := validation.ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	from, to := s.monthRange(year, month)

	totals, err := s.totals(ctx, from, to)
	if err != nil {
		s.logger.Error("monthly report failed", "year", year, "month", month, "error", err)
		return nil, err
	}
	payments, err := s.repo.Payments(ctx, from, to)
	if err != nil {
		return nil, internal.NewInternalError("failed to list payments", err)
	}
	expenses, err := s.repo.ApprovedExpenses(ctx, from, to)
	if err != nil {
		return nil, internal.NewInternalError("failed to list expenses", err)
	}
	if payments == nil {
		payments = []PaymentLine{}
	}
	if expenses == nil {
		expenses = []ExpenseLine{}
	}
	return &MonthlyReport{
		Period:   periodOf(year, month),
		Totals:   totals,
		Payments: payments,
		Expenses: expenses,
	}, nil
}

func (s *Service) Annual(ctx context.Context, actor auth.Principal, year int) (*AnnualReport, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionViewReports); err != nil {
		return nil, err
	}
	if err := validation.ValidatePeriod(year, 1); err != nil {
		return nil, err
	}

	out := &AnnualReport{Year: year, Months: make([]AnnualMonth, 0, 12)}
	var entries, exits int64
	for month := 1; month <= 12; month++ {
		from, to := s.monthRange(year, month)
		t, err := s.totals(ctx, from, to)
		if err != nil {
			s.logger.Error("annual report failed", "year", year, "month", month, "error", err)
			return nil, err
		}
		entries += t.TotalEntries
		exits += t.TotalExits
		out.Months = append(out.Months, AnnualMonth{Period: periodOf(year, month), Totals: t})
	}
	out.Totals = newTotals(entries, exits)
	return out, nil
}
