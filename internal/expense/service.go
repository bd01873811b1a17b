package expense

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	expenseDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/expense"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/metrics"
	"github.com/google/uuid"
)

// Repository interface defines the data access methods for expenses
type Repository interface {
	approval.Store
	Create(ctx context.Context, e *expenseDatamodel.Expense) error
	GetByID(ctx context.Context, id string) (*expenseDatamodel.Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*expenseDatamodel.Expense, error)
	PendingCounts(ctx context.Context) (approval.Counts, error)
}

// CashBoxLookup confirms a referenced cash box exists.
type CashBoxLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
	IsDefault(ctx context.Context, id string) (bool, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, actor auth.Principal, dto CreateExpenseDTO) (*Expense, error)
	Get(ctx context.Context, id string) (*Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*Expense, error)
	Transition(ctx context.Context, actor auth.Principal, id string, step approval.Step, reason string) (*Expense, error)
	PendingCounts(ctx context.Context) (approval.Counts, error)
}

type Service struct {
	repo      Repository
	boxes     CashBoxLookup
	directory directory.Resolver
	machine   *approval.Machine
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, boxes CashBoxLookup, dir directory.Resolver, policy *auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	return &Service{
		repo:      repo,
		boxes:     boxes,
		directory: dir,
		machine:   approval.NewMachine(policy),
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, dto CreateExpenseDTO) (*Expense, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionCreateExpense); err != nil {
		s.logger.Warn("create expense denied", "member_id", actor.MemberID, "role", actor.Role)
		return nil, err
	}

	dto = dto.normalized()
	now := s.now()
	date, verr := dto.Validate(now)
	if verr != nil {
		return nil, verr
	}

	if dto.CashBoxID != nil {
		ok, err := s.boxes.Exists(ctx, *dto.CashBoxID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check cash box", err)
		}
		if !ok {
			return nil, internal.ErrCashBoxNotFound
		}
	}

	e := &Expense{
		ID:            uuid.New().String(),
		Amount:        dto.Amount,
		Description:   dto.Description,
		ExpenseDate:   date,
		Beneficiary:   dto.Beneficiary,
		CashBoxID:     dto.CashBoxID,
		RequestedByID: actor.MemberID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	e.SetRecord(approval.New())

	if err := s.repo.Create(ctx, ToDataModel(e)); err != nil {
		s.logger.Error("failed to create expense", "error", err, "member_id", actor.MemberID)
		return nil, internal.NewInternalError("failed to create expense", err)
	}

	s.logger.Info("expense created",
		"expense_id", e.ID,
		"member_id", actor.MemberID,
		"amount", e.Amount,
		"status", e.Status)

	s.publish(ctx, e, "", actor.MemberID)
	return s.enrichOne(ctx, e), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, FromDataModel(row)), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	if filter.CashBoxID != nil {
		isDefault, err := s.boxes.IsDefault(ctx, *filter.CashBoxID)
		if err != nil {
			s.logger.Error("failed to resolve default cash box", "error", err)
			return nil, internal.NewInternalError("failed to list expenses", err)
		}
		filter.IncludeUnassigned = isDefault
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		return nil, internal.NewInternalError("failed to list expenses", err)
	}
	return s.enrich(ctx, FromDataModelSlice(rows)), nil
}

// Transition applies one approval step. Concurrent callers on the same expense
// get exactly one success; the others receive a Conflict.
func (s *Service) Transition(ctx context.Context, actor auth.Principal, id string, step approval.Step, reason string) (*Expense, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e := FromDataModel(row)
	from := e.Status

	next, err := s.machine.Transit(ctx, s.repo, id, e.Record(), step, actor, reason, s.now())
	if err != nil {
		if stdErrors.Is(err, internal.ErrInvalidTransition) {
			metrics.ApprovalConflicts.WithLabelValues("expense").Inc()
		}
		s.logger.Warn("expense transition refused",
			"expense_id", id,
			"step", step,
			"status", from,
			"member_id", actor.MemberID,
			"error", err)
		return nil, err
	}
	e.SetRecord(next)
	e.UpdatedAt = s.now()

	metrics.ApprovalTransitions.WithLabelValues("expense", string(next.Status)).Inc()
	s.logger.Info("expense transitioned",
		"expense_id", id,
		"from", from,
		"to", next.Status,
		"member_id", actor.MemberID,
		"amount", e.Amount)

	s.publish(ctx, e, from, actor.MemberID)
	return s.enrichOne(ctx, e), nil
}

func (s *Service) PendingCounts(ctx context.Context) (approval.Counts, error) {
	return s.repo.PendingCounts(ctx)
}

func (s *Service) publish(ctx context.Context, e *Expense, from approval.Status, actorID string) {
	if s.publisher == nil {
		return
	}
	evt := events.NewApprovalTransitionedEvent(events.EventTypeExpenseTransitioned, "expense",
		e.ID, string(from), string(e.Status), actorID, e.RequestedByID, e.Amount, e.RejectReason)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish expense event", "expense_id", e.ID, "error", err)
	}
}

func (s *Service) enrichOne(ctx context.Context, e *Expense) *Expense {
	return s.enrich(ctx, []*Expense{e})[0]
}

// enrich fills member and box references; lookup failures leave ids only.
func (s *Service) enrich(ctx context.Context, list []*Expense) []*Expense {
	if s.directory == nil || len(list) == 0 {
		return list
	}
	var memberIDs, boxIDs []string
	for _, e := range list {
		memberIDs = append(memberIDs, e.RequestedByID)
		memberIDs = directory.Deref(memberIDs, e.TreasurerApprovedByID)
		memberIDs = directory.Deref(memberIDs, e.CommissionerApprovedID)
		boxIDs = directory.Deref(boxIDs, e.CashBoxID)
	}
	members, err := s.directory.Members(ctx, memberIDs)
	if err != nil {
		s.logger.Warn("failed to resolve members", "error", err)
		return list
	}
	boxes, err := s.directory.Boxes(ctx, boxIDs)
	if err != nil {
		s.logger.Warn("failed to resolve cash boxes", "error", err)
		return list
	}
	for _, e := range list {
		e.RequestedBy = directory.MemberPtr(members, &e.RequestedByID)
		e.TreasurerApprovedBy = directory.MemberPtr(members, e.TreasurerApprovedByID)
		e.CommissionerApprovedBy = directory.MemberPtr(members, e.CommissionerApprovedID)
		e.CashBox = directory.BoxPtr(boxes, e.CashBoxID)
	}
	return list
}
