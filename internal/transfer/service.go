package transfer

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	transferDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/transfer"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/metrics"
	"github.com/google/uuid"
)

type Repository interface {
	approval.Store
	Create(ctx context.Context, t *transferDatamodel.CashBoxTransfer) error
	GetByID(ctx context.Context, id string) (*transferDatamodel.CashBoxTransfer, error)
	List(ctx context.Context, filter ListFilter) ([]*transferDatamodel.CashBoxTransfer, error)
	PendingCounts(ctx context.Context) (approval.Counts, error)
}

type CashBoxLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
	IsDefault(ctx context.Context, id string) (bool, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, actor auth.Principal, dto CreateTransferDTO) (*Transfer, error)
	Get(ctx context.Context, id string) (*Transfer, error)
	List(ctx context.Context, filter ListFilter) ([]*Transfer, error)
	Transition(ctx context.Context, actor auth.Principal, id string, step approval.Step, reason string) (*Transfer, error)
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

func (s *Service) Create(ctx context.Context, actor auth.Principal, dto CreateTransferDTO) (*Transfer, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionCreateTransfer); err != nil {
		s.logger.Warn("create transfer denied", "member_id", actor.MemberID, "role", actor.Role)
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	boxID := strings.TrimSpace(dto.CashBoxID)
	ok, err := s.boxes.Exists(ctx, boxID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check cash box", err)
	}
	if !ok {
		return nil, internal.ErrCashBoxNotFound
	}

	now := s.now()
	t := &Transfer{
		ID:            uuid.New().String(),
		Type:          Type(strings.ToUpper(strings.TrimSpace(dto.Type))),
		Amount:        dto.Amount,
		Description:   dto.Description,
		RequestedByID: actor.MemberID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if t.Type == TypeWithdrawal {
		t.FromCashBoxID = &boxID
	} else {
		t.ToCashBoxID = &boxID
	}
	t.SetRecord(approval.New())

	if err := s.repo.Create(ctx, ToDataModel(t)); err != nil {
		s.logger.Error("failed to create transfer", "error", err)
		return nil, internal.NewInternalError("failed to create transfer", err)
	}

	s.logger.Info("transfer created",
		"transfer_id", t.ID,
		"type", t.Type,
		"cash_box_id", boxID,
		"amount", t.Amount)

	s.publish(ctx, t, "", actor.MemberID)
	return s.enrichOne(ctx, t), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Transfer, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, FromDataModel(row)), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transfer, error) {
	if filter.CashBoxID != nil {
		isDefault, err := s.boxes.IsDefault(ctx, *filter.CashBoxID)
		if err != nil {
			s.logger.Error("failed to resolve default cash box", "error", err)
			return nil, internal.NewInternalError("failed to list transfers", err)
		}
		filter.IncludeUnassigned = isDefault
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list transfers", "error", err)
		return nil, internal.NewInternalError("failed to list transfers", err)
	}
	return s.enrich(ctx, FromDataModelSlice(rows)), nil
}

func (s *Service) Transition(ctx context.Context, actor auth.Principal, id string, step approval.Step, reason string) (*Transfer, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t := FromDataModel(row)
	from := t.Status

	next, err := s.machine.Transit(ctx, s.repo, id, t.Record(), step, actor, reason, s.now())
	if err != nil {
		if stdErrors.Is(err, internal.ErrInvalidTransition) {
			metrics.ApprovalConflicts.WithLabelValues("transfer").Inc()
		}
		s.logger.Warn("transfer transition refused",
			"transfer_id", id,
			"step", step,
			"status", from,
			"member_id", actor.MemberID,
			"error", err)
		return nil, err
	}
	t.SetRecord(next)
	t.UpdatedAt = s.now()

	metrics.ApprovalTransitions.WithLabelValues("transfer", string(next.Status)).Inc()
	s.logger.Info("transfer transitioned",
		"transfer_id", id,
		"from", from,
		"to", next.Status,
		"member_id", actor.MemberID)

	s.publish(ctx, t, from, actor.MemberID)
	return s.enrichOne(ctx, t), nil
}

func (s *Service) PendingCounts(ctx context.Context) (approval.Counts, error) {
	return s.repo.PendingCounts(ctx)
}

func (s *Service) publish(ctx context.Context, t *Transfer, from approval.Status, actorID string) {
	if s.publisher == nil {
		return
	}
	evt := events.NewApprovalTransitionedEvent(events.EventTypeTransferTransitioned, "transfer",
		t.ID, string(from), string(t.Status), actorID, t.RequestedByID, t.Amount, t.RejectReason)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish transfer event", "transfer_id", t.ID, "error", err)
	}
}

func (s *Service) enrichOne(ctx context.Context, t *Transfer) *Transfer {
	return s.enrich(ctx, []*Transfer{t})[0]
}

func (s *Service) enrich(ctx context.Context, list []*Transfer) []*Transfer {
	if s.directory == nil || len(list) == 0 {
		return list
	}
	var memberIDs, boxIDs []string
	for _, t := range list {
		memberIDs = append(memberIDs, t.RequestedByID)
		memberIDs = directory.Deref(memberIDs, t.TreasurerApprovedByID)
		memberIDs = directory.Deref(memberIDs, t.CommissionerApprovedID)
		boxIDs = directory.Deref(boxIDs, t.FromCashBoxID)
		boxIDs = directory.Deref(boxIDs, t.ToCashBoxID)
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
	for _, t := range list {
		t.RequestedBy = directory.MemberPtr(members, &t.RequestedByID)
		t.TreasurerApprovedBy = directory.MemberPtr(members, t.TreasurerApprovedByID)
		t.CommissionerApprovedBy = directory.MemberPtr(members, t.CommissionerApprovedID)
		t.FromCashBox = directory.BoxPtr(boxes, t.FromCashBoxID)
		t.ToCashBox = directory.BoxPtr(boxes, t.ToCashBoxID)
	}
	return list
}
