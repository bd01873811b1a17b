// Package approval holds the two-level validation workflow shared by expenses
// and cash box transfers: PENDING_TREASURER -> PENDING_COMMISSIONER -> APPROVED,
// with REJECTED reachable from either pending state.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

type Status string

const (
	StatusPendingTreasurer    Status = "PENDING_TREASURER"
	StatusPendingCommissioner Status = "PENDING_COMMISSIONER"
	StatusApproved            Status = "APPROVED"
	StatusRejected            Status = "REJECTED"
)

func (s Status) IsPending() bool {
	return s == StatusPendingTreasurer || s == StatusPendingCommissioner
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Countable reports whether the amount affects balances.
func (s Status) Countable() bool {
	return s == StatusApproved
}

type Step string

const (
	StepValidateTreasurer    Step = "validate-treasurer"
	StepValidateCommissioner Step = "validate-commissioner"
	StepReject               Step = "reject"
)

// ErrStale is returned when the compare-and-set update matched no row.
var ErrStale = internal.NewConflictError("item was modified by another request", internal.ErrCodeInvalidTransition)

// Record is the approval state of one item.
type Record struct {
	Status                 Status
	TreasurerApprovedBy    *string
	TreasurerApprovedAt    *time.Time
	CommissionerApprovedBy *string
	CommissionerApprovedAt *time.Time
	RejectedBy             *string
	RejectedAt             *time.Time
	RejectReason           *string
}

func New() Record {
	return Record{Status: StatusPendingTreasurer}
}

// Machine applies steps under a capability policy.
type Machine struct {
	policy *auth.Policy
}

func NewMachine(policy *auth.Policy) *Machine {
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	return &Machine{policy: policy}
}

func (m *Machine) ValidateTreasurer(rec Record, actor auth.Principal, now time.Time) (Record, error) {
	if rec.Status != StatusPendingTreasurer {
		return rec, guardError(StepValidateTreasurer, rec.Status)
	}
	if !m.policy.Can(actor.Role, auth.ActionValidateTreasurer) {
		return rec, internal.ErrUnauthorizedAccess
	}

	next := rec
	next.Status = StatusPendingCommissioner
	next.TreasurerApprovedBy = strPtr(actor.MemberID)
	next.TreasurerApprovedAt = timePtr(now)
	return next, nil
}

func (m *Machine) ValidateCommissioner(rec Record, actor auth.Principal, now time.Time) (Record, error) {
	if rec.Status != StatusPendingCommissioner {
		return rec, guardError(StepValidateCommissioner, rec.Status)
	}
	if !m.policy.Can(actor.Role, auth.ActionValidateCommissioner) {
		return rec, internal.ErrUnauthorizedAccess
	}

	next := rec
	next.Status = StatusApproved
	next.CommissionerApprovedBy = strPtr(actor.MemberID)
	next.CommissionerApprovedAt = timePtr(now)
	return next, nil
}

// Reject is allowed to whoever may validate the current level.
func (m *Machine) Reject(rec Record, actor auth.Principal, reason string, now time.Time) (Record, error) {
	var required auth.Action
	switch rec.Status {
	case StatusPendingTreasurer:
		required = auth.ActionValidateTreasurer
	case StatusPendingCommissioner:
		required = auth.ActionValidateCommissioner
	default:
		return rec, guardError(StepReject, rec.Status)
	}
	if !m.policy.Can(actor.Role, required) {
		return rec, internal.ErrUnauthorizedAccess
	}

	normalized, verr := validation.NormalizeReason(reason)
	if verr != nil {
		return rec, verr
	}

	next := rec
	next.Status = StatusRejected
	next.RejectedBy = strPtr(actor.MemberID)
	next.RejectedAt = timePtr(now)
	next.RejectReason = normalized
	return next, nil
}

func (m *Machine) Apply(step Step, rec Record, actor auth.Principal, reason string, now time.Time) (Record, error) {
	switch step {
	case StepValidateTreasurer:
		return m.ValidateTreasurer(rec, actor, now)
	case StepValidateCommissioner:
		return m.ValidateCommissioner(rec, actor, now)
	case StepReject:
		return m.Reject(rec, actor, reason, now)
	}
	return rec, internal.NewValidationError(fmt.Sprintf("unknown approval step %q", step), internal.ErrCodeValidationFailed)
}

// Store persists a transition only if the row still has status from.
type Store interface {
	Transition(ctx context.Context, id string, from Status, cols map[string]interface{}) error
}

// Transit applies step to current and persists it with compare-and-set. On any
// error current is returned unchanged.
func (m *Machine) Transit(ctx context.Context, store Store, id string, current Record, step Step, actor auth.Principal, reason string, now time.Time) (Record, error) {
	next, err := m.Apply(step, current, actor, reason, now)
	if err != nil {
		return current, err
	}
	if err := store.Transition(ctx, id, current.Status, Columns(next)); err != nil {
		return current, err
	}
	return next, nil
}

// Columns lists the persisted columns a transition into next writes.
func Columns(next Record) map[string]interface{} {
	cols := map[string]interface{}{"status": string(next.Status)}
	switch next.Status {
	case StatusPendingCommissioner:
		cols["treasurer_approved_by_id"] = next.TreasurerApprovedBy
		cols["treasurer_approved_at"] = next.TreasurerApprovedAt
	case StatusApproved:
		cols["commissioner_approved_by_id"] = next.CommissionerApprovedBy
		cols["commissioner_approved_at"] = next.CommissionerApprovedAt
	case StatusRejected:
		cols["rejected_by_id"] = next.RejectedBy
		cols["rejected_at"] = next.RejectedAt
		cols["reject_reason"] = next.RejectReason
	}
	return cols
}

// Counts feeds the pending badge.
type Counts struct {
	PendingTreasurer    int64 `json:"pendingTreasurer"`
	PendingCommissioner int64 `json:"pendingCommissioner"`
}

func (c Counts) Add(o Counts) Counts {
	return Counts{
		PendingTreasurer:    c.PendingTreasurer + o.PendingTreasurer,
		PendingCommissioner: c.PendingCommissioner + o.PendingCommissioner,
	}
}

func (c Counts) Total() int64 {
	return c.PendingTreasurer + c.PendingCommissioner
}

// CountStatuses tallies pending records.
func CountStatuses(statuses []Status) Counts {
	var c Counts
	for _, s := range statuses {
		switch s {
		case StatusPendingTreasurer:
			c.PendingTreasurer++
		case StatusPendingCommissioner:
			c.PendingCommissioner++
		}
	}
	return c
}

// NextActor returns the action whose holders must act next, if any.
func NextActor(s Status) (auth.Action, bool) {
	switch s {
	case StatusPendingTreasurer:
		return auth.ActionValidateTreasurer, true
	case StatusPendingCommissioner:
		return auth.ActionValidateCommissioner, true
	}
	return "", false
}

func guardError(step Step, current Status) error {
	return internal.ErrInvalidTransition.WithMessage(fmt.Sprintf("cannot %s: item is %s", step, current))
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
