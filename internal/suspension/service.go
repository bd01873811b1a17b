package suspension

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/contribution"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/metrics"
)

// MemberStore applies decisions to member rows.
type MemberStore interface {
	// Suspend sets the flag, stamps suspendedAt, drops any grace marker and
	// writes an audit row, atomically.
	Suspend(ctx context.Context, memberID string, at time.Time, details string) error
	ClearGrace(ctx context.Context, memberID string) error
}

type DuesSource interface {
	Snapshot(ctx context.Context) (*contribution.Snapshot, error)
	Unpaid(snap *contribution.Snapshot, member *contribution.Standing, now time.Time) []contribution.Period
}

type ServiceAPI interface {
	Apply(ctx context.Context, actor auth.Principal) (*RunResult, error)
	ApplySuspensions(ctx context.Context, now time.Time) (*RunResult, error)
}

type RunResult struct {
	Applied     int    `json:"applied"`
	Cleared     int    `json:"cleared"`
	PeriodYear  int    `json:"periodYear"`
	PeriodMonth int    `json:"periodMonth"`
	Message     string `json:"message"`
}

type Service struct {
	members   MemberStore
	dues      DuesSource
	policy    Policy
	access    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(members MemberStore, dues DuesSource, policy Policy, access *auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	if access == nil {
		access = auth.DefaultPolicy()
	}
	return &Service{
		members:   members,
		dues:      dues,
		policy:    policy,
		access:    access,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Apply is the manual trigger behind POST /contributions/apply-suspensions.
func (s *Service) Apply(ctx context.Context, actor auth.Principal) (*RunResult, error) {
	if err := auth.Authorize(s.access, actor, auth.ActionApplySuspensions); err != nil {
		return nil, err
	}
	s.logger.Info("suspension run requested", "member_id", actor.MemberID)
	return s.ApplySuspensions(ctx, s.now())
}

// ApplySuspensions evaluates every member and applies the decisions. One
// member failing does not stop the run.
func (s *Service) ApplySuspensions(ctx context.Context, now time.Time) (*RunResult, error) {
	started := time.Now()
	defer func() { metrics.SuspensionRunDuration.Observe(time.Since(started).Seconds()) }()

	current := contribution.PeriodOf(now, s.policy.Location)
	res := &RunResult{PeriodYear: current.Year, PeriodMonth: current.Month}

	snap, err := s.dues.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Monthly == nil {
		res.Message = "no monthly contribution configured"
		return res, nil
	}

	for _, m := range snap.Members {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		unpaid := s.dues.Unpaid(snap, m, now)
		decision := s.policy.Evaluate(m, unpaid, now)
		switch decision {
		case Suspend:
			due := s.policy.Due(unpaid, now)
			details := fmt.Sprintf("%d unpaid month(s), oldest %s", len(due), due[0].Label())
			if err := s.members.Suspend(ctx, m.ID, now, details); err != nil {
				s.logger.Error("failed to suspend member", "member_id", m.ID, "error", err)
				continue
			}
			res.Applied++
			s.logger.Info("member suspended", "member_id", m.ID, "unpaid_months", len(due), "in_grace", m.ReactivatedAt != nil)
			s.publish(ctx, events.NewMemberSuspendedEvent(m.ID, len(due), true))
		case ClearGrace:
			if err := s.members.ClearGrace(ctx, m.ID); err != nil {
				s.logger.Error("failed to clear grace window", "member_id", m.ID, "error", err)
				continue
			}
			res.Cleared++
			s.logger.Info("grace window closed, member settled", "member_id", m.ID)
		default:
			continue
		}
		metrics.SuspensionDecisions.WithLabelValues(string(decision)).Inc()
	}

	res.Message = fmt.Sprintf("%d member(s) suspended for %s", res.Applied, current.Label())
	return res, nil
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish suspension event", "event_type", evt.EventType(), "error", err)
	}
}

var _ ServiceAPI = (*Service)(nil)
