// Package suspension applies the dues based access policy:
// Active -> Suspended -> Active(grace) -> Active | Suspended.
package suspension

import (
	"time"

	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/contribution"
)

type Decision string

const (
	Keep       Decision = "keep"
	Suspend    Decision = "suspend"
	ClearGrace Decision = "clear_grace"
)

const (
	DefaultCutoffDay = 10
	DefaultGrace     = 24 * time.Hour
)

type Policy struct {
	// CutoffDay is the last day of the month the current month may stay unpaid.
	CutoffDay int
	Grace     time.Duration
	Location  *time.Location
}

func NewPolicy(cutoffDay int, grace time.Duration, loc *time.Location) Policy {
	if cutoffDay <= 0 || cutoffDay > 28 {
		cutoffDay = DefaultCutoffDay
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	if loc == nil {
		loc = time.UTC
	}
	return Policy{CutoffDay: cutoffDay, Grace: grace, Location: loc}
}

// Due keeps the unpaid months that are overdue at now: every past month, and
// the current one once the cutoff day has passed.
func (p Policy) Due(unpaid []contribution.Period, now time.Time) []contribution.Period {
	current := contribution.PeriodOf(now, p.Location)
	pastCutoff := now.In(p.Location).Day() > p.CutoffDay
	due := make([]contribution.Period, 0, len(unpaid))
	for _, period := range unpaid {
		if period.Before(current) || (period == current && pastCutoff) {
			due = append(due, period)
		}
	}
	return due
}

// GraceEndsAt is nil outside a grace window.
func (p Policy) GraceEndsAt(m *contribution.Standing) *time.Time {
	if m.ReactivatedAt == nil {
		return nil
	}
	end := m.ReactivatedAt.Add(p.Grace)
	return &end
}

// Evaluate decides what the scheduled job does to one member.
func (p Policy) Evaluate(m *contribution.Standing, unpaid []contribution.Period, now time.Time) Decision {
	if m.Role == auth.RoleAdmin || m.IsSuspended {
		return Keep
	}
	due := p.Due(unpaid, now)

	if end := p.GraceEndsAt(m); end != nil {
		if len(due) == 0 {
			return ClearGrace
		}
		if now.After(*end) {
			return Suspend
		}
		return Keep
	}

	if len(due) > 0 {
		return Suspend
	}
	return Keep
}
