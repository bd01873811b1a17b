package contribution

import (
	"fmt"
	"sort"
	"time"

	"github.com/frahmantamala/club-management/internal/auth"
)

// DefaultLookbackMonths bounds how far back unpaid months are reported.
const DefaultLookbackMonths = 12

var monthNames = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre"}

type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func PeriodOf(t time.Time, loc *time.Location) Period {
	if loc != nil {
		t = t.In(loc)
	}
	return Period{Year: t.Year(), Month: int(t.Month())}
}

func (p Period) index() int {
	return p.Year*12 + p.Month - 1
}

func periodFromIndex(i int) Period {
	return Period{Year: i / 12, Month: i%12 + 1}
}

func (p Period) AddMonths(n int) Period {
	return periodFromIndex(p.index() + n)
}

func (p Period) Before(o Period) bool {
	return p.index() < o.index()
}

// Label renders the period the way members read it, e.g. "mars 2024".
func (p Period) Label() string {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Sprintf("%d-%02d", p.Year, p.Month)
	}
	return fmt.Sprintf("%s %d", monthNames[p.Month-1], p.Year)
}

// Standing is the slice of a member that dues rules look at.
type Standing struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Phone         string     `json:"phone"`
	Role          auth.Role  `json:"role"`
	IsSuspended   bool       `json:"isSuspended"`
	SuspendedAt   *time.Time `json:"-"`
	ReactivatedAt *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"-"`
}

type ArrearsReport struct {
	PeriodYear  int         `json:"periodYear"`
	PeriodMonth int         `json:"periodMonth"`
	Members     []*Standing `json:"members"`
	Total       int         `json:"total"`
}

// AuthoritativeMonthly picks the oldest MONTHLY contribution, or nil.
func AuthoritativeMonthly(list []*Contribution) *Contribution {
	var monthly *Contribution
	for _, c := range list {
		if c.Type != TypeMonthly {
			continue
		}
		if monthly == nil || c.CreatedAt.Before(monthly.CreatedAt) ||
			(c.CreatedAt.Equal(monthly.CreatedAt) && c.ID < monthly.ID) {
			monthly = c
		}
	}
	return monthly
}

// PaidPeriods indexes the periods a member has at least one tagged payment for.
// The amount is deliberately ignored: 3000 against a 5000 minimum still marks
// the month paid.
func PaidPeriods(payments []*Payment, monthlyID string) map[string]map[Period]struct{} {
	out := make(map[string]map[Period]struct{})
	for _, p := range payments {
		if p.ContributionID != monthlyID {
			continue
		}
		period, ok := p.Period()
		if !ok {
			continue
		}
		if out[p.MemberID] == nil {
			out[p.MemberID] = make(map[Period]struct{})
		}
		out[p.MemberID][period] = struct{}{}
	}
	return out
}

// Arrears lists the non-admin members with no payment tagged for period.
func Arrears(period Period, members []*Standing, payments []*Payment, monthlyID string) *ArrearsReport {
	paid := PaidPeriods(payments, monthlyID)
	report := &ArrearsReport{
		PeriodYear:  period.Year,
		PeriodMonth: period.Month,
		Members:     []*Standing{},
	}
	for _, m := range members {
		if m.Role == auth.RoleAdmin {
			continue
		}
		if _, ok := paid[m.ID][period]; ok {
			continue
		}
		report.Members = append(report.Members, m)
	}
	sort.SliceStable(report.Members, func(i, j int) bool {
		a, b := report.Members[i], report.Members[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	})
	report.Total = len(report.Members)
	return report
}

// UnpaidMonths returns, oldest first, every period from the member's effective
// start through the current month that has no payment. The effective start is
// the later of the member's and the monthly contribution's creation month,
// clamped to the lookback window.
func UnpaidMonths(member *Standing, monthly *Contribution, payments []*Payment, now time.Time, loc *time.Location, lookback int) []Period {
	out := []Period{}
	if member == nil || monthly == nil {
		return out
	}
	if lookback <= 0 {
		lookback = DefaultLookbackMonths
	}
	current := PeriodOf(now, loc)
	start := PeriodOf(member.CreatedAt, loc)
	if since := PeriodOf(monthly.CreatedAt, loc); start.Before(since) {
		start = since
	}
	if floor := current.AddMonths(-(lookback - 1)); start.Before(floor) {
		start = floor
	}

	paid := PaidPeriods(payments, monthly.ID)[member.ID]
	for p := start; !current.Before(p); p = p.AddMonths(1) {
		if _, ok := paid[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
