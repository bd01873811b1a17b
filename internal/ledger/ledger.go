// Package ledger derives the cash book and box balances from payments,
// expenses and transfers. Nothing here is persisted.
package ledger

import (
	"sort"
	"time"

	"github.com/frahmantamala/club-management/internal/cashbox"
	"github.com/frahmantamala/club-management/internal/contribution"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/expense"
	"github.com/frahmantamala/club-management/internal/transfer"
)

type Direction string

const (
	Entry Direction = "entree"
	Exit  Direction = "sortie"
)

type Kind string

const (
	KindPayment    Kind = "payment"
	KindAllocation Kind = "allocation"
	KindExpense    Kind = "expense"
	KindWithdrawal Kind = "withdrawal"
)

// Line is one row of the cash book.
type Line struct {
	Direction              Direction            `json:"type"`
	Kind                   Kind                 `json:"kind"`
	ID                     string               `json:"id"`
	Date                   time.Time            `json:"date"`
	Amount                 int64                `json:"amount"`
	CashBoxID              string               `json:"cashBoxId"`
	CashBox                *string              `json:"cashBox"`
	Label                  *string              `json:"label,omitempty"`
	Description            *string              `json:"description,omitempty"`
	Contribution           *string              `json:"contribution,omitempty"`
	Member                 *directory.MemberRef `json:"member,omitempty"`
	PeriodYear             *int                 `json:"periodYear,omitempty"`
	PeriodMonth            *int                 `json:"periodMonth,omitempty"`
	Beneficiary            *string              `json:"beneficiary,omitempty"`
	ExpenseDate            *time.Time           `json:"expenseDate,omitempty"`
	RequestedBy            *directory.MemberRef `json:"requestedBy,omitempty"`
	TreasurerApprovedBy    *directory.MemberRef `json:"treasurerApprovedBy,omitempty"`
	CommissionerApprovedBy *directory.MemberRef `json:"commissionerApprovedBy,omitempty"`
}

type resolver struct {
	names      map[string]string
	defaultBox *cashbox.CashBox
}

func newResolver(boxes []*cashbox.CashBox) resolver {
	r := resolver{names: make(map[string]string, len(boxes)), defaultBox: cashbox.DefaultOf(boxes)}
	for _, b := range boxes {
		r.names[b.ID] = b.Name
	}
	return r
}

// box maps a line's box to a known box; nil and unknown ids fall back to the default.
func (r resolver) box(id *string) (string, *string) {
	if id != nil {
		if name, ok := r.names[*id]; ok {
			return *id, &name
		}
	}
	if r.defaultBox == nil {
		return "", nil
	}
	name := r.defaultBox.Name
	return r.defaultBox.ID, &name
}

// Build projects the inputs into cash book lines, newest first. Payments always
// count; expenses and transfers only once approved. limit <= 0 keeps every line.
func Build(payments []*contribution.Payment, expenses []*expense.Expense, transfers []*transfer.Transfer, boxes []*cashbox.CashBox, limit int) []Line {
	res := newResolver(boxes)
	lines := make([]Line, 0, len(payments)+len(expenses)+len(transfers))

	for _, p := range payments {
		l := Line{
			Direction:   Entry,
			Kind:        KindPayment,
			ID:          p.ID,
			Date:        p.PaidAt,
			Amount:      p.Amount,
			Member:      p.Member,
			PeriodYear:  p.PeriodYear,
			PeriodMonth: p.PeriodMonth,
		}
		if p.Contribution != nil {
			name := p.Contribution.Name
			l.Contribution = &name
			l.Label = &name
		}
		l.CashBoxID, l.CashBox = res.box(p.CashBoxID)
		lines = append(lines, l)
	}

	for _, e := range expenses {
		if !e.Countable() {
			continue
		}
		date := e.ExpenseDate
		desc := e.Description
		l := Line{
			Direction:              Exit,
			Kind:                   KindExpense,
			ID:                     e.ID,
			Date:                   date,
			Amount:                 e.Amount,
			Label:                  &desc,
			Description:            &desc,
			Beneficiary:            e.Beneficiary,
			ExpenseDate:            &date,
			RequestedBy:            e.RequestedBy,
			TreasurerApprovedBy:    e.TreasurerApprovedBy,
			CommissionerApprovedBy: e.CommissionerApprovedBy,
		}
		l.CashBoxID, l.CashBox = res.box(e.CashBoxID)
		lines = append(lines, l)
	}

	for _, t := range transfers {
		if !t.Status.Countable() {
			continue
		}
		l := Line{
			Direction:              Entry,
			Kind:                   KindAllocation,
			ID:                     t.ID,
			Date:                   t.CreatedAt,
			Amount:                 t.Amount,
			Label:                  t.Description,
			Description:            t.Description,
			RequestedBy:            t.RequestedBy,
			TreasurerApprovedBy:    t.TreasurerApprovedBy,
			CommissionerApprovedBy: t.CommissionerApprovedBy,
		}
		if t.CommissionerApprovedAt != nil {
			l.Date = *t.CommissionerApprovedAt
		}
		if t.Type == transfer.TypeWithdrawal {
			l.Direction, l.Kind = Exit, KindWithdrawal
		}
		l.CashBoxID, l.CashBox = res.box(t.CashBoxID())
		lines = append(lines, l)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.After(lines[j].Date)
		}
		return lines[i].ID > lines[j].ID
	})
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	return lines
}

type Totals struct {
	Balance      int64 `json:"solde"`
	TotalEntries int64 `json:"totalEntries"`
	TotalExits   int64 `json:"totalExits"`
}

func (t *Totals) add(l Line) {
	if l.Direction == Entry {
		t.TotalEntries += l.Amount
	} else {
		t.TotalExits += l.Amount
	}
	t.Balance = t.TotalEntries - t.TotalExits
}

type BoxSummary struct {
	*cashbox.CashBox
	Totals
}

type Summary struct {
	Boxes            []BoxSummary `json:"boxes"`
	DefaultCashBoxID *string      `json:"defaultCashBoxId"`
	Global           Totals       `json:"global"`
	LastUpdated      time.Time    `json:"lastUpdated"`
}

// Aggregate sums lines per box and globally. Lines must come from Build over
// the same boxes so their box ids are already resolved.
func Aggregate(lines []Line, boxes []*cashbox.CashBox) Summary {
	sorted := make([]*cashbox.CashBox, len(boxes))
	copy(sorted, boxes)
	cashbox.SortBoxes(sorted)

	perBox := make(map[string]*Totals, len(sorted))
	for _, b := range sorted {
		perBox[b.ID] = &Totals{}
	}

	var out Summary
	for _, l := range lines {
		out.Global.add(l)
		if t, ok := perBox[l.CashBoxID]; ok {
			t.add(l)
		}
	}

	out.Boxes = make([]BoxSummary, 0, len(sorted))
	for _, b := range sorted {
		out.Boxes = append(out.Boxes, BoxSummary{CashBox: b, Totals: *perBox[b.ID]})
	}
	if def := cashbox.DefaultOf(sorted); def != nil {
		id := def.ID
		out.DefaultCashBoxID = &id
	}
	return out
}
