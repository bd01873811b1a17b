package report

import (
	"time"

	"github.com/frahmantamala/club-management/internal/contribution"
)

type Period struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
}

func periodOf(year, month int) Period {
	p := contribution.Period{Year: year, Month: month}
	return Period{Year: year, Month: month, Label: p.Label()}
}

// Totals holds the approved money in and out of the club over a range.
type Totals struct {
	TotalEntries int64 `json:"totalEntries"`
	TotalExits   int64 `json:"totalExits"`
	Solde        int64 `json:"solde"`
}

func newTotals(entries, exits int64) Totals {
	return Totals{TotalEntries: entries, TotalExits: exits, Solde: entries - exits}
}

type Person struct {
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Phone     string `json:"phone,omitempty" db:"phone"`
}

type PaymentLine struct {
	ID           string    `json:"id" db:"id"`
	Amount       int64     `json:"amount" db:"amount"`
	PaidAt       time.Time `json:"paidAt" db:"paid_at"`
	Member       Person    `json:"member" db:"member"`
	Contribution struct {
		Name string `json:"name" db:"name"`
	} `json:"contribution" db:"contribution"`
}

type ExpenseLine struct {
	ID          string    `json:"id" db:"id"`
	Amount      int64     `json:"amount" db:"amount"`
	ExpenseDate time.Time `json:"expenseDate" db:"expense_date"`
	Description string    `json:"description" db:"description"`
	RequestedBy Person    `json:"requestedBy" db:"requested_by"`
}

type MonthlyReport struct {
	Period Period `json:"period"`
	Totals
	Payments []PaymentLine `json:"payments"`
	Expenses []ExpenseLine `json:"expenses"`
}

type AnnualMonth struct {
	Period
	Totals
}

type AnnualReport struct {
	Year   int           `json:"year"`
	Months []AnnualMonth `json:"months"`
	Totals
}
