package contribution

import (
	"time"

	contributionDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/contribution"
	"github.com/frahmantamala/club-management/internal/core/directory"
)

type Type string

const (
	TypeMonthly     Type = "MONTHLY"
	TypeExceptional Type = "EXCEPTIONAL"
	TypeProject     Type = "PROJECT"
)

type Contribution struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           Type       `json:"type"`
	Amount         *int64     `json:"amount"`
	Frequency      *string    `json:"frequency"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	TargetAmount   *int64     `json:"targetAmount"`
	ReceivedAmount *int64     `json:"receivedAmount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Ref is the short form embedded in payments.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Type   `json:"type"`
}

type Payment struct {
	ID             string               `json:"id"`
	MemberID       string               `json:"memberId"`
	Member         *directory.MemberRef `json:"member,omitempty"`
	ContributionID string               `json:"contributionId"`
	Contribution   *Ref                 `json:"contribution,omitempty"`
	Amount         int64                `json:"amount"`
	PaidAt         time.Time            `json:"paidAt"`
	PeriodYear     *int                 `json:"periodYear"`
	PeriodMonth    *int                 `json:"periodMonth"`
	CashBoxID      *string              `json:"cashBoxId"`
	CashBox        *directory.BoxRef    `json:"cashBox,omitempty"`
	RecordedByID   *string              `json:"recordedById"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// Period returns the (year, month) tag, if any.
func (p *Payment) Period() (Period, bool) {
	if p.PeriodYear == nil || p.PeriodMonth == nil {
		return Period{}, false
	}
	return Period{Year: *p.PeriodYear, Month: *p.PeriodMonth}, true
}

func ToDataModel(c *Contribution) *contributionDatamodel.Contribution {
	row := &contributionDatamodel.Contribution{
		ID:           c.ID,
		Name:         c.Name,
		Type:         string(c.Type),
		Amount:       c.Amount,
		Frequency:    c.Frequency,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		TargetAmount: c.TargetAmount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.ReceivedAmount != nil {
		row.ReceivedAmount = *c.ReceivedAmount
	}
	return row
}

func FromDataModel(row *contributionDatamodel.Contribution) *Contribution {
	c := &Contribution{
		ID:           row.ID,
		Name:         row.Name,
		Type:         Type(row.Type),
		Amount:       row.Amount,
		Frequency:    row.Frequency,
		StartDate:    row.StartDate,
		EndDate:      row.EndDate,
		TargetAmount: row.TargetAmount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if c.Type == TypeProject {
		received := row.ReceivedAmount
		c.ReceivedAmount = &received
	}
	return c
}

func FromDataModelSlice(rows []*contributionDatamodel.Contribution) []*Contribution {
	out := make([]*Contribution, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}

func PaymentToDataModel(p *Payment) *contributionDatamodel.Payment {
	return &contributionDatamodel.Payment{
		ID:             p.ID,
		MemberID:       p.MemberID,
		ContributionID: p.ContributionID,
		Amount:         p.Amount,
		PaidAt:         p.PaidAt,
		PeriodYear:     p.PeriodYear,
		PeriodMonth:    p.PeriodMonth,
		CashBoxID:      p.CashBoxID,
		RecordedByID:   p.RecordedByID,
		CreatedAt:      p.CreatedAt,
	}
}

func PaymentFromDataModel(row *contributionDatamodel.Payment) *Payment {
	return &Payment{
		ID:             row.ID,
		MemberID:       row.MemberID,
		ContributionID: row.ContributionID,
		Amount:         row.Amount,
		PaidAt:         row.PaidAt,
		PeriodYear:     row.PeriodYear,
		PeriodMonth:    row.PeriodMonth,
		CashBoxID:      row.CashBoxID,
		RecordedByID:   row.RecordedByID,
		CreatedAt:      row.CreatedAt,
	}
}

func PaymentsFromDataModel(rows []*contributionDatamodel.Payment) []*Payment {
	out := make([]*Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, PaymentFromDataModel(row))
	}
	return out
}
