package expense

import (
	"time"

	"github.com/frahmantamala/club-management/internal/approval"
	expenseDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/expense"
	"github.com/frahmantamala/club-management/internal/core/directory"
)

type Expense struct {
	ID                     string               `json:"id"`
	Amount                 int64                `json:"amount"`
	Description            string               `json:"description"`
	ExpenseDate            time.Time            `json:"expenseDate"`
	Beneficiary            *string              `json:"beneficiary"`
	Status                 approval.Status      `json:"status"`
	CashBoxID              *string              `json:"cashBoxId"`
	CashBox                *directory.BoxRef    `json:"cashBox"`
	RequestedByID          string               `json:"requestedById"`
	RequestedBy            *directory.MemberRef `json:"requestedBy"`
	TreasurerApprovedByID  *string              `json:"treasurerApprovedById"`
	TreasurerApprovedBy    *directory.MemberRef `json:"treasurerApprovedBy"`
	TreasurerApprovedAt    *time.Time           `json:"treasurerApprovedAt"`
	CommissionerApprovedID *string              `json:"commissionerApprovedById"`
	CommissionerApprovedBy *directory.MemberRef `json:"commissionerApprovedBy"`
	CommissionerApprovedAt *time.Time           `json:"commissionerApprovedAt"`
	RejectedByID           *string              `json:"rejectedById"`
	RejectedAt             *time.Time           `json:"rejectedAt"`
	RejectReason           *string              `json:"rejectReason"`
	CreatedAt              time.Time            `json:"createdAt"`
	UpdatedAt              time.Time            `json:"updatedAt"`
}

func (e *Expense) Record() approval.Record {
	return approval.Record{
		Status:                 e.Status,
		TreasurerApprovedBy:    e.TreasurerApprovedByID,
		TreasurerApprovedAt:    e.TreasurerApprovedAt,
		CommissionerApprovedBy: e.CommissionerApprovedID,
		CommissionerApprovedAt: e.CommissionerApprovedAt,
		RejectedBy:             e.RejectedByID,
		RejectedAt:             e.RejectedAt,
		RejectReason:           e.RejectReason,
	}
}

func (e *Expense) SetRecord(rec approval.Record) {
	e.Status = rec.Status
	e.TreasurerApprovedByID = rec.TreasurerApprovedBy
	e.TreasurerApprovedAt = rec.TreasurerApprovedAt
	e.CommissionerApprovedID = rec.CommissionerApprovedBy
	e.CommissionerApprovedAt = rec.CommissionerApprovedAt
	e.RejectedByID = rec.RejectedBy
	e.RejectedAt = rec.RejectedAt
	e.RejectReason = rec.RejectReason
}

// Countable reports whether the expense reduces its box balance.
func (e *Expense) Countable() bool {
	return e.Status.Countable()
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:                     e.ID,
		Amount:                 e.Amount,
		Description:            e.Description,
		ExpenseDate:            e.ExpenseDate,
		Beneficiary:            e.Beneficiary,
		CashBoxID:              e.CashBoxID,
		RequestedByID:          e.RequestedByID,
		Status:                 string(e.Status),
		RejectReason:           e.RejectReason,
		TreasurerApprovedByID:  e.TreasurerApprovedByID,
		TreasurerApprovedAt:    e.TreasurerApprovedAt,
		CommissionerApprovedBy: e.CommissionerApprovedID,
		CommissionerApprovedAt: e.CommissionerApprovedAt,
		RejectedByID:           e.RejectedByID,
		RejectedAt:             e.RejectedAt,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:                     e.ID,
		Amount:                 e.Amount,
		Description:            e.Description,
		ExpenseDate:            e.ExpenseDate,
		Beneficiary:            e.Beneficiary,
		Status:                 approval.Status(e.Status),
		CashBoxID:              e.CashBoxID,
		RequestedByID:          e.RequestedByID,
		TreasurerApprovedByID:  e.TreasurerApprovedByID,
		TreasurerApprovedAt:    e.TreasurerApprovedAt,
		CommissionerApprovedID: e.CommissionerApprovedBy,
		CommissionerApprovedAt: e.CommissionerApprovedAt,
		RejectedByID:           e.RejectedByID,
		RejectedAt:             e.RejectedAt,
		RejectReason:           e.RejectReason,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
