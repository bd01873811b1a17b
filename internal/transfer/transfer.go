package transfer

import (
	"time"

	"github.com/frahmantamala/club-management/internal/approval"
	transferDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/transfer"
	"github.com/frahmantamala/club-management/internal/core/directory"
)

type Type string

const (
	// TypeAllocation credits a box once approved.
	TypeAllocation Type = "ALLOCATION"
	// TypeWithdrawal debits a box once approved.
	TypeWithdrawal Type = "WITHDRAWAL"
)

type Transfer struct {
	ID                     string               `json:"id"`
	Type                   Type                 `json:"type"`
	Amount                 int64                `json:"amount"`
	Description            *string              `json:"description"`
	Status                 approval.Status      `json:"status"`
	FromCashBoxID          *string              `json:"fromCashBoxId"`
	FromCashBox            *directory.BoxRef    `json:"fromCashBox"`
	ToCashBoxID            *string              `json:"toCashBoxId"`
	ToCashBox              *directory.BoxRef    `json:"toCashBox"`
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

// CashBoxID is the box the transfer moves money in or out of.
func (t *Transfer) CashBoxID() *string {
	if t.Type == TypeWithdrawal {
		return t.FromCashBoxID
	}
	return t.ToCashBoxID
}

func (t *Transfer) Record() approval.Record {
	return approval.Record{
		Status:                 t.Status,
		TreasurerApprovedBy:    t.TreasurerApprovedByID,
		TreasurerApprovedAt:    t.TreasurerApprovedAt,
		CommissionerApprovedBy: t.CommissionerApprovedID,
		CommissionerApprovedAt: t.CommissionerApprovedAt,
		RejectedBy:             t.RejectedByID,
		RejectedAt:             t.RejectedAt,
		RejectReason:           t.RejectReason,
	}
}

func (t *Transfer) SetRecord(rec approval.Record) {
	t.Status = rec.Status
	t.TreasurerApprovedByID = rec.TreasurerApprovedBy
	t.TreasurerApprovedAt = rec.TreasurerApprovedAt
	t.CommissionerApprovedID = rec.CommissionerApprovedBy
	t.CommissionerApprovedAt = rec.CommissionerApprovedAt
	t.RejectedByID = rec.RejectedBy
	t.RejectedAt = rec.RejectedAt
	t.RejectReason = rec.RejectReason
}

func ToDataModel(t *Transfer) *transferDatamodel.CashBoxTransfer {
	return &transferDatamodel.CashBoxTransfer{
		ID:                     t.ID,
		Type:                   string(t.Type),
		Amount:                 t.Amount,
		Description:            t.Description,
		FromCashBoxID:          t.FromCashBoxID,
		ToCashBoxID:            t.ToCashBoxID,
		RequestedByID:          t.RequestedByID,
		Status:                 string(t.Status),
		RejectReason:           t.RejectReason,
		TreasurerApprovedByID:  t.TreasurerApprovedByID,
		TreasurerApprovedAt:    t.TreasurerApprovedAt,
		CommissionerApprovedBy: t.CommissionerApprovedID,
		CommissionerApprovedAt: t.CommissionerApprovedAt,
		RejectedByID:           t.RejectedByID,
		RejectedAt:             t.RejectedAt,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}

func FromDataModel(t *transferDatamodel.CashBoxTransfer) *Transfer {
	return &Transfer{
		ID:                     t.ID,
		Type:                   Type(t.Type),
		Amount:                 t.Amount,
		Description:            t.Description,
		Status:                 approval.Status(t.Status),
		FromCashBoxID:          t.FromCashBoxID,
		ToCashBoxID:            t.ToCashBoxID,
		RequestedByID:          t.RequestedByID,
		TreasurerApprovedByID:  t.TreasurerApprovedByID,
		TreasurerApprovedAt:    t.TreasurerApprovedAt,
		CommissionerApprovedID: t.CommissionerApprovedBy,
		CommissionerApprovedAt: t.CommissionerApprovedAt,
		RejectedByID:           t.RejectedByID,
		RejectedAt:             t.RejectedAt,
		RejectReason:           t.RejectReason,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*transferDatamodel.CashBoxTransfer) []*Transfer {
	result := make([]*Transfer, len(rows))
	for i, t := range rows {
		result[i] = FromDataModel(t)
	}
	return result
}
