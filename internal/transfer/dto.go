package transfer

import (
	"strings"

	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

type CreateTransferDTO struct {
	Type        string  `json:"type"`
	CashBoxID   string  `json:"cashBoxId"`
	Amount      int64   `json:"amount"`
	Description *string `json:"description,omitempty"`
}

func (dto CreateTransferDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("type", strings.ToUpper(strings.TrimSpace(dto.Type))).
		Required().
		OneOf(string(TypeAllocation), string(TypeWithdrawal))
	v.Field("cashBoxId", dto.CashBoxID).Required()
	v.Field("amount", dto.Amount).
		Positive(errors.ErrCodeInvalidAmount).
		MaxInt(validation.MaxAmount, errors.ErrCodeAmountTooHigh)
	v.Field("description", dto.Description).MaxLength(validation.MaxDescriptionLen, errors.ErrCodeInvalidDescription)
	return v.Validate()
}

// RejectDTO carries the optional rejection reason.
type RejectDTO struct {
	Motif string `json:"motif"`
}

type ListFilter struct {
	CashBoxID *string
	// IncludeUnassigned also matches rows without a box; set when CashBoxID is the default box.
	IncludeUnassigned bool
	Status            *string
	Limit             int
}
