package expense

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

// CreateExpenseDTO represents the request payload for creating an expense
type CreateExpenseDTO struct {
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
	ExpenseDate string  `json:"expenseDate"`
	Beneficiary *string `json:"beneficiary,omitempty"`
	CashBoxID   *string `json:"cashBoxId,omitempty"`
}

// Validate checks the payload and returns the parsed expense date.
func (dto CreateExpenseDTO) Validate(now time.Time) (time.Time, *errors.AppError) {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).
		Positive(errors.ErrCodeInvalidAmount).
		MaxInt(validation.MaxAmount, errors.ErrCodeAmountTooHigh)
	v.Field("description", dto.Description).
		Required().
		MaxLength(validation.MaxDescriptionLen, errors.ErrCodeInvalidDescription)
	v.Field("beneficiary", dto.Beneficiary).MaxLength(200, errors.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return time.Time{}, err
	}

	date, err := validation.ParseDate("expenseDate", dto.ExpenseDate)
	if err != nil {
		return time.Time{}, err
	}
	// a calendar date later today is still today
	if date.After(now.Add(24 * time.Hour)) {
		return time.Time{}, errors.NewValidationFieldError("expenseDate", "expense date cannot be in the future", errors.ErrCodeInvalidDate)
	}
	return date, nil
}

func (dto CreateExpenseDTO) normalized() CreateExpenseDTO {
	dto.Description = strings.TrimSpace(dto.Description)
	dto.Beneficiary = trimOptional(dto.Beneficiary)
	dto.CashBoxID = trimOptional(dto.CashBoxID)
	return dto
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

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
