package notification

import (
	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

const maxMessageLength = 1000

type ConfirmPaymentDTO struct {
	MemberID    string `json:"memberId"`
	Amount      int64  `json:"amount"`
	PeriodLabel string `json:"periodLabel"`
}

func (dto ConfirmPaymentDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("memberId", dto.MemberID).Required()
	v.Field("amount", dto.Amount).Positive(errors.ErrCodeInvalidAmount).MaxInt(validation.MaxAmount, errors.ErrCodeAmountTooHigh)
	return v.Validate()
}

type RemindCotisationDTO struct {
	MemberID    string `json:"memberId"`
	PeriodLabel string `json:"periodLabel"`
}

func (dto RemindCotisationDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("memberId", dto.MemberID).Required()
	v.Field("periodLabel", dto.PeriodLabel).Required()
	return v.Validate()
}

// RemindAllArrearsDTO broadcasts Message to every member behind for the
// period. {firstName} and {period} are substituted per recipient.
type RemindAllArrearsDTO struct {
	Year    *int    `json:"year,omitempty"`
	Month   *int    `json:"month,omitempty"`
	Message string  `json:"message"`
	Title   *string `json:"title,omitempty"`
}

func (dto RemindAllArrearsDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("message", dto.Message).Required().MaxLength(maxMessageLength, errors.ErrCodeValidationFailed)
	v.Field("title", dto.Title).MaxLength(200, errors.ErrCodeValidationFailed)
	return v.Validate()
}

type LogFilter struct {
	MemberID *string
	Limit    int
}

type Ack struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type BroadcastResult struct {
	Sent    int    `json:"sent"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type Status struct {
	GatewayConfigured bool `json:"gatewayConfigured"`
}
