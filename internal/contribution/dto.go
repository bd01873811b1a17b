package contribution

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

type CreateContributionDTO struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Amount       *int64  `json:"amount,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
	TargetAmount *int64  `json:"targetAmount,omitempty"`
}

// Validate checks the variant specific fields and returns the parsed dates.
func (dto CreateContributionDTO) Validate() (start, end *time.Time, appErr *errors.AppError) {
	kind := Type(strings.ToUpper(strings.TrimSpace(dto.Type)))

	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200, errors.ErrCodeValidationFailed)
	v.Field("type", string(kind)).Required().
		OneOf(string(TypeMonthly), string(TypeExceptional), string(TypeProject))
	switch kind {
	case TypeMonthly:
		v.Field("amount", dto.Amount).Required().
			Positive(errors.ErrCodeInvalidAmount).
			MaxInt(validation.MaxAmount, errors.ErrCodeAmountTooHigh)
	case TypeProject:
		v.Field("targetAmount", dto.TargetAmount).Required().
			Positive(errors.ErrCodeInvalidAmount).
			MaxInt(validation.MaxAmount, errors.ErrCodeAmountTooHigh)
	case TypeExceptional:
		v.Field("startDate", dto.StartDate).Required()
		v.Field("endDate", dto.EndDate).Required()
	}
	if err := v.Validate(); err != nil {
		return nil, nil, err
	}

	if kind == TypeExceptional {
		s, err := validation.ParseDate("startDate", *dto.StartDate)
		if err != nil {
			return nil, nil, err
		}
		e, err := validation.ParseDate("endDate", *dto.EndDate)
		if err != nil {
			return nil, nil, err
		}
		if e.Before(s) {
			return nil, nil, errors.NewValidationFieldError("endDate", "endDate must not precede startDate", errors.ErrCodeInvalidDate)
		}
		start, end = &s, &e
	}
	return start, end, nil
}

type UpdateContributionDTO struct {
	Name         *string `json:"name,omitempty"`
	Amount       *int64  `json:"amount,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
	TargetAmount *int64  `json:"targetAmount,omitempty"`
}

// Fields validates the patch against the contribution variant and its stored
// window, and returns the column updates.
func (dto UpdateContributionDTO) Fields(kind Type, start, end *time.Time) (map[string]interface{}, *errors.AppError) {
	fields := map[string]interface{}{}
	locked := func(field string) *errors.AppError {
		return errors.NewValidationFieldError(field, field+" does not apply to a "+string(kind)+" contribution", errors.ErrCodeContributionTypeLocked)
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, errors.NewValidationFieldError("name", "name is required", errors.ErrCodeValidationFailed)
		}
		fields["name"] = name
	}
	if dto.Amount != nil {
		if kind != TypeMonthly {
			return nil, locked("amount")
		}
		if err := validation.ValidateAmount("amount", *dto.Amount); err != nil {
			return nil, err
		}
		fields["amount"] = *dto.Amount
	}
	if dto.Frequency != nil {
		if kind != TypeMonthly {
			return nil, locked("frequency")
		}
		fields["frequency"] = strings.TrimSpace(*dto.Frequency)
	}
	if dto.TargetAmount != nil {
		if kind != TypeProject {
			return nil, locked("targetAmount")
		}
		if err := validation.ValidateAmount("targetAmount", *dto.TargetAmount); err != nil {
			return nil, err
		}
		fields["target_amount"] = *dto.TargetAmount
	}
	for _, d := range []struct {
		field, column string
		raw           *string
		stored        **time.Time
	}{{"startDate", "start_date", dto.StartDate, &start}, {"endDate", "end_date", dto.EndDate, &end}} {
		if d.raw == nil {
			continue
		}
		if kind != TypeExceptional {
			return nil, locked(d.field)
		}
		t, err := validation.ParseDate(d.field, *d.raw)
		if err != nil {
			return nil, err
		}
		fields[d.column] = t
		*d.stored = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, errors.NewValidationFieldError("endDate", "endDate must not precede startDate", errors.ErrCodeInvalidDate)
	}
	return fields, nil
}

// RecordPaymentDTO is a payment entered by staff on behalf of a member.
type RecordPaymentDTO struct {
	MemberID       string  `json:"memberId"`
	ContributionID string  `json:"contributionId"`
	Amount         int64   `json:"amount"`
	PeriodYear     *int    `json:"periodYear,omitempty"`
	PeriodMonth    *int    `json:"periodMonth,omitempty"`
	CashBoxID      *string `json:"cashBoxId,omitempty"`
}

func (dto RecordPaymentDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("memberId", dto.MemberID).Required()
	v.Field("contributionId", dto.ContributionID).Required()
	v.Field("amount", dto.Amount).
		Positive(errors.ErrCodeInvalidAmount).
		MaxInt(validation.MaxAmount, errors.ErrCodeAmountTooHigh)
	if err := v.Validate(); err != nil {
		return err
	}
	return validatePeriodTag(dto.PeriodYear, dto.PeriodMonth)
}

// SelfPaymentDTO is a payment a member records for themselves.
type SelfPaymentDTO struct {
	ContributionID string `json:"contributionId"`
	Amount         int64  `json:"amount"`
	PeriodYear     *int   `json:"periodYear,omitempty"`
	PeriodMonth    *int   `json:"periodMonth,omitempty"`
}

func (dto SelfPaymentDTO) ForMember(memberID string) RecordPaymentDTO {
	return RecordPaymentDTO{
		MemberID:       memberID,
		ContributionID: dto.ContributionID,
		Amount:         dto.Amount,
		PeriodYear:     dto.PeriodYear,
		PeriodMonth:    dto.PeriodMonth,
	}
}

func validatePeriodTag(year, month *int) *errors.AppError {
	if year == nil && month == nil {
		return nil
	}
	if year == nil || month == nil {
		return errors.NewValidationFieldError("periodMonth", "periodYear and periodMonth go together", errors.ErrCodeInvalidPeriod)
	}
	return validation.ValidatePeriod(*year, *month)
}

type PaymentFilter struct {
	MemberID       *string
	ContributionID *string
	Year           *int
	Month          *int
	Limit          int
}
