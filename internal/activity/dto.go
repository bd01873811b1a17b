package activity

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

const (
	maxTitleLength   = 200
	maxContentLength = 5000
)

type CreateActivityDTO struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Date        string  `json:"date"`
	EndDate     *string `json:"endDate,omitempty"`
	Result      *string `json:"result,omitempty"`
}

// Validate returns the parsed start and optional end dates.
func (dto CreateActivityDTO) Validate() (time.Time, *time.Time, *errors.AppError) {
	v := validation.NewValidator()
	v.Field("type", strings.ToUpper(strings.TrimSpace(dto.Type))).Required().OneOf(Types...)
	v.Field("title", dto.Title).Required().MaxLength(maxTitleLength, errors.ErrCodeValidationFailed)
	v.Field("description", dto.Description).MaxLength(maxContentLength, errors.ErrCodeInvalidDescription)
	if err := v.Validate(); err != nil {
		return time.Time{}, nil, err
	}

	date, err := validation.ParseDate("date", dto.Date)
	if err != nil {
		return time.Time{}, nil, err
	}
	if dto.EndDate == nil || strings.TrimSpace(*dto.EndDate) == "" {
		return date, nil, nil
	}
	end, err := validation.ParseDate("endDate", *dto.EndDate)
	if err != nil {
		return time.Time{}, nil, err
	}
	if end.Before(date) {
		return time.Time{}, nil, errors.NewValidationFieldError("endDate", "endDate must not be before date", errors.ErrCodeInvalidDate)
	}
	return date, &end, nil
}

type CreateAnnouncementDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (dto CreateAnnouncementDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(maxTitleLength, errors.ErrCodeValidationFailed)
	v.Field("content", dto.Content).Required().MaxLength(maxContentLength, errors.ErrCodeValidationFailed)
	return v.Validate()
}
