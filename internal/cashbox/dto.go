package cashbox

import (
	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

const maxNameLength = 100

type CreateCashBoxDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Order       *int    `json:"order,omitempty"`
	IsDefault   bool    `json:"isDefault"`
}

func (d CreateCashBoxDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	v.Field("description", d.Description).MaxLength(validation.MaxDescriptionLen, errors.ErrCodeInvalidDescription)
	return v.Validate()
}

type UpdateCashBoxDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Order       *int    `json:"order,omitempty"`
	IsDefault   *bool   `json:"isDefault,omitempty"`
}

func (d UpdateCashBoxDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	}
	v.Field("description", d.Description).MaxLength(validation.MaxDescriptionLen, errors.ErrCodeInvalidDescription)
	return v.Validate()
}
