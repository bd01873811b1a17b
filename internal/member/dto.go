package member

import (
	"strings"

	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

const (
	maxNameLength   = 100
	minPasswordSize = 6
)

func roleRule(field string) func(interface{}) *errors.AppError {
	return func(v interface{}) *errors.AppError {
		s, _ := v.(string)
		if s == "" {
			return nil
		}
		if _, ok := auth.ParseRole(s); !ok {
			return errors.NewValidationFieldError(field, "unknown role "+s, errors.ErrCodeValidationFailed)
		}
		return nil
	}
}

type CreateMemberDTO struct {
	Phone            string  `json:"phone"`
	Password         string  `json:"password"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Role             string  `json:"role"`
	ProfilePhotoURL  *string `json:"profilePhotoUrl,omitempty"`
	Email            *string `json:"email,omitempty"`
	Neighborhood     *string `json:"neighborhood,omitempty"`
	SecondaryContact *string `json:"secondaryContact,omitempty"`
}

func (dto CreateMemberDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("phone", auth.NormalizePhone(dto.Phone)).Required()
	v.Field("password", dto.Password).Required().Custom(func(interface{}) *errors.AppError {
		if len(dto.Password) > 0 && len(dto.Password) < minPasswordSize {
			return errors.NewValidationFieldError("password", "password must be at least 6 characters", errors.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("firstName", dto.FirstName).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	v.Field("lastName", dto.LastName).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	v.Field("role", dto.Role).Required().Custom(roleRule("role"))
	return v.Validate()
}

type InviteMemberDTO struct {
	Phone string `json:"phone"`
	Role  string `json:"role,omitempty"`
}

func (dto InviteMemberDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("phone", auth.NormalizePhone(dto.Phone)).Required()
	v.Field("role", dto.Role).Custom(roleRule("role"))
	return v.Validate()
}

type CompleteProfileDTO struct {
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	ProfilePhotoURL  string  `json:"profilePhotoUrl"`
	Email            *string `json:"email,omitempty"`
	Neighborhood     *string `json:"neighborhood,omitempty"`
	SecondaryContact *string `json:"secondaryContact,omitempty"`
}

func (dto CompleteProfileDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("firstName", dto.FirstName).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	v.Field("lastName", dto.LastName).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	v.Field("profilePhotoUrl", dto.ProfilePhotoURL).Required()
	return v.Validate()
}

func (dto CompleteProfileDTO) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"first_name":        strings.TrimSpace(dto.FirstName),
		"last_name":         strings.TrimSpace(dto.LastName),
		"profile_photo_url": strings.TrimSpace(dto.ProfilePhotoURL),
		"profile_completed": true,
	}
	setOptional(fields, "email", dto.Email)
	setOptional(fields, "neighborhood", dto.Neighborhood)
	setOptional(fields, "secondary_contact", dto.SecondaryContact)
	return fields
}

// UpdateMemberDTO is an admin edit; absent fields are left alone.
type UpdateMemberDTO struct {
	Phone            *string `json:"phone,omitempty"`
	Password         *string `json:"password,omitempty"`
	FirstName        *string `json:"firstName,omitempty"`
	LastName         *string `json:"lastName,omitempty"`
	Role             *string `json:"role,omitempty"`
	ProfilePhotoURL  *string `json:"profilePhotoUrl,omitempty"`
	Email            *string `json:"email,omitempty"`
	Neighborhood     *string `json:"neighborhood,omitempty"`
	SecondaryContact *string `json:"secondaryContact,omitempty"`
	IsSuspended      *bool   `json:"isSuspended,omitempty"`
}

func (dto UpdateMemberDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Phone != nil {
		v.Field("phone", auth.NormalizePhone(*dto.Phone)).Required()
	}
	if dto.Password != nil && len(*dto.Password) < minPasswordSize {
		return errors.NewValidationFieldError("password", "password must be at least 6 characters", errors.ErrCodeValidationFailed)
	}
	if dto.FirstName != nil {
		v.Field("firstName", *dto.FirstName).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	}
	if dto.LastName != nil {
		v.Field("lastName", *dto.LastName).Required().MaxLength(maxNameLength, errors.ErrCodeValidationFailed)
	}
	if dto.Role != nil {
		v.Field("role", *dto.Role).Required().Custom(roleRule("role"))
	}
	return v.Validate()
}

// profileFields are the plain column updates; role, phone, password and
// suspension are handled by the service.
func (dto UpdateMemberDTO) profileFields() map[string]interface{} {
	fields := map[string]interface{}{}
	if dto.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*dto.FirstName)
	}
	if dto.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*dto.LastName)
	}
	setOptional(fields, "profile_photo_url", dto.ProfilePhotoURL)
	setOptional(fields, "email", dto.Email)
	setOptional(fields, "neighborhood", dto.Neighborhood)
	setOptional(fields, "secondary_contact", dto.SecondaryContact)
	return fields
}

// setOptional writes a trimmed value, or NULL for an explicit empty string.
func setOptional(fields map[string]interface{}, column string, v *string) {
	if v == nil {
		return
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		fields[column] = nil
		return
	}
	fields[column] = trimmed
}

type ListFilter struct {
	Role        *string
	Search      *string
	IsSuspended *bool
}
