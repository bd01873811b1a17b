package auth

import (
	"strings"
	"unicode"

	errors "github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("phone", d.Phone).Required()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

// NormalizePhone drops separators so "+225 07 00-00" and "+2250700 00" match.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
