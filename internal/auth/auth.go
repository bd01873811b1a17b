package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/club-management/internal"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated member attached to a request.
type Principal struct {
	MemberID    string
	Role        Role
	IsSuspended bool
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Blocked reports whether the suspension gate applies. ADMIN is never blocked.
func (p Principal) Blocked() bool {
	return p.IsSuspended && !p.IsAdmin()
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	ctx = internal.ContextWithMemberID(ctx, p.MemberID)
	return internal.ContextWithRole(ctx, string(p.Role))
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Claims represents JWT token claims
type Claims struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates access tokens.
type TokenGenerator interface {
	GenerateAccessToken(memberID string, role Role) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	Secret         []byte
	AccessTokenTTL time.Duration
	Issuer         string
}

// AuthUser is the member view returned by login and /auth/me.
type AuthUser struct {
	ID               string     `json:"id"`
	Phone            string     `json:"phone"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Role             string     `json:"role"`
	ProfileCompleted bool       `json:"profileCompleted"`
	ProfilePhotoURL  *string    `json:"profilePhotoUrl"`
	Email            *string    `json:"email"`
	IsSuspended      bool       `json:"isSuspended"`
	ReactivatedAt    *time.Time `json:"reactivatedAt"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        AuthUser  `json:"user"`
}

func NewAuthUser(m *memberDatamodel.Member) AuthUser {
	return AuthUser{
		ID:               m.ID,
		Phone:            m.Phone,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Role:             m.Role,
		ProfileCompleted: m.ProfileCompleted,
		ProfilePhotoURL:  m.ProfilePhotoURL,
		Email:            m.Email,
		IsSuspended:      m.IsSuspended,
		ReactivatedAt:    m.ReactivatedAt,
	}
}

func principalFromMember(m *memberDatamodel.Member) Principal {
	role, ok := ParseRole(m.Role)
	if !ok {
		role = RoleSupporter
	}
	return Principal{MemberID: m.ID, Role: role, IsSuspended: m.IsSuspended}
}
