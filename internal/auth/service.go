package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/frahmantamala/club-management/internal"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore reads the members table for authentication.
type CredentialStore interface {
	FindByPhone(ctx context.Context, phone string) (*memberDatamodel.Member, error)
	FindByID(ctx context.Context, id string) (*memberDatamodel.Member, error)
}

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (LoginResponse, error)
	Me(ctx context.Context, memberID string) (AuthUser, error)
	ResolvePrincipal(ctx context.Context, token string) (Principal, error)
}

type Service struct {
	store          CredentialStore
	tokenGenerator TokenGenerator
	bcryptCost     int
}

func NewService(store CredentialStore, tokenGen TokenGenerator, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:          store,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
	}
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTTokenGenerator{
		Secret:         []byte(secret),
		AccessTokenTTL: ttl,
		Issuer:         "club-management",
	}
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return LoginResponse{}, err
	}

	m, err := s.store.FindByPhone(ctx, NormalizePhone(dto.Phone))
	if err != nil {
		if stdErrors.Is(err, internal.ErrMemberNotFound) {
			return LoginResponse{}, internal.ErrInvalidCredentials
		}
		return LoginResponse{}, internal.NewInternalError("failed to load member", err)
	}

	// invited members have no password until an admin sets one
	if m.PasswordHash == "" {
		return LoginResponse{}, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(dto.Password)); err != nil {
		return LoginResponse{}, internal.ErrInvalidCredentials
	}

	p := principalFromMember(m)
	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(p.MemberID, p.Role)
	if err != nil {
		return LoginResponse{}, internal.NewInternalError("failed to sign token", err)
	}

	return LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        NewAuthUser(m),
	}, nil
}

func (s *Service) Me(ctx context.Context, memberID string) (AuthUser, error) {
	m, err := s.store.FindByID(ctx, memberID)
	if err != nil {
		return AuthUser{}, err
	}
	return NewAuthUser(m), nil
}

// ResolvePrincipal validates the token and reloads the member so that role and
// suspension changes apply on the next request.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return Principal{}, err
	}
	m, err := s.store.FindByID(ctx, claims.MemberID)
	if err != nil {
		if stdErrors.Is(err, internal.ErrMemberNotFound) {
			return Principal{}, internal.ErrInvalidToken
		}
		return Principal{}, internal.NewInternalError("failed to load member", err)
	}
	return principalFromMember(m), nil
}

func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (j *JWTTokenGenerator) GenerateAccessToken(memberID string, role Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.AccessTokenTTL)

	claims := &Claims{
		MemberID: memberID,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   memberID,
			Issuer:    j.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})

	if err != nil {
		if stdErrors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.MemberID != "" {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
