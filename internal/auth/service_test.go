package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frahmantamala/club-management/internal"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockCredentialStore struct {
	byPhone map[string]*memberDatamodel.Member
	byID    map[string]*memberDatamodel.Member
}

func newMockCredentialStore() *mockCredentialStore {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
	members := []*memberDatamodel.Member{
		{ID: "m-admin", Phone: "+2250700000001", PasswordHash: string(hash), Role: "ADMIN", IsSuspended: true},
		{ID: "m-treasurer", Phone: "+2250700000002", PasswordHash: string(hash), Role: "TREASURER"},
		{ID: "m-player", Phone: "+2250700000003", PasswordHash: string(hash), Role: "PLAYER", IsSuspended: true},
		{ID: "m-invited", Phone: "+2250700000004", Role: "SUPPORTER"},
	}
	s := &mockCredentialStore{
		byPhone: map[string]*memberDatamodel.Member{},
		byID:    map[string]*memberDatamodel.Member{},
	}
	for _, m := range members {
		s.byPhone[m.Phone] = m
		s.byID[m.ID] = m
	}
	return s
}

func (m *mockCredentialStore) FindByPhone(_ context.Context, phone string) (*memberDatamodel.Member, error) {
	if mem, ok := m.byPhone[phone]; ok {
		return mem, nil
	}
	return nil, internal.ErrMemberNotFound
}

func (m *mockCredentialStore) FindByID(_ context.Context, id string) (*memberDatamodel.Member, error) {
	if mem, ok := m.byID[id]; ok {
		return mem, nil
	}
	return nil, internal.ErrMemberNotFound
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		store    *mockCredentialStore
		tokenGen *JWTTokenGenerator
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = newMockCredentialStore()
		tokenGen = NewJWTTokenGenerator("test-secret-that-is-long-enough-000", time.Hour)
		service = NewService(store, tokenGen, bcrypt.MinCost)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("returns a token and the member view", func() {
			resp, err := service.Login(ctx, LoginDTO{Phone: "+225 07 00 00 00 02", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(resp.User.ID).To(gomega.Equal("m-treasurer"))
			gomega.Expect(resp.User.Role).To(gomega.Equal("TREASURER"))

			claims, err := tokenGen.ValidateToken(resp.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.MemberID).To(gomega.Equal("m-treasurer"))
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Login(ctx, LoginDTO{Phone: "+2250700000002", Password: "nope"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidCredentials))
		})

		ginkgo.It("rejects an unknown phone", func() {
			_, err := service.Login(ctx, LoginDTO{Phone: "+2250799999999", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidCredentials))
		})

		ginkgo.It("rejects invited members without a password", func() {
			_, err := service.Login(ctx, LoginDTO{Phone: "+2250700000004", Password: ""})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
		})

		ginkgo.It("lets suspended members log in", func() {
			resp, err := service.Login(ctx, LoginDTO{Phone: "+2250700000003", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.User.IsSuspended).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("ResolvePrincipal", func() {
		ginkgo.It("reloads the member on every call", func() {
			token, _, err := tokenGen.GenerateAccessToken("m-treasurer", RoleTreasurer)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			store.byID["m-treasurer"].Role = "COMMISSIONER"
			p, err := service.ResolvePrincipal(ctx, token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.Role).To(gomega.Equal(RoleCommissioner))
		})

		ginkgo.It("rejects tokens of deleted members", func() {
			token, _, _ := tokenGen.GenerateAccessToken("m-gone", RolePlayer)
			_, err := service.ResolvePrincipal(ctx, token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("reports expired tokens", func() {
			expired := NewJWTTokenGenerator("test-secret-that-is-long-enough-000", time.Nanosecond)
			token, _, _ := expired.GenerateAccessToken("m-treasurer", RoleTreasurer)
			time.Sleep(1100 * time.Millisecond)
			_, err := service.ResolvePrincipal(ctx, token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("rejects tokens signed with another secret", func() {
			other := NewJWTTokenGenerator("another-secret-that-is-long-enough0", time.Hour)
			token, _, _ := other.GenerateAccessToken("m-treasurer", RoleTreasurer)
			_, err := service.ResolvePrincipal(ctx, token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})
	})

	ginkgo.Describe("middlewares", func() {
		var (
			handler *Handler
			ok      http.Handler
		)

		ginkgo.BeforeEach(func() {
			handler = NewHandler(service)
			ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})

		serve := func(h http.Handler, memberID string, role Role) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/caisse", nil)
			if memberID != "" {
				token, _, _ := tokenGen.GenerateAccessToken(memberID, role)
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		ginkgo.It("returns 401 without a token", func() {
			rec := serve(handler.Authenticate(ok), "", "")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("blocks suspended members with a suspended message", func() {
			rec := serve(handler.Authenticate(handler.RequireActive(ok)), "m-player", RolePlayer)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("suspended"))
		})

		ginkgo.It("lets a suspended member reach the regularization surface", func() {
			rec := serve(handler.Authenticate(ok), "m-player", RolePlayer)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("never blocks ADMIN", func() {
			rec := serve(handler.Authenticate(handler.RequireActive(ok)), "m-admin", RoleAdmin)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("enforces capabilities", func() {
			authz := NewAuthorizer(DefaultPolicy(), nil)
			guarded := handler.Authenticate(authz.RequireCapability(ActionValidateCommissioner)(ok))

			gomega.Expect(serve(guarded, "m-treasurer", RoleTreasurer).Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(serve(guarded, "m-admin", RoleAdmin).Code).To(gomega.Equal(http.StatusNoContent))
		})
	})
})

var _ = ginkgo.Describe("Policy", func() {
	policy := DefaultPolicy()

	ginkgo.DescribeTable("Can",
		func(role Role, action Action, expected bool) {
			gomega.Expect(policy.Can(role, action)).To(gomega.Equal(expected))
		},
		ginkgo.Entry("admin creates transfers", RoleAdmin, ActionCreateTransfer, true),
		ginkgo.Entry("treasurer cannot create transfers", RoleTreasurer, ActionCreateTransfer, false),
		ginkgo.Entry("treasurer validates first level", RoleTreasurer, ActionValidateTreasurer, true),
		ginkgo.Entry("commissioner cannot validate first level", RoleCommissioner, ActionValidateTreasurer, false),
		ginkgo.Entry("commissioner validates second level", RoleCommissioner, ActionValidateCommissioner, true),
		ginkgo.Entry("president views arrears", RolePresident, ActionViewArrears, true),
		ginkgo.Entry("player views nothing", RolePlayer, ActionViewCaisse, false),
	)

	ginkgo.It("lists holders with ADMIN first", func() {
		gomega.Expect(policy.Holders(ActionValidateCommissioner)).To(gomega.Equal([]Role{RoleAdmin, RoleCommissioner}))
	})

	ginkgo.It("normalizes phones", func() {
		gomega.Expect(NormalizePhone(" +225 07-00.00 00 01 ")).To(gomega.Equal("+2250700000001"))
	})
})
