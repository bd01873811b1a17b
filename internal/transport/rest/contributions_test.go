package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/cashbox"
	cashboxPostgres "github.com/frahmantamala/club-management/internal/cashbox/postgres"
	"github.com/frahmantamala/club-management/internal/contribution"
	contributionPostgres "github.com/frahmantamala/club-management/internal/contribution/postgres"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/testdb"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Contribution routes", func() {
	var router *chi.Mux

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		db, err := testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx := context.Background()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		for i, p := range []auth.Principal{principals["treasurer"], principals["player"]} {
			Expect(db.Create(&memberDatamodel.Member{
				ID:        p.MemberID,
				Phone:     "+22507000000" + string(rune('1'+i)),
				FirstName: p.MemberID,
				Role:      string(p.Role),
			}).Error).To(Succeed())
		}

		service := contribution.NewService(
			contributionPostgres.NewContributionRepository(db),
			contributionPostgres.NewStandingRepository(db),
			cashbox.NewService(cashboxPostgres.NewCashBoxRepository(db), lg),
			directory.NewGormResolver(db),
			auth.DefaultPolicy(),
			nil,
			lg,
			contribution.Options{Location: time.UTC},
		)
		amount := int64(5000)
		monthly, err := service.Create(ctx, principals["treasurer"], contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: &amount})
		Expect(err).NotTo(HaveOccurred())
		for _, p := range []auth.Principal{principals["treasurer"], principals["player"]} {
			_, err := service.RecordPayment(ctx, principals["treasurer"], contribution.RecordPaymentDTO{
				MemberID: p.MemberID, ContributionID: monthly.ID, Amount: 5000,
			})
			Expect(err).NotTo(HaveOccurred())
		}

		router = chi.NewRouter()
		RegisterAllRoutes(router, Handlers{
			Auth:          auth.NewHandler(fakeAuth{}),
			Authorizer:    auth.NewAuthorizer(auth.DefaultPolicy(), lg),
			Contributions: contribution.NewHandler(service),
		}, RouterConfig{}, lg)
	})

	paymentOwners := func(rec *httptest.ResponseRecorder) []string {
		var list []contribution.Payment
		Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
		owners := make([]string, len(list))
		for i, p := range list {
			owners[i] = p.MemberID
		}
		return owners
	}

	It("limits a player's payment listing to their own payments", func() {
		rec := do(http.MethodGet, "/api/v1/contributions/payments?memberId=m-treasurer", "player")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(paymentOwners(rec)).To(ConsistOf("m-player"))
	})

	It("lists every payment for the treasurer", func() {
		rec := do(http.MethodGet, "/api/v1/contributions/payments", "treasurer")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(paymentOwners(rec)).To(ConsistOf("m-player", "m-treasurer"))
	})

	It("forbids a player from reading another member's history", func() {
		rec := do(http.MethodGet, "/api/v1/contributions/history/member/m-treasurer", "player")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).NotTo(ContainSubstring("+225"))
	})

	It("lets a player read their own history", func() {
		Expect(do(http.MethodGet, "/api/v1/contributions/history/member/m-player", "player").Code).To(Equal(http.StatusOK))
	})

	It("lets the treasurer read any member's history", func() {
		Expect(do(http.MethodGet, "/api/v1/contributions/history/member/m-player", "treasurer").Code).To(Equal(http.StatusOK))
	})
})
