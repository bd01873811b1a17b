package postgres_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/cashbox"
	cashboxPostgres "github.com/frahmantamala/club-management/internal/cashbox/postgres"
	"github.com/frahmantamala/club-management/internal/contribution"
	contributionPostgres "github.com/frahmantamala/club-management/internal/contribution/postgres"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/testdb"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestContributionRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Contribution Repository Suite")
}

func int64p(v int64) *int64 { return &v }
func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

var _ = Describe("Contribution service on sqlite", func() {
	var (
		db        *gorm.DB
		service   *contribution.Service
		ctx       context.Context
		treasurer = auth.Principal{MemberID: "tres", Role: auth.RoleTreasurer}
		player    = auth.Principal{MemberID: "player", Role: auth.RolePlayer}
	)

	seedMember := func(id string, role auth.Role, reactivatedAt *time.Time) {
		Expect(db.Create(&memberDatamodel.Member{
			ID:            id,
			Phone:         "+221" + id,
			FirstName:     id,
			LastName:      "Test",
			Role:          string(role),
			ReactivatedAt: reactivatedAt,
		}).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		boxes := cashbox.NewService(cashboxPostgres.NewCashBoxRepository(db), lg)
		service = contribution.NewService(
			contributionPostgres.NewContributionRepository(db),
			contributionPostgres.NewStandingRepository(db),
			boxes,
			directory.NewGormResolver(db),
			auth.DefaultPolicy(),
			nil,
			lg,
			contribution.Options{Location: time.UTC},
		)
		seedMember("tres", auth.RoleTreasurer, nil)
		seedMember("player", auth.RolePlayer, nil)
	})

	It("allows a single monthly contribution", func() {
		_, err := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Encore", Type: "monthly", Amount: int64p(2000)})
		Expect(err).To(MatchError(internal.ErrMonthlyExists))
	})

	It("refuses contribution management to players", func() {
		_, err := service.Create(ctx, player, contribution.CreateContributionDTO{Name: "X", Type: "MONTHLY", Amount: int64p(5000)})
		Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
	})

	It("treats 3000 against a 5000 minimum as paid", func() {
		monthly, err := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{
			MemberID: "player", ContributionID: monthly.ID, Amount: 3000, PeriodYear: intp(2024), PeriodMonth: intp(3),
		})
		Expect(err).NotTo(HaveOccurred())

		report, err := service.Arrears(ctx, intp(2024), intp(3))
		Expect(err).NotTo(HaveOccurred())
		ids := []string{}
		for _, m := range report.Members {
			ids = append(ids, m.ID)
		}
		Expect(ids).NotTo(ContainElement("player"))
		Expect(ids).To(ContainElement("tres"))
	})

	It("tags untagged monthly payments with the current month", func() {
		monthly, _ := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})
		p, err := service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{MemberID: "player", ContributionID: monthly.ID, Amount: 5000})
		Expect(err).NotTo(HaveOccurred())

		now := time.Now().UTC()
		Expect(*p.PeriodYear).To(Equal(now.Year()))
		Expect(*p.PeriodMonth).To(Equal(int(now.Month())))
		Expect(p.Member.FirstName).To(Equal("player"))
		Expect(p.Contribution.Name).To(Equal("Cotisation"))
	})

	It("accumulates project receipts", func() {
		project, err := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Maillots", Type: "PROJECT", TargetAmount: int64p(100000)})
		Expect(err).NotTo(HaveOccurred())

		for _, amount := range []int64{2000, 3000} {
			_, err = service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{MemberID: "player", ContributionID: project.ID, Amount: amount})
			Expect(err).NotTo(HaveOccurred())
		}

		stored, err := service.Get(ctx, project.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*stored.ReceivedAmount).To(Equal(int64(5000)))
	})

	It("rejects a half period tag and unknown references", func() {
		monthly, _ := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})

		_, err := service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{MemberID: "player", ContributionID: monthly.ID, Amount: 5000, PeriodYear: intp(2024)})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

		_, err = service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{MemberID: "ghost", ContributionID: monthly.ID, Amount: 5000})
		Expect(err).To(MatchError(internal.ErrMemberNotFound))

		box := "nowhere"
		_, err = service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{MemberID: "player", ContributionID: monthly.ID, Amount: 5000, CashBoxID: &box})
		Expect(err).To(MatchError(internal.ErrCashBoxNotFound))
	})

	It("locks variant fields on update", func() {
		monthly, _ := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})

		_, err := service.Update(ctx, treasurer, monthly.ID, contribution.UpdateContributionDTO{TargetAmount: int64p(1)})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeContributionTypeLocked))

		updated, err := service.Update(ctx, treasurer, monthly.ID, contribution.UpdateContributionDTO{Amount: int64p(6000)})
		Expect(err).NotTo(HaveOccurred())
		Expect(*updated.Amount).To(Equal(int64(6000)))
	})

	It("checks a one sided date patch against the stored window", func() {
		event, err := service.Create(ctx, treasurer, contribution.CreateContributionDTO{
			Name: "Tournoi", Type: "EXCEPTIONAL", StartDate: strp("2026-03-01"), EndDate: strp("2026-03-31"),
		})
		Expect(err).NotTo(HaveOccurred())

		for _, patch := range []contribution.UpdateContributionDTO{
			{EndDate: strp("2026-02-15")},
			{StartDate: strp("2026-04-10")},
		} {
			_, err := service.Update(ctx, treasurer, event.ID, patch)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDate))
		}

		updated, err := service.Update(ctx, treasurer, event.ID, contribution.UpdateContributionDTO{EndDate: strp("2026-04-15")})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.EndDate.Format("2006-01-02")).To(Equal("2026-04-15"))
		Expect(updated.StartDate.Format("2006-01-02")).To(Equal("2026-03-01"))
	})

	It("clears the grace window when a self payment settles the last month", func() {
		reactivated := time.Now().Add(-time.Hour)
		seedMember("grace", auth.RolePlayer, &reactivated)
		monthly, _ := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})

		before, err := service.UnpaidMonths(ctx, "grace")
		Expect(err).NotTo(HaveOccurred())
		Expect(before.UnpaidMonths).To(HaveLen(1))
		Expect(*before.MonthlyContributionID).To(Equal(monthly.ID))

		_, err = service.RecordSelfPayment(ctx, auth.Principal{MemberID: "grace", Role: auth.RolePlayer}, contribution.SelfPaymentDTO{ContributionID: monthly.ID, Amount: 5000})
		Expect(err).NotTo(HaveOccurred())

		var m memberDatamodel.Member
		Expect(db.Where("id = ?", "grace").First(&m).Error).To(Succeed())
		Expect(m.ReactivatedAt).To(BeNil())
	})

	It("summarizes history per month and per member", func() {
		monthly, _ := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})
		for _, m := range []int{1, 2, 2} {
			_, err := service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{
				MemberID: "player", ContributionID: monthly.ID, Amount: 2500, PeriodYear: intp(2024), PeriodMonth: intp(m),
			})
			Expect(err).NotTo(HaveOccurred())
		}

		summary, err := service.HistorySummary(ctx, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.TotalCollected).To(Equal(int64(7500)))
		Expect(summary.ByMonth).To(HaveLen(2))
		Expect(summary.ByMonth[0].Month).To(Equal(2))
		Expect(summary.ByMonth[0].PaymentsCount).To(Equal(2))

		history, err := service.MemberHistory(ctx, player, "player")
		Expect(err).NotTo(HaveOccurred())
		Expect(history.TotalPaid).To(Equal(int64(7500)))
		Expect(history.Payments).To(HaveLen(3))
		Expect(history.ByMonth[0].Amount).To(Equal(int64(5000)))
	})

	It("keeps payments and histories private to their member", func() {
		seedMember("other", auth.RolePlayer, nil)
		monthly, _ := service.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: int64p(5000)})
		for _, id := range []string{"player", "other"} {
			_, err := service.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{
				MemberID: id, ContributionID: monthly.ID, Amount: 5000, PeriodYear: intp(2024), PeriodMonth: intp(3),
			})
			Expect(err).NotTo(HaveOccurred())
		}

		own, err := service.VisiblePayments(ctx, player, contribution.PaymentFilter{MemberID: strp("other")})
		Expect(err).NotTo(HaveOccurred())
		Expect(own).To(HaveLen(1))
		Expect(own[0].MemberID).To(Equal("player"))

		all, err := service.VisiblePayments(ctx, treasurer, contribution.PaymentFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))

		_, err = service.MemberHistory(ctx, player, "other")
		Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

		history, err := service.MemberHistory(ctx, treasurer, "other")
		Expect(err).NotTo(HaveOccurred())
		Expect(history.Payments).To(HaveLen(1))
	})

	It("reports a missing monthly contribution on arrears", func() {
		_, err := service.Arrears(ctx, nil, nil)
		Expect(err).To(MatchError(internal.ErrNoMonthlyContribution))
	})
})
