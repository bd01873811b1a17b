package postgres_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/cashbox"
	cashboxPostgres "github.com/frahmantamala/club-management/internal/cashbox/postgres"
	contributionDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/contribution"
	expenseDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/expense"
	transferDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/transfer"
	"github.com/frahmantamala/club-management/internal/core/testdb"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestCashBoxPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cash Box Postgres Suite")
}

func strPtr(s string) *string { return &s }

var _ = Describe("Cash box repository and service", func() {
	var (
		db      *gorm.DB
		service *cashbox.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = cashbox.NewService(cashboxPostgres.NewCashBoxRepository(db), lg)
	})

	It("makes the first box the default", func() {
		box, err := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Caisse principale"})
		Expect(err).NotTo(HaveOccurred())
		Expect(box.IsDefault).To(BeTrue())

		other, err := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Caisse buvette"})
		Expect(err).NotTo(HaveOccurred())
		Expect(other.IsDefault).To(BeFalse())
	})

	It("keeps exactly one default when switching", func() {
		main, _ := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Principale"})
		second, _ := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Secondaire"})

		yes := true
		_, err := service.Update(ctx, second.ID, cashbox.UpdateCashBoxDTO{IsDefault: &yes})
		Expect(err).NotTo(HaveOccurred())

		boxes, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		defaults := 0
		for _, b := range boxes {
			if b.IsDefault {
				defaults++
				Expect(b.ID).To(Equal(second.ID))
			}
		}
		Expect(defaults).To(Equal(1))

		no := false
		_, err = service.Update(ctx, second.ID, cashbox.UpdateCashBoxDTO{IsDefault: &no})
		Expect(err).To(MatchError(internal.ErrDefaultCashBox))
		Expect(main.ID).NotTo(BeEmpty())
	})

	It("refuses to delete the default box", func() {
		main, _ := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Principale"})
		Expect(service.Delete(ctx, main.ID)).To(MatchError(internal.ErrDefaultCashBox))
	})

	It("reassigns movements to the default box on delete", func() {
		main, _ := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Principale"})
		side, _ := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Tournoi"})

		Expect(db.Create(&contributionDatamodel.Payment{
			ID: "p1", MemberID: "m1", ContributionID: "c1", Amount: 5000,
			PaidAt: time.Now(), CashBoxID: strPtr(side.ID),
		}).Error).To(Succeed())
		Expect(db.Create(&expenseDatamodel.Expense{
			ID: "e1", Amount: 1000, Description: "ballons", ExpenseDate: time.Now(),
			CashBoxID: strPtr(side.ID), RequestedByID: "m1", Status: "APPROVED",
		}).Error).To(Succeed())
		Expect(db.Create(&transferDatamodel.CashBoxTransfer{
			ID: "t1", Type: "ALLOCATION", Amount: 2000, ToCashBoxID: strPtr(side.ID),
			RequestedByID: "m1", Status: "APPROVED",
		}).Error).To(Succeed())

		Expect(service.Delete(ctx, side.ID)).To(Succeed())

		var p contributionDatamodel.Payment
		Expect(db.First(&p, "id = ?", "p1").Error).To(Succeed())
		Expect(*p.CashBoxID).To(Equal(main.ID))

		var e expenseDatamodel.Expense
		Expect(db.First(&e, "id = ?", "e1").Error).To(Succeed())
		Expect(*e.CashBoxID).To(Equal(main.ID))

		var t transferDatamodel.CashBoxTransfer
		Expect(db.First(&t, "id = ?", "t1").Error).To(Succeed())
		Expect(*t.ToCashBoxID).To(Equal(main.ID))

		_, err := service.Get(ctx, side.ID)
		Expect(err).To(MatchError(internal.ErrCashBoxNotFound))
	})

	It("validates names", func() {
		_, err := service.Create(ctx, cashbox.CreateCashBoxDTO{Name: "  "})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	})

	It("reports unknown boxes", func() {
		Expect(service.Delete(ctx, "missing")).To(MatchError(internal.ErrCashBoxNotFound))
	})
})
