package ledger_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/cache"
	"github.com/frahmantamala/club-management/internal/cashbox"
	cashboxPostgres "github.com/frahmantamala/club-management/internal/cashbox/postgres"
	"github.com/frahmantamala/club-management/internal/contribution"
	contributionPostgres "github.com/frahmantamala/club-management/internal/contribution/postgres"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/testdb"
	"github.com/frahmantamala/club-management/internal/expense"
	expensePostgres "github.com/frahmantamala/club-management/internal/expense/postgres"
	"github.com/frahmantamala/club-management/internal/ledger"
	"github.com/frahmantamala/club-management/internal/transfer"
	transferPostgres "github.com/frahmantamala/club-management/internal/transfer/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ledger service", func() {
	var (
		ctx           context.Context
		boxes         *cashbox.Service
		contributions *contribution.Service
		expenses      *expense.Service
		transfers     *transfer.Service
		service       *ledger.Service
		principale    *cashbox.CashBox
		buvette       *cashbox.CashBox
		monthly       *contribution.Contribution

		admin        = auth.Principal{MemberID: "admin", Role: auth.RoleAdmin}
		treasurer    = auth.Principal{MemberID: "tres", Role: auth.RoleTreasurer}
		commissioner = auth.Principal{MemberID: "comm", Role: auth.RoleCommissioner}
	)

	BeforeEach(func() {
		db, err := testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		dir := directory.NewGormResolver(db)
		policy := auth.DefaultPolicy()

		for _, id := range []string{"admin", "tres", "comm", "player"} {
			Expect(db.Create(&memberDatamodel.Member{ID: id, Phone: id, FirstName: id, Role: string(auth.RolePlayer)}).Error).To(Succeed())
		}

		boxes = cashbox.NewService(cashboxPostgres.NewCashBoxRepository(db), lg)
		contributions = contribution.NewService(contributionPostgres.NewContributionRepository(db),
			contributionPostgres.NewStandingRepository(db), boxes, dir, policy, nil, lg, contribution.Options{})
		expenses = expense.NewService(expensePostgres.NewExpenseRepository(db), boxes, dir, policy, nil, lg)
		transfers = transfer.NewService(transferPostgres.NewTransferRepository(db), boxes, dir, policy, nil, lg)
		service = ledger.NewService(boxes, contributions, expenses, transfers, cache.Noop{}, 0, lg)

		principale, err = boxes.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Principale"})
		Expect(err).NotTo(HaveOccurred())
		buvette, err = boxes.Create(ctx, cashbox.CreateCashBoxDTO{Name: "Buvette"})
		Expect(err).NotTo(HaveOccurred())

		amount := int64(5000)
		monthly, err = contributions.Create(ctx, treasurer, contribution.CreateContributionDTO{Name: "Cotisation", Type: "MONTHLY", Amount: &amount})
		Expect(err).NotTo(HaveOccurred())
		_, err = contributions.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{MemberID: "player", ContributionID: monthly.ID, Amount: 50000})
		Expect(err).NotTo(HaveOccurred())
	})

	balanceOf := func(id string) int64 {
		summary, err := service.Summary(ctx)
		Expect(err).NotTo(HaveOccurred())
		for _, b := range summary.Boxes {
			if b.ID == id {
				return b.Balance
			}
		}
		Fail("box not in summary: " + id)
		return 0
	}

	It("moves the balance only once an expense is fully approved", func() {
		Expect(balanceOf(principale.ID)).To(Equal(int64(50000)))

		e, err := expenses.Create(ctx, treasurer, expense.CreateExpenseDTO{Amount: 10000, Description: "ballons", ExpenseDate: "2024-03-01"})
		Expect(err).NotTo(HaveOccurred())
		Expect(balanceOf(principale.ID)).To(Equal(int64(50000)))

		counts, err := service.PendingCount(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts.PendingTreasurer).To(Equal(int64(1)))

		_, err = expenses.Transition(ctx, treasurer, e.ID, approval.StepValidateTreasurer, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(balanceOf(principale.ID)).To(Equal(int64(50000)))

		_, err = expenses.Transition(ctx, commissioner, e.ID, approval.StepValidateCommissioner, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(balanceOf(principale.ID)).To(Equal(int64(40000)))

		lines, err := service.Livre(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(lines).To(HaveLen(2))
	})

	It("never counts rejected transfers", func() {
		t, err := transfers.Create(ctx, admin, transfer.CreateTransferDTO{Type: "ALLOCATION", CashBoxID: buvette.ID, Amount: 7000})
		Expect(err).NotTo(HaveOccurred())
		_, err = transfers.Transition(ctx, treasurer, t.ID, approval.StepReject, "duplicate")
		Expect(err).NotTo(HaveOccurred())

		Expect(balanceOf(buvette.ID)).To(BeZero())
	})

	It("folds a deleted box into the default box", func() {
		box := buvette.ID
		_, err := contributions.RecordPayment(ctx, treasurer, contribution.RecordPaymentDTO{MemberID: "player", ContributionID: monthly.ID, Amount: 3000, CashBoxID: &box})
		Expect(err).NotTo(HaveOccurred())
		Expect(balanceOf(buvette.ID)).To(Equal(int64(3000)))

		before, err := service.Summary(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(boxes.Delete(ctx, buvette.ID)).To(Succeed())

		after, err := service.Summary(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(after.Boxes).To(HaveLen(1))
		Expect(after.Boxes[0].Balance).To(Equal(int64(53000)))
		Expect(after.Global).To(Equal(before.Global))
	})
})
