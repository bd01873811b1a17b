package expense_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	expenseDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/expense"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/expense"
)

// Mock repository for testing
type mockExpenseRepository struct {
	mu          sync.Mutex
	expenses    map[string]*expenseDatamodel.Expense
	createError error
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{expenses: make(map[string]*expenseDatamodel.Expense)}
}

func (m *mockExpenseRepository) Create(_ context.Context, e *expenseDatamodel.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	cp := *e
	m.expenses[e.ID] = &cp
	return nil
}

func (m *mockExpenseRepository) GetByID(_ context.Context, id string) (*expenseDatamodel.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return nil, internal.ErrExpenseNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockExpenseRepository) List(_ context.Context, filter expense.ListFilter) ([]*expenseDatamodel.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*expenseDatamodel.Expense
	for _, e := range m.expenses {
		if filter.CashBoxID != nil && (e.CashBoxID == nil || *e.CashBoxID != *filter.CashBoxID) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockExpenseRepository) Transition(_ context.Context, id string, from approval.Status, cols map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.Status != string(from) {
		return approval.ErrStale
	}
	e.Status = cols["status"].(string)
	if v, ok := cols["treasurer_approved_by_id"].(*string); ok {
		e.TreasurerApprovedByID = v
	}
	if v, ok := cols["commissioner_approved_by_id"].(*string); ok {
		e.CommissionerApprovedBy = v
	}
	if v, ok := cols["reject_reason"].(*string); ok {
		e.RejectReason = v
	}
	return nil
}

func (m *mockExpenseRepository) PendingCounts(_ context.Context) (approval.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var statuses []approval.Status
	for _, e := range m.expenses {
		statuses = append(statuses, approval.Status(e.Status))
	}
	return approval.CountStatuses(statuses), nil
}

type fakeBoxes map[string]bool

func (f fakeBoxes) Exists(_ context.Context, id string) (bool, error) {
	return f[id], nil
}

func (f fakeBoxes) IsDefault(context.Context, string) (bool, error) {
	return false, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

var _ = Describe("Expense Service", func() {
	var (
		service      *expense.Service
		repo         *mockExpenseRepository
		publisher    *recordingPublisher
		ctx          context.Context
		treasurer    = auth.Principal{MemberID: "tres", Role: auth.RoleTreasurer}
		commissioner = auth.Principal{MemberID: "comm", Role: auth.RoleCommissioner}
		player       = auth.Principal{MemberID: "player", Role: auth.RolePlayer}
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockExpenseRepository()
		publisher = &recordingPublisher{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = expense.NewService(repo, fakeBoxes{"box-1": true}, nil, auth.DefaultPolicy(), publisher, lg)
	})

	newExpense := func() *expense.Expense {
		e, err := service.Create(ctx, treasurer, expense.CreateExpenseDTO{
			Amount:      10000,
			Description: "Ballons",
			ExpenseDate: time.Now().Format("2006-01-02"),
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("Create", func() {
		It("starts at PENDING_TREASURER", func() {
			e := newExpense()
			Expect(e.Status).To(Equal(approval.StatusPendingTreasurer))
			Expect(e.RequestedByID).To(Equal("tres"))
			Expect(e.CashBoxID).To(BeNil())
		})

		It("is reserved to ADMIN and TREASURER", func() {
			_, err := service.Create(ctx, commissioner, expense.CreateExpenseDTO{Amount: 1, Description: "x", ExpenseDate: "2024-01-01"})
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("validates amount and description", func() {
			_, err := service.Create(ctx, treasurer, expense.CreateExpenseDTO{Amount: 0, Description: " ", ExpenseDate: "2024-01-01"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects unknown cash boxes", func() {
			missing := "box-404"
			_, err := service.Create(ctx, treasurer, expense.CreateExpenseDTO{
				Amount: 500, Description: "Eau", ExpenseDate: "2024-01-01", CashBoxID: &missing,
			})
			Expect(err).To(MatchError(internal.ErrCashBoxNotFound))
		})

		It("wraps repository failures", func() {
			repo.createError = errors.New("db down")
			_, err := service.Create(ctx, treasurer, expense.CreateExpenseDTO{Amount: 1, Description: "x", ExpenseDate: "2024-01-01"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})

	Describe("two level approval", func() {
		It("approves a 10000 expense in two steps", func() {
			e := newExpense()

			e, err := service.Transition(ctx, treasurer, e.ID, approval.StepValidateTreasurer, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(approval.StatusPendingCommissioner))
			Expect(*e.TreasurerApprovedByID).To(Equal("tres"))

			e, err = service.Transition(ctx, commissioner, e.ID, approval.StepValidateCommissioner, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(approval.StatusApproved))
			Expect(e.Countable()).To(BeTrue())

			publisher.mu.Lock()
			defer publisher.mu.Unlock()
			Expect(publisher.events).To(HaveLen(3))
		})

		It("rejects with a reason and refuses a second rejection", func() {
			e := newExpense()
			e, err := service.Transition(ctx, treasurer, e.ID, approval.StepReject, "duplicate")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(approval.StatusRejected))
			Expect(*e.RejectReason).To(Equal("duplicate"))

			_, err = service.Transition(ctx, treasurer, e.ID, approval.StepReject, "again")
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
		})

		It("forbids members without the level capability", func() {
			e := newExpense()
			_, err := service.Transition(ctx, player, e.ID, approval.StepValidateTreasurer, "")
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			stored, _ := repo.GetByID(ctx, e.ID)
			Expect(stored.Status).To(Equal(string(approval.StatusPendingTreasurer)))
		})

		It("reports missing expenses", func() {
			_, err := service.Transition(ctx, treasurer, "nope", approval.StepValidateTreasurer, "")
			Expect(err).To(MatchError(internal.ErrExpenseNotFound))
		})

		It("counts pending items per level", func() {
			first := newExpense()
			newExpense()
			_, err := service.Transition(ctx, treasurer, first.ID, approval.StepValidateTreasurer, "")
			Expect(err).NotTo(HaveOccurred())

			counts, err := service.PendingCounts(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(Equal(approval.Counts{PendingTreasurer: 1, PendingCommissioner: 1}))
		})
	})
})
