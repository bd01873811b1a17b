package approval_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestApproval(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Approval Suite")
}

var _ = Describe("Machine", func() {
	var (
		m            *approval.Machine
		now          time.Time
		admin        = auth.Principal{MemberID: "admin", Role: auth.RoleAdmin}
		treasurer    = auth.Principal{MemberID: "tres", Role: auth.RoleTreasurer}
		commissioner = auth.Principal{MemberID: "comm", Role: auth.RoleCommissioner}
		president    = auth.Principal{MemberID: "pres", Role: auth.RolePresident}
	)

	BeforeEach(func() {
		m = approval.NewMachine(auth.DefaultPolicy())
		now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	})

	isConflict := func(err error) bool {
		return errors.Is(err, internal.ErrInvalidTransition)
	}

	It("walks the happy path and records both approvers", func() {
		rec := approval.New()
		Expect(rec.Status).To(Equal(approval.StatusPendingTreasurer))

		rec, err := m.ValidateTreasurer(rec, treasurer, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(approval.StatusPendingCommissioner))
		Expect(*rec.TreasurerApprovedBy).To(Equal("tres"))
		Expect(*rec.TreasurerApprovedAt).To(Equal(now))

		later := now.Add(time.Hour)
		rec, err = m.ValidateCommissioner(rec, commissioner, later)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(approval.StatusApproved))
		Expect(rec.Status.Countable()).To(BeTrue())
		Expect(*rec.CommissionerApprovedBy).To(Equal("comm"))
		Expect(*rec.TreasurerApprovedBy).To(Equal("tres"))
	})

	It("never skips the treasurer level", func() {
		_, err := m.ValidateCommissioner(approval.New(), commissioner, now)
		Expect(isConflict(err)).To(BeTrue())
	})

	It("checks the status before the role", func() {
		rec := approval.Record{Status: approval.StatusApproved}
		_, err := m.ValidateTreasurer(rec, president, now)
		Expect(isConflict(err)).To(BeTrue())
	})

	It("forbids the wrong role", func() {
		_, err := m.ValidateTreasurer(approval.New(), commissioner, now)
		Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

		rec := approval.Record{Status: approval.StatusPendingCommissioner}
		_, err = m.ValidateCommissioner(rec, treasurer, now)
		Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
	})

	It("lets ADMIN act at both levels", func() {
		rec, err := m.ValidateTreasurer(approval.New(), admin, now)
		Expect(err).NotTo(HaveOccurred())
		rec, err = m.ValidateCommissioner(rec, admin, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(approval.StatusApproved))
	})

	Describe("Reject", func() {
		It("stores a trimmed reason", func() {
			rec, err := m.Reject(approval.New(), treasurer, "  duplicate  ", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(approval.StatusRejected))
			Expect(*rec.RejectReason).To(Equal("duplicate"))
			Expect(*rec.RejectedBy).To(Equal("tres"))
		})

		It("drops a blank reason", func() {
			rec, err := m.Reject(approval.New(), treasurer, "   ", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.RejectReason).To(BeNil())
		})

		It("refuses reasons over 500 characters", func() {
			rec := approval.New()
			_, err := m.Reject(rec, treasurer, strings.Repeat("x", 501), now)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("requires the role of the current level", func() {
			_, err := m.Reject(approval.New(), commissioner, "", now)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			pendingComm := approval.Record{Status: approval.StatusPendingCommissioner}
			_, err = m.Reject(pendingComm, treasurer, "", now)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			_, err = m.Reject(pendingComm, commissioner, "", now)
			Expect(err).NotTo(HaveOccurred())
		})

		It("is a conflict the second time", func() {
			rec, err := m.Reject(approval.New(), treasurer, "duplicate", now)
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Reject(rec, treasurer, "again", now)
			Expect(isConflict(err)).To(BeTrue())
		})
	})

	It("dispatches steps by name", func() {
		rec, err := m.Apply(approval.StepValidateTreasurer, approval.New(), treasurer, "", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(approval.StatusPendingCommissioner))

		_, err = m.Apply(approval.Step("approve"), rec, treasurer, "", now)
		Expect(err).To(HaveOccurred())
	})

	It("only writes the columns of the level that moved", func() {
		rec, _ := m.ValidateTreasurer(approval.New(), treasurer, now)
		cols := approval.Columns(rec)
		Expect(cols).To(HaveKeyWithValue("status", "PENDING_COMMISSIONER"))
		Expect(cols).To(HaveKey("treasurer_approved_by_id"))
		Expect(cols).NotTo(HaveKey("commissioner_approved_by_id"))
	})

	It("counts pending records", func() {
		c := approval.CountStatuses([]approval.Status{
			approval.StatusPendingTreasurer, approval.StatusPendingTreasurer,
			approval.StatusPendingCommissioner, approval.StatusApproved, approval.StatusRejected,
		})
		Expect(c).To(Equal(approval.Counts{PendingTreasurer: 2, PendingCommissioner: 1}))
		Expect(c.Total()).To(Equal(int64(3)))
	})
})

type fakeStore struct {
	status approval.Status
	calls  int
}

func (f *fakeStore) Transition(_ context.Context, _ string, from approval.Status, cols map[string]interface{}) error {
	f.calls++
	if f.status != from {
		return approval.ErrStale
	}
	f.status = approval.Status(cols["status"].(string))
	return nil
}

var _ = Describe("Transit", func() {
	It("persists through the store and reports stale rows", func() {
		m := approval.NewMachine(nil)
		treasurer := auth.Principal{MemberID: "tres", Role: auth.RoleTreasurer}
		store := &fakeStore{status: approval.StatusPendingTreasurer}

		next, err := m.Transit(context.Background(), store, "e1", approval.New(), approval.StepValidateTreasurer, treasurer, "", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Status).To(Equal(approval.StatusPendingCommissioner))
		Expect(store.status).To(Equal(approval.StatusPendingCommissioner))

		// a second caller still holding the old snapshot loses the race
		_, err = m.Transit(context.Background(), store, "e1", approval.New(), approval.StepValidateTreasurer, treasurer, "", time.Now())
		Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
		Expect(store.calls).To(Equal(2))
	})
})
