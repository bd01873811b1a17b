package suspension_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/contribution"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/suspension"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSuspension(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Suspension Suite")
}

var (
	march    = contribution.Period{Year: 2024, Month: 3}
	february = contribution.Period{Year: 2024, Month: 2}
	policy   = suspension.NewPolicy(10, 24*time.Hour, time.UTC)
)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

var _ = Describe("Policy", func() {
	player := func() *contribution.Standing {
		return &contribution.Standing{ID: "m", Role: auth.RolePlayer}
	}

	It("tolerates the current month until the cutoff day", func() {
		Expect(policy.Evaluate(player(), []contribution.Period{march}, at(10, 23))).To(Equal(suspension.Keep))
		Expect(policy.Evaluate(player(), []contribution.Period{march}, at(11, 0))).To(Equal(suspension.Suspend))
	})

	It("suspends for any past unpaid month", func() {
		Expect(policy.Evaluate(player(), []contribution.Period{february}, at(2, 0))).To(Equal(suspension.Suspend))
	})

	It("exempts admins and leaves suspended members alone", func() {
		admin := &contribution.Standing{ID: "a", Role: auth.RoleAdmin}
		Expect(policy.Evaluate(admin, []contribution.Period{february}, at(20, 0))).To(Equal(suspension.Keep))

		suspended := player()
		suspended.IsSuspended = true
		Expect(policy.Evaluate(suspended, []contribution.Period{february}, at(20, 0))).To(Equal(suspension.Keep))
	})

	Describe("reactivation grace", func() {
		var member *contribution.Standing

		BeforeEach(func() {
			reactivated := at(15, 9)
			member = player()
			member.ReactivatedAt = &reactivated
		})

		It("keeps access inside the window despite arrears", func() {
			Expect(policy.Evaluate(member, []contribution.Period{february, march}, at(16, 8))).To(Equal(suspension.Keep))
		})

		It("re-suspends once the window expires with months unpaid", func() {
			Expect(policy.Evaluate(member, []contribution.Period{february}, at(16, 10))).To(Equal(suspension.Suspend))
		})

		It("clears the marker when everything due is paid", func() {
			Expect(policy.Evaluate(member, nil, at(15, 20))).To(Equal(suspension.ClearGrace))
			Expect(policy.Evaluate(member, nil, at(20, 0))).To(Equal(suspension.ClearGrace))
		})

		It("reports when the window ends", func() {
			Expect(*policy.GraceEndsAt(member)).To(Equal(at(16, 9)))
			Expect(policy.GraceEndsAt(player())).To(BeNil())
		})
	})

	It("falls back to defaults for out of range settings", func() {
		p := suspension.NewPolicy(0, 0, nil)
		Expect(p.CutoffDay).To(Equal(suspension.DefaultCutoffDay))
		Expect(p.Grace).To(Equal(suspension.DefaultGrace))
		Expect(p.Location).To(Equal(time.UTC))
	})
})

type fakeStore struct {
	suspended []string
	cleared   []string
	failFor   string
}

func (f *fakeStore) Suspend(_ context.Context, id string, _ time.Time, details string) error {
	if id == f.failFor {
		return errors.New("db down")
	}
	f.suspended = append(f.suspended, id)
	return nil
}

func (f *fakeStore) ClearGrace(_ context.Context, id string) error {
	f.cleared = append(f.cleared, id)
	return nil
}

type fakeDues struct {
	snap   *contribution.Snapshot
	unpaid map[string][]contribution.Period
}

func (f *fakeDues) Snapshot(context.Context) (*contribution.Snapshot, error) { return f.snap, nil }

func (f *fakeDues) Unpaid(_ *contribution.Snapshot, m *contribution.Standing, _ time.Time) []contribution.Period {
	return f.unpaid[m.ID]
}

type recordingPublisher struct{ types []string }

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.types = append(p.types, evt.EventType())
	return nil
}

var _ = Describe("Service", func() {
	var (
		store     *fakeStore
		dues      *fakeDues
		publisher *recordingPublisher
		service   *suspension.Service
		lg        = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	)

	BeforeEach(func() {
		reactivated := at(1, 0)
		store = &fakeStore{}
		publisher = &recordingPublisher{}
		dues = &fakeDues{
			snap: &contribution.Snapshot{
				Monthly: &contribution.Contribution{ID: "monthly"},
				Members: []*contribution.Standing{
					{ID: "late", Role: auth.RolePlayer},
					{ID: "fine", Role: auth.RolePlayer},
					{ID: "admin", Role: auth.RoleAdmin},
					{ID: "settled", Role: auth.RolePlayer, ReactivatedAt: &reactivated},
				},
			},
			unpaid: map[string][]contribution.Period{
				"late":  {february},
				"admin": {february},
			},
		}
		service = suspension.NewService(store, dues, policy, auth.DefaultPolicy(), publisher, lg)
	})

	It("applies every decision and counts suspensions", func() {
		res, err := service.ApplySuspensions(context.Background(), at(20, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Applied).To(Equal(1))
		Expect(res.Cleared).To(Equal(1))
		Expect(res.PeriodMonth).To(Equal(3))
		Expect(store.suspended).To(Equal([]string{"late"}))
		Expect(store.cleared).To(Equal([]string{"settled"}))
		Expect(publisher.types).To(Equal([]string{"member.suspended"}))
	})

	It("keeps going when one member fails", func() {
		store.failFor = "late"
		dues.unpaid["fine"] = []contribution.Period{february}

		res, err := service.ApplySuspensions(context.Background(), at(20, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Applied).To(Equal(1))
		Expect(store.suspended).To(Equal([]string{"fine"}))
	})

	It("does nothing without a monthly contribution", func() {
		dues.snap.Monthly = nil
		res, err := service.ApplySuspensions(context.Background(), at(20, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Applied).To(BeZero())
		Expect(store.suspended).To(BeEmpty())
	})

	It("restricts the manual trigger to admins", func() {
		_, err := service.Apply(context.Background(), auth.Principal{MemberID: "t", Role: auth.RoleTreasurer})
		Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

		_, err = service.Apply(context.Background(), auth.Principal{MemberID: "a", Role: auth.RoleAdmin})
		Expect(err).NotTo(HaveOccurred())
	})
})
