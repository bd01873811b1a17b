package notification_test

import (
	"context"
	"time"

	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sent struct {
	member  string
	roles   []auth.Role
	exclude string
	typ     notification.Type
	message string
}

type fakeNotifier struct {
	calls []sent
}

func (f *fakeNotifier) Notify(_ context.Context, memberID string, typ notification.Type, _ string, message string) error {
	f.calls = append(f.calls, sent{member: memberID, typ: typ, message: message})
	return nil
}

func (f *fakeNotifier) NotifyRoles(_ context.Context, roles []auth.Role, exclude string, typ notification.Type, _ string, message string) (int, error) {
	f.calls = append(f.calls, sent{roles: roles, exclude: exclude, typ: typ, message: message})
	return len(roles), nil
}

var _ = Describe("Subscriber", func() {
	var (
		notifier *fakeNotifier
		sub      *notification.Subscriber
		ctx      = context.Background()
	)

	BeforeEach(func() {
		notifier = &fakeNotifier{}
		sub = notification.NewSubscriber(notifier, auth.DefaultPolicy(), testLogger)
	})

	transition := func(from, to approval.Status, reason *string) events.Event {
		return events.NewApprovalTransitionedEvent(events.EventTypeExpenseTransitioned, "expense", "e1",
			string(from), string(to), "actor", "requester", 10000, reason)
	}

	It("asks the commissioners once the treasurer approved", func() {
		Expect(sub.HandleApprovalTransitioned(ctx, transition(approval.StatusPendingTreasurer, approval.StatusPendingCommissioner, nil))).To(Succeed())
		Expect(notifier.calls).To(HaveLen(1))
		Expect(notifier.calls[0].typ).To(Equal(notification.TypeApprovalRequired))
		Expect(notifier.calls[0].roles).To(ContainElement(auth.RoleCommissioner))
		Expect(notifier.calls[0].roles).NotTo(ContainElement(auth.RoleTreasurer))
		Expect(notifier.calls[0].exclude).To(Equal("actor"))
		Expect(notifier.calls[0].message).To(ContainSubstring("10 000 FCFA"))
	})

	It("tells the requester about a rejection and its reason", func() {
		reason := "duplicate"
		Expect(sub.HandleApprovalTransitioned(ctx, transition(approval.StatusPendingTreasurer, approval.StatusRejected, &reason))).To(Succeed())
		Expect(notifier.calls).To(HaveLen(1))
		Expect(notifier.calls[0].member).To(Equal("requester"))
		Expect(notifier.calls[0].message).To(ContainSubstring("duplicate"))
	})

	It("notifies a member whose payment was recorded", func() {
		Expect(sub.HandlePaymentRecorded(ctx, events.NewPaymentRecordedEvent("p1", "m1", "c1", 5000, nil, nil, "tres"))).To(Succeed())
		Expect(notifier.calls[0].member).To(Equal("m1"))
		Expect(notifier.calls[0].typ).To(Equal(notification.TypePaymentRecorded))
	})

	It("mentions the unpaid months on automatic suspension", func() {
		Expect(sub.HandleMemberSuspended(ctx, events.NewMemberSuspendedEvent("m1", 2, true))).To(Succeed())
		Expect(notifier.calls[0].message).To(ContainSubstring("2 mois"))
	})

	It("gives the grace deadline on reactivation", func() {
		at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
		Expect(sub.HandleMemberReactivated(ctx, events.NewMemberReactivatedEvent("m1", at, at.Add(24*time.Hour), "admin"))).To(Succeed())
		Expect(notifier.calls[0].message).To(ContainSubstring("16/03/2024 09:00"))
	})

	It("rejects foreign events", func() {
		Expect(sub.HandlePaymentRecorded(ctx, events.NewMemberSuspendedEvent("m1", 1, true))).To(HaveOccurred())
	})
})
