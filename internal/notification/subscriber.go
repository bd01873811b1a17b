package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/core/events"
)

// Notifier is the part of Service the event subscribers need.
type Notifier interface {
	Notify(ctx context.Context, memberID string, typ Type, title, message string) error
	NotifyRoles(ctx context.Context, roles []auth.Role, exclude string, typ Type, title, message string) (int, error)
}

// Subscriber turns domain events into member notifications.
type Subscriber struct {
	notifier Notifier
	policy   *auth.Policy
	logger   *slog.Logger
}

func NewSubscriber(notifier Notifier, policy *auth.Policy, logger *slog.Logger) *Subscriber {
	return &Subscriber{notifier: notifier, policy: policy, logger: logger}
}

func (s *Subscriber) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeExpenseTransitioned, s.HandleApprovalTransitioned)
	bus.Subscribe(events.EventTypeTransferTransitioned, s.HandleApprovalTransitioned)
	bus.Subscribe(events.EventTypePaymentRecorded, s.HandlePaymentRecorded)
	bus.Subscribe(events.EventTypeMemberSuspended, s.HandleMemberSuspended)
	bus.Subscribe(events.EventTypeMemberReactivated, s.HandleMemberReactivated)

	s.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypeExpenseTransitioned,
			events.EventTypeTransferTransitioned,
			events.EventTypePaymentRecorded,
			events.EventTypeMemberSuspended,
			events.EventTypeMemberReactivated,
		})
}

func subjectLabel(subject string) string {
	if subject == "transfer" {
		return "Le mouvement de caisse"
	}
	return "La dépense"
}

// HandleApprovalTransitioned notifies whoever must act next, or the requester
// once the item is decided.
func (s *Subscriber) HandleApprovalTransitioned(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ApprovalTransitionedEvent)
	if !ok {
		return fmt.Errorf("expected ApprovalTransitionedEvent, got %T", event)
	}
	status := approval.Status(e.To)
	label := subjectLabel(e.Subject)

	if action, ok := approval.NextActor(status); ok {
		msg := fmt.Sprintf("%s de %s attend votre validation.", label, FormatFCFA(e.Amount))
		n, err := s.notifier.NotifyRoles(ctx, s.policy.Holders(action), e.ActorID, TypeApprovalRequired, "Validation requise", msg)
		if err != nil {
			return err
		}
		s.logger.Debug("approvers notified", "item_id", e.ItemID, "status", e.To, "recipients", n)
		return nil
	}

	if e.RequestedBy == "" || e.RequestedBy == e.ActorID {
		return nil
	}
	var msg string
	switch status {
	case approval.StatusApproved:
		msg = fmt.Sprintf("%s de %s a été approuvée.", label, FormatFCFA(e.Amount))
	case approval.StatusRejected:
		msg = fmt.Sprintf("%s de %s a été rejetée.", label, FormatFCFA(e.Amount))
		if e.Reason != nil {
			msg += " Motif : " + *e.Reason
		}
	default:
		return nil
	}
	return s.notifier.Notify(ctx, e.RequestedBy, TypeApprovalDecided, "Décision de validation", msg)
}

func (s *Subscriber) HandlePaymentRecorded(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentRecordedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentRecordedEvent, got %T", event)
	}
	msg := fmt.Sprintf("Votre paiement de %s a été enregistré.", FormatFCFA(e.Amount))
	return s.notifier.Notify(ctx, e.MemberID, TypePaymentRecorded, "Paiement enregistré", msg)
}

func (s *Subscriber) HandleMemberSuspended(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.MemberSuspendedEvent)
	if !ok {
		return fmt.Errorf("expected MemberSuspendedEvent, got %T", event)
	}
	msg := "Votre compte est suspendu. Réglez vos cotisations en retard pour retrouver l'accès."
	if e.Automatic && e.UnpaidMonths > 0 {
		msg = fmt.Sprintf("Votre compte est suspendu : %d mois de cotisation impayé(s). Réglez-les pour retrouver l'accès.", e.UnpaidMonths)
	}
	return s.notifier.Notify(ctx, e.MemberID, TypeSuspended, "Compte suspendu", msg)
}

func (s *Subscriber) HandleMemberReactivated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.MemberReactivatedEvent)
	if !ok {
		return fmt.Errorf("expected MemberReactivatedEvent, got %T", event)
	}
	msg := fmt.Sprintf("Votre compte est réactivé. Régularisez vos cotisations avant le %s pour éviter une nouvelle suspension.",
		e.GraceEndsAt.Format("02/01/2006 15:04"))
	return s.notifier.Notify(ctx, e.MemberID, TypeReactivated, "Compte réactivé", msg)
}
