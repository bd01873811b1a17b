package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseTransitioned  = "expense.transitioned"
	EventTypeTransferTransitioned = "transfer.transitioned"
	EventTypePaymentRecorded      = "payment.recorded"
	EventTypeMemberSuspended      = "member.suspended"
	EventTypeMemberReactivated    = "member.reactivated"
	EventTypeActivityPublished    = "activity.published"
)

// ApprovalTransitionedEvent is emitted once per applied expense or transfer transition.
type ApprovalTransitionedEvent struct {
	BaseEvent
	Subject     string  `json:"subject"`
	ItemID      string  `json:"item_id"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	ActorID     string  `json:"actor_id"`
	RequestedBy string  `json:"requested_by"`
	Amount      int64   `json:"amount"`
	Reason      *string `json:"reason,omitempty"`
}

func NewApprovalTransitionedEvent(eventType, subject, itemID, from, to, actorID, requestedBy string, amount int64, reason *string) *ApprovalTransitionedEvent {
	data := map[string]interface{}{
		"subject":      subject,
		"item_id":      itemID,
		"from":         from,
		"to":           to,
		"actor_id":     actorID,
		"requested_by": requestedBy,
		"amount":       amount,
	}
	if reason != nil {
		data["reason"] = *reason
	}
	return &ApprovalTransitionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		Subject:     subject,
		ItemID:      itemID,
		From:        from,
		To:          to,
		ActorID:     actorID,
		RequestedBy: requestedBy,
		Amount:      amount,
		Reason:      reason,
	}
}

type PaymentRecordedEvent struct {
	BaseEvent
	PaymentID      string `json:"payment_id"`
	MemberID       string `json:"member_id"`
	ContributionID string `json:"contribution_id"`
	Amount         int64  `json:"amount"`
	PeriodYear     *int   `json:"period_year,omitempty"`
	PeriodMonth    *int   `json:"period_month,omitempty"`
	RecordedBy     string `json:"recorded_by"`
}

func NewPaymentRecordedEvent(paymentID, memberID, contributionID string, amount int64, year, month *int, recordedBy string) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRecorded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":      paymentID,
				"member_id":       memberID,
				"contribution_id": contributionID,
				"amount":          amount,
				"recorded_by":     recordedBy,
			},
		},
		PaymentID:      paymentID,
		MemberID:       memberID,
		ContributionID: contributionID,
		Amount:         amount,
		PeriodYear:     year,
		PeriodMonth:    month,
		RecordedBy:     recordedBy,
	}
}

type MemberSuspendedEvent struct {
	BaseEvent
	MemberID     string `json:"member_id"`
	UnpaidMonths int    `json:"unpaid_months"`
	Automatic    bool   `json:"automatic"`
}

func NewMemberSuspendedEvent(memberID string, unpaidMonths int, automatic bool) *MemberSuspendedEvent {
	return &MemberSuspendedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeMemberSuspended,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"member_id":     memberID,
				"unpaid_months": unpaidMonths,
				"automatic":     automatic,
			},
		},
		MemberID:     memberID,
		UnpaidMonths: unpaidMonths,
		Automatic:    automatic,
	}
}

type MemberReactivatedEvent struct {
	BaseEvent
	MemberID      string    `json:"member_id"`
	ReactivatedAt time.Time `json:"reactivated_at"`
	GraceEndsAt   time.Time `json:"grace_ends_at"`
	PerformedBy   string    `json:"performed_by"`
}

func NewMemberReactivatedEvent(memberID string, reactivatedAt, graceEndsAt time.Time, performedBy string) *MemberReactivatedEvent {
	return &MemberReactivatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeMemberReactivated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"member_id":      memberID,
				"reactivated_at": reactivatedAt,
				"grace_ends_at":  graceEndsAt,
				"performed_by":   performedBy,
			},
		},
		MemberID:      memberID,
		ReactivatedAt: reactivatedAt,
		GraceEndsAt:   graceEndsAt,
		PerformedBy:   performedBy,
	}
}

type ActivityPublishedEvent struct {
	BaseEvent
	ActivityID string `json:"activity_id"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	AuthorID   string `json:"author_id"`
}

func NewActivityPublishedEvent(activityID, kind, title, authorID string) *ActivityPublishedEvent {
	return &ActivityPublishedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeActivityPublished,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"activity_id": activityID,
				"kind":        kind,
				"title":       title,
				"author_id":   authorID,
			},
		},
		ActivityID: activityID,
		Kind:       kind,
		Title:      title,
		AuthorID:   authorID,
	}
}
