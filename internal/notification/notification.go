package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/club-management/internal/core/directory"
)

type Channel string

const (
	ChannelInApp Channel = "IN_APP"
	ChannelSMS   Channel = "SMS"
)

type Type string

const (
	TypeReminder         Type = "REMINDER"
	TypeArrearsBroadcast Type = "ARREARS_REMINDER"
	TypePaymentConfirmed Type = "PAYMENT_CONFIRMED"
	TypePaymentRecorded  Type = "PAYMENT_RECORDED"
	TypeApprovalRequired Type = "APPROVAL_REQUIRED"
	TypeApprovalDecided  Type = "APPROVAL_DECIDED"
	TypeSuspended        Type = "SUSPENDED"
	TypeReactivated      Type = "REACTIVATED"
)

type InApp struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	MemberID  string    `json:"memberId"`
	Title     *string   `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
}

type Log struct {
	ID       string               `json:"id"`
	SentAt   time.Time            `json:"sentAt"`
	MemberID string               `json:"memberId"`
	Channel  string               `json:"channel"`
	Type     string               `json:"type"`
	Payload  *string              `json:"payload"`
	Member   *directory.MemberRef `json:"member"`
}

type UnreadCount struct {
	Count int64 `json:"count"`
}

// Recipient is the addressable part of a member.
type Recipient struct {
	ID        string
	FirstName string
	Phone     string
}

func InAppFromDataModel(n *notificationDatamodel.InApp) *InApp {
	return &InApp{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		MemberID:  n.MemberID,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
	}
}

func LogFromDataModel(l *notificationDatamodel.Log) *Log {
	return &Log{
		ID:       l.ID,
		SentAt:   l.SentAt,
		MemberID: l.MemberID,
		Channel:  l.Channel,
		Type:     l.Type,
		Payload:  l.Payload,
	}
}
