package notification

import "time"

type InApp struct {
	ID        string    `gorm:"primaryKey;size:36"`
	MemberID  string    `gorm:"column:member_id;size:36;not null;index"`
	Title     *string   `gorm:"column:title"`
	Message   string    `gorm:"column:message;not null"`
	Read      bool      `gorm:"column:read;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (InApp) TableName() string {
	return "in_app_notifications"
}

type Log struct {
	ID       string    `gorm:"primaryKey;size:36"`
	MemberID string    `gorm:"column:member_id;size:36;not null;index"`
	Channel  string    `gorm:"column:channel;size:16;not null"`
	Type     string    `gorm:"column:type;size:32;not null"`
	Payload  *string   `gorm:"column:payload"`
	SentAt   time.Time `gorm:"column:sent_at;not null"`
}

func (Log) TableName() string {
	return "notification_logs"
}
