package member

import "time"

type Member struct {
	ID               string     `gorm:"primaryKey;size:36"`
	Phone            string     `gorm:"column:phone;uniqueIndex;size:32;not null"`
	PasswordHash     string     `gorm:"column:password_hash"`
	FirstName        string     `gorm:"column:first_name"`
	LastName         string     `gorm:"column:last_name"`
	Email            *string    `gorm:"column:email"`
	Neighborhood     *string    `gorm:"column:neighborhood"`
	SecondaryContact *string    `gorm:"column:secondary_contact"`
	ProfilePhotoURL  *string    `gorm:"column:profile_photo_url"`
	Role             string     `gorm:"column:role;size:32;not null"`
	ProfileCompleted bool       `gorm:"column:profile_completed;not null;default:false"`
	IsSuspended      bool       `gorm:"column:is_suspended;not null;default:false"`
	SuspendedAt      *time.Time `gorm:"column:suspended_at"`
	ReactivatedAt    *time.Time `gorm:"column:reactivated_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Member) TableName() string {
	return "members"
}

type AuditLog struct {
	ID            string    `gorm:"primaryKey;size:36"`
	MemberID      string    `gorm:"column:member_id;size:36;index;not null"`
	Action        string    `gorm:"column:action;size:64;not null"`
	PerformedByID *string   `gorm:"column:performed_by_id;size:36"`
	Details       *string   `gorm:"column:details"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "member_audit_logs"
}
