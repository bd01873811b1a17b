package transfer

import "time"

type CashBoxTransfer struct {
	ID                     string     `gorm:"primaryKey;size:36"`
	Type                   string     `gorm:"column:type;size:16;not null"`
	Amount                 int64      `gorm:"column:amount;not null"`
	Description            *string    `gorm:"column:description"`
	FromCashBoxID          *string    `gorm:"column:from_cash_box_id;size:36;index"`
	ToCashBoxID            *string    `gorm:"column:to_cash_box_id;size:36;index"`
	RequestedByID          string     `gorm:"column:requested_by_id;size:36;not null"`
	Status                 string     `gorm:"column:status;size:32;not null;index"`
	RejectReason           *string    `gorm:"column:reject_reason"`
	TreasurerApprovedByID  *string    `gorm:"column:treasurer_approved_by_id;size:36"`
	TreasurerApprovedAt    *time.Time `gorm:"column:treasurer_approved_at"`
	CommissionerApprovedBy *string    `gorm:"column:commissioner_approved_by_id;size:36"`
	CommissionerApprovedAt *time.Time `gorm:"column:commissioner_approved_at"`
	RejectedByID           *string    `gorm:"column:rejected_by_id;size:36"`
	RejectedAt             *time.Time `gorm:"column:rejected_at"`
	CreatedAt              time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CashBoxTransfer) TableName() string {
	return "cash_box_transfers"
}
