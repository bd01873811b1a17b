package contribution

import "time"

type Contribution struct {
	ID             string     `gorm:"primaryKey;size:36"`
	Name           string     `gorm:"column:name;not null"`
	Type           string     `gorm:"column:type;size:16;not null;index"`
	Amount         *int64     `gorm:"column:amount"`
	Frequency      *string    `gorm:"column:frequency"`
	StartDate      *time.Time `gorm:"column:start_date"`
	EndDate        *time.Time `gorm:"column:end_date"`
	TargetAmount   *int64     `gorm:"column:target_amount"`
	ReceivedAmount int64      `gorm:"column:received_amount;not null;default:0"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Contribution) TableName() string {
	return "contributions"
}

type Payment struct {
	ID             string    `gorm:"primaryKey;size:36"`
	MemberID       string    `gorm:"column:member_id;size:36;not null;index"`
	ContributionID string    `gorm:"column:contribution_id;size:36;not null;index"`
	Amount         int64     `gorm:"column:amount;not null"`
	PaidAt         time.Time `gorm:"column:paid_at;not null"`
	PeriodYear     *int      `gorm:"column:period_year"`
	PeriodMonth    *int      `gorm:"column:period_month"`
	CashBoxID      *string   `gorm:"column:cash_box_id;size:36;index"`
	RecordedByID   *string   `gorm:"column:recorded_by_id;size:36"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
