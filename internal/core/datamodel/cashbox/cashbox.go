package cashbox

import "time"

type CashBox struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	Order       int       `gorm:"column:sort_order;not null;default:0"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CashBox) TableName() string {
	return "cash_boxes"
}
