package activity

import "time"

type Activity struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Type        string     `gorm:"column:type;size:32;not null"`
	Title       string     `gorm:"column:title;not null"`
	Description *string    `gorm:"column:description"`
	Date        time.Time  `gorm:"column:date;not null"`
	EndDate     *time.Time `gorm:"column:end_date"`
	Result      *string    `gorm:"column:result"`
	CreatedByID string     `gorm:"column:created_by_id;size:36"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Activity) TableName() string {
	return "activities"
}

type Announcement struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Title     string    `gorm:"column:title;not null"`
	Content   string    `gorm:"column:content;not null"`
	AuthorID  string    `gorm:"column:author_id;size:36;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Announcement) TableName() string {
	return "announcements"
}

// Seen records the last time a member opened the activity feed.
type Seen struct {
	MemberID string    `gorm:"primaryKey;size:36"`
	SeenAt   time.Time `gorm:"column:seen_at;not null"`
}

func (Seen) TableName() string {
	return "activity_seen"
}
