package activity

import (
	"time"

	activityDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/activity"
	"github.com/frahmantamala/club-management/internal/core/directory"
)

type Type string

const (
	TypeMatch        Type = "MATCH"
	TypeTraining     Type = "TRAINING"
	TypeBirthday     Type = "BIRTHDAY"
	TypeAnnouncement Type = "ANNOUNCEMENT"
	TypeOther        Type = "OTHER"
)

var Types = []string{
	string(TypeMatch), string(TypeTraining), string(TypeBirthday), string(TypeAnnouncement), string(TypeOther),
}

// RecentWindow bounds the badge for members who never opened the feed.
const RecentWindow = 7 * 24 * time.Hour

type Activity struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Date        time.Time  `json:"date"`
	EndDate     *time.Time `json:"endDate"`
	Result      *string    `json:"result"`
	CreatedByID string     `json:"createdById"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Announcement struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"createdAt"`
	AuthorID  string              `json:"-"`
	Author    *directory.MemberRef `json:"author"`
}

type RecentCount struct {
	Count int64 `json:"count"`
}

func FromDataModel(a *activityDatamodel.Activity) *Activity {
	return &Activity{
		ID:          a.ID,
		Type:        Type(a.Type),
		Title:       a.Title,
		Description: a.Description,
		Date:        a.Date,
		EndDate:     a.EndDate,
		Result:      a.Result,
		CreatedByID: a.CreatedByID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*activityDatamodel.Activity) []*Activity {
	out := make([]*Activity, 0, len(rows))
	for _, a := range rows {
		out = append(out, FromDataModel(a))
	}
	return out
}

func AnnouncementFromDataModel(a *activityDatamodel.Announcement) *Announcement {
	return &Announcement{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		CreatedAt: a.CreatedAt,
		AuthorID:  a.AuthorID,
	}
}
