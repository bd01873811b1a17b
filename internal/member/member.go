package member

import (
	"time"

	"github.com/frahmantamala/club-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/frahmantamala/club-management/internal/core/directory"
)

const (
	AuditCreated         = "CREATED"
	AuditInvited         = "INVITED"
	AuditUpdated         = "UPDATED"
	AuditRoleChanged     = "ROLE_CHANGED"
	AuditSuspended       = "SUSPENDED"
	AuditReactivated     = "REACTIVATED"
	AuditPasswordReset   = "PASSWORD_RESET"
	AuditProfileComplete = "PROFILE_COMPLETED"
	AuditDeleted         = "DELETED"
)

type Member struct {
	auth.AuthUser
	Neighborhood     *string    `json:"neighborhood"`
	SecondaryContact *string    `json:"secondaryContact"`
	SuspendedAt      *time.Time `json:"suspendedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type AuditEntry struct {
	ID            string               `json:"id"`
	CreatedAt     time.Time            `json:"createdAt"`
	Action        string               `json:"action"`
	PerformedByID *string              `json:"performedById"`
	PerformedBy   *directory.MemberRef `json:"performedBy"`
	Details       *string              `json:"details"`
}

func FromDataModel(m *memberDatamodel.Member) *Member {
	return &Member{
		AuthUser:         auth.NewAuthUser(m),
		Neighborhood:     m.Neighborhood,
		SecondaryContact: m.SecondaryContact,
		SuspendedAt:      m.SuspendedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*memberDatamodel.Member) []*Member {
	out := make([]*Member, 0, len(rows))
	for _, m := range rows {
		out = append(out, FromDataModel(m))
	}
	return out
}

func AuditFromDataModel(l *memberDatamodel.AuditLog) *AuditEntry {
	return &AuditEntry{
		ID:            l.ID,
		CreatedAt:     l.CreatedAt,
		Action:        l.Action,
		PerformedByID: l.PerformedByID,
		Details:       l.Details,
	}
}
