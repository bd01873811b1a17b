package member

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*memberDatamodel.Member, error)
	GetByID(ctx context.Context, id string) (*memberDatamodel.Member, error)
	// PhoneTaken ignores excludeID so a member can keep their own phone.
	PhoneTaken(ctx context.Context, phone, excludeID string) (bool, error)
	Create(ctx context.Context, m *memberDatamodel.Member, audit *memberDatamodel.AuditLog) error
	// Update applies fields and appends the audit rows in one transaction.
	Update(ctx context.Context, id string, fields map[string]interface{}, audit []*memberDatamodel.AuditLog) error
	Delete(ctx context.Context, id string) error
	AuditLog(ctx context.Context, memberID string) ([]*memberDatamodel.AuditLog, error)
}

type ServiceAPI interface {
	List(ctx context.Context, actor auth.Principal, filter ListFilter) ([]*Member, error)
	Get(ctx context.Context, actor auth.Principal, id string) (*Member, error)
	Me(ctx context.Context, actor auth.Principal) (*Member, error)
	CompleteProfile(ctx context.Context, actor auth.Principal, dto CompleteProfileDTO) (*Member, error)
	Create(ctx context.Context, actor auth.Principal, dto CreateMemberDTO) (*Member, error)
	Invite(ctx context.Context, actor auth.Principal, dto InviteMemberDTO) (*InviteResult, error)
	Update(ctx context.Context, actor auth.Principal, id string, dto UpdateMemberDTO) (*Member, error)
	Delete(ctx context.Context, actor auth.Principal, id string) error
	AuditLog(ctx context.Context, actor auth.Principal, id string) ([]*AuditEntry, error)
}

type InviteResult struct {
	Member *Member `json:"member"`
}

type Options struct {
	// Grace is how long a reactivated member has to settle before the next run re-suspends them.
	Grace      time.Duration
	BCryptCost int
}

type Service struct {
	repo      Repository
	dir       directory.Resolver
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

func NewService(repo Repository, dir directory.Resolver, policy *auth.Policy, publisher events.Publisher, logger *slog.Logger, opts Options) *Service {
	if opts.Grace <= 0 {
		opts.Grace = 24 * time.Hour
	}
	return &Service{
		repo:      repo,
		dir:       dir,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, actor auth.Principal, filter ListFilter) ([]*Member, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionListMembers); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list members", "error", err)
		return nil, internal.NewInternalError("failed to list members", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) Get(ctx context.Context, actor auth.Principal, id string) (*Member, error) {
	if actor.MemberID != id {
		if err := auth.Authorize(s.policy, actor, auth.ActionListMembers); err != nil {
			return nil, err
		}
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Me(ctx context.Context, actor auth.Principal) (*Member, error) {
	row, err := s.repo.GetByID(ctx, actor.MemberID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) CompleteProfile(ctx context.Context, actor auth.Principal, dto CompleteProfileDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	audit := s.audit(actor.MemberID, AuditProfileComplete, actor.MemberID, nil)
	if err := s.repo.Update(ctx, actor.MemberID, dto.Fields(), []*memberDatamodel.AuditLog{audit}); err != nil {
		return nil, s.wrap("failed to complete profile", err)
	}
	s.logger.Info("profile completed", "member_id", actor.MemberID)
	return s.Me(ctx, actor)
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, dto CreateMemberDTO) (*Member, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionManageMembers); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	phone := auth.NormalizePhone(dto.Phone)
	if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(dto.Password, s.opts.BCryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}
	role, _ := auth.ParseRole(dto.Role)

	photo := trimmedPtr(dto.ProfilePhotoURL)
	m := &memberDatamodel.Member{
		ID:               uuid.New().String(),
		Phone:            phone,
		PasswordHash:     hash,
		FirstName:        strings.TrimSpace(dto.FirstName),
		LastName:         strings.TrimSpace(dto.LastName),
		Email:            trimmedPtr(dto.Email),
		Neighborhood:     trimmedPtr(dto.Neighborhood),
		SecondaryContact: trimmedPtr(dto.SecondaryContact),
		ProfilePhotoURL:  photo,
		Role:             string(role),
		ProfileCompleted: photo != nil,
	}
	details := "role " + m.Role
	if err := s.repo.Create(ctx, m, s.audit(m.ID, AuditCreated, actor.MemberID, &details)); err != nil {
		return nil, s.wrap("failed to create member", err)
	}
	s.logger.Info("member created", "member_id", m.ID, "role", m.Role, "by", actor.MemberID)
	return FromDataModel(m), nil
}

// Invite registers a phone number only; the profile is completed by the member
// and the password set by an admin.
func (s *Service) Invite(ctx context.Context, actor auth.Principal, dto InviteMemberDTO) (*InviteResult, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionManageMembers); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	phone := auth.NormalizePhone(dto.Phone)
	if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
		return nil, err
	}
	role := auth.RolePlayer
	if dto.Role != "" {
		role, _ = auth.ParseRole(dto.Role)
	}
	m := &memberDatamodel.Member{
		ID:    uuid.New().String(),
		Phone: phone,
		Role:  string(role),
	}
	if err := s.repo.Create(ctx, m, s.audit(m.ID, AuditInvited, actor.MemberID, nil)); err != nil {
		return nil, s.wrap("failed to invite member", err)
	}
	s.logger.Info("member invited", "member_id", m.ID, "by", actor.MemberID)
	return &InviteResult{Member: FromDataModel(m)}, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Principal, id string, dto UpdateMemberDTO) (*Member, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionManageMembers); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fields := dto.profileFields()
	var audit []*memberDatamodel.AuditLog
	if len(fields) > 0 {
		audit = append(audit, s.audit(id, AuditUpdated, actor.MemberID, nil))
	}

	if dto.Phone != nil {
		phone := auth.NormalizePhone(*dto.Phone)
		if phone != current.Phone {
			if err := s.ensurePhoneFree(ctx, phone, id); err != nil {
				return nil, err
			}
			fields["phone"] = phone
		}
	}
	if dto.Password != nil {
		hash, err := auth.HashPassword(*dto.Password, s.opts.BCryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		fields["password_hash"] = hash
		audit = append(audit, s.audit(id, AuditPasswordReset, actor.MemberID, nil))
	}
	if dto.Role != nil {
		role, _ := auth.ParseRole(*dto.Role)
		if string(role) != current.Role {
			fields["role"] = string(role)
			details := fmt.Sprintf("%s -> %s", current.Role, role)
			audit = append(audit, s.audit(id, AuditRoleChanged, actor.MemberID, &details))
		}
	}

	var event events.Event
	if dto.IsSuspended != nil && *dto.IsSuspended != current.IsSuspended {
		if *dto.IsSuspended {
			fields["is_suspended"] = true
			fields["suspended_at"] = now
			fields["reactivated_at"] = nil
			audit = append(audit, s.audit(id, AuditSuspended, actor.MemberID, nil))
			event = events.NewMemberSuspendedEvent(id, 0, false)
		} else {
			// the member is back in but only for the grace window unless they pay
			graceEnds := now.Add(s.opts.Grace)
			fields["is_suspended"] = false
			fields["suspended_at"] = nil
			fields["reactivated_at"] = now
			details := "grace until " + graceEnds.Format(time.RFC3339)
			audit = append(audit, s.audit(id, AuditReactivated, actor.MemberID, &details))
			event = events.NewMemberReactivatedEvent(id, now, graceEnds, actor.MemberID)
		}
	}

	if len(fields) == 0 {
		return FromDataModel(current), nil
	}
	if err := s.repo.Update(ctx, id, fields, audit); err != nil {
		return nil, s.wrap("failed to update member", err)
	}
	s.logger.Info("member updated", "member_id", id, "by", actor.MemberID, "audit_entries", len(audit))

	if event != nil && s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish member event", "member_id", id, "event", event.EventType(), "error", err)
		}
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if err := auth.Authorize(s.policy, actor, auth.ActionManageMembers); err != nil {
		return err
	}
	if actor.MemberID == id {
		return internal.ErrSelfDelete
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrap("failed to delete member", err)
	}
	s.logger.Info("member deleted", "member_id", id, "by", actor.MemberID)
	return nil
}

func (s *Service) AuditLog(ctx context.Context, actor auth.Principal, id string) ([]*AuditEntry, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionListMembers); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.AuditLog(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load audit log", err)
	}

	var ids []string
	for _, r := range rows {
		ids = directory.Deref(ids, r.PerformedByID)
	}
	refs, err := s.dir.Members(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve members", err)
	}

	out := make([]*AuditEntry, 0, len(rows))
	for _, r := range rows {
		e := AuditFromDataModel(r)
		e.PerformedBy = directory.MemberPtr(refs, r.PerformedByID)
		out = append(out, e)
	}
	return out, nil
}

func (s *Service) ensurePhoneFree(ctx context.Context, phone, excludeID string) error {
	taken, err := s.repo.PhoneTaken(ctx, phone, excludeID)
	if err != nil {
		return internal.NewInternalError("failed to check phone", err)
	}
	if taken {
		return internal.ErrPhoneTaken
	}
	return nil
}

func (s *Service) audit(memberID, action, performedBy string, details *string) *memberDatamodel.AuditLog {
	entry := &memberDatamodel.AuditLog{
		ID:       uuid.New().String(),
		MemberID: memberID,
		Action:   action,
		Details:  details,
	}
	if performedBy != "" {
		entry.PerformedByID = &performedBy
	}
	return entry
}

// wrap passes AppErrors through and hides everything else behind a 500.
func (s *Service) wrap(msg string, err error) error {
	var appErr *internal.AppError
	if stdErrors.As(err, &appErr) {
		return err
	}
	s.logger.Error(msg, "error", err)
	return internal.NewInternalError(msg, err)
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
