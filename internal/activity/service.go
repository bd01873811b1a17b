package activity

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/cache"
	activityDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/activity"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context) ([]*activityDatamodel.Activity, error)
	GetByID(ctx context.Context, id string) (*activityDatamodel.Activity, error)
	Create(ctx context.Context, a *activityDatamodel.Activity) error
	Announcements(ctx context.Context) ([]*activityDatamodel.Announcement, error)
	CreateAnnouncement(ctx context.Context, a *activityDatamodel.Announcement) error
	// SeenAt is nil when the member never opened the feed.
	SeenAt(ctx context.Context, memberID string) (*time.Time, error)
	MarkSeen(ctx context.Context, memberID string, at time.Time) error
	// CountSince counts activities and announcements created after since.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type ServiceAPI interface {
	List(ctx context.Context) ([]*Activity, error)
	Get(ctx context.Context, id string) (*Activity, error)
	Create(ctx context.Context, actor auth.Principal, dto CreateActivityDTO) (*Activity, error)
	Announcements(ctx context.Context) ([]*Announcement, error)
	CreateAnnouncement(ctx context.Context, actor auth.Principal, dto CreateAnnouncementDTO) (*Announcement, error)
	RecentCount(ctx context.Context, actor auth.Principal) (RecentCount, error)
	MarkSeen(ctx context.Context, actor auth.Principal) error
}

type Service struct {
	repo      Repository
	dir       directory.Resolver
	policy    *auth.Policy
	publisher events.Publisher
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, dir directory.Resolver, policy *auth.Policy, publisher events.Publisher, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		repo:      repo,
		dir:       dir,
		policy:    policy,
		publisher: publisher,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*Activity, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list activities", "error", err)
		return nil, internal.NewInternalError("failed to list activities", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Activity, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, dto CreateActivityDTO) (*Activity, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionCreateActivity); err != nil {
		return nil, err
	}
	date, end, verr := dto.Validate()
	if verr != nil {
		return nil, verr
	}
	row := &activityDatamodel.Activity{
		ID:          uuid.New().String(),
		Type:        strings.ToUpper(strings.TrimSpace(dto.Type)),
		Title:       strings.TrimSpace(dto.Title),
		Description: dto.Description,
		Date:        date,
		EndDate:     end,
		Result:      dto.Result,
		CreatedByID: actor.MemberID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create activity", "error", err)
		return nil, internal.NewInternalError("failed to create activity", err)
	}
	s.logger.Info("activity created", "activity_id", row.ID, "type", row.Type, "by", actor.MemberID)
	s.publish(ctx, events.NewActivityPublishedEvent(row.ID, "activity", row.Title, actor.MemberID))
	return FromDataModel(row), nil
}

func (s *Service) Announcements(ctx context.Context) ([]*Announcement, error) {
	rows, err := s.repo.Announcements(ctx)
	if err != nil {
		s.logger.Error("failed to list announcements", "error", err)
		return nil, internal.NewInternalError("failed to list announcements", err)
	}
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.AuthorID)
	}
	refs, err := s.dir.Members(ctx, directory.Unique(ids))
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve authors", err)
	}
	out := make([]*Announcement, 0, len(rows))
	for _, r := range rows {
		a := AnnouncementFromDataModel(r)
		a.Author = directory.MemberPtr(refs, &r.AuthorID)
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) CreateAnnouncement(ctx context.Context, actor auth.Principal, dto CreateAnnouncementDTO) (*Announcement, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionCreateAnnouncement); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	row := &activityDatamodel.Announcement{
		ID:       uuid.New().String(),
		Title:    strings.TrimSpace(dto.Title),
		Content:  strings.TrimSpace(dto.Content),
		AuthorID: actor.MemberID,
	}
	if err := s.repo.CreateAnnouncement(ctx, row); err != nil {
		s.logger.Error("failed to create announcement", "error", err)
		return nil, internal.NewInternalError("failed to create announcement", err)
	}
	s.publish(ctx, events.NewActivityPublishedEvent(row.ID, "announcement", row.Title, actor.MemberID))

	out := AnnouncementFromDataModel(row)
	if refs, err := s.dir.Members(ctx, []string{actor.MemberID}); err == nil {
		out.Author = directory.MemberPtr(refs, &row.AuthorID)
	}
	return out, nil
}

// RecentCount is the feed badge: items created since the member last looked.
func (s *Service) RecentCount(ctx context.Context, actor auth.Principal) (RecentCount, error) {
	return cache.Remember(ctx, s.cache, cache.KeyRecentPrefix+actor.MemberID, s.cacheTTL, s.logger,
		func(ctx context.Context) (RecentCount, error) {
			seen, err := s.repo.SeenAt(ctx, actor.MemberID)
			if err != nil {
				return RecentCount{}, internal.NewInternalError("failed to read feed marker", err)
			}
			since := s.now().Add(-RecentWindow)
			if seen != nil {
				since = *seen
			}
			n, err := s.repo.CountSince(ctx, since)
			if err != nil {
				return RecentCount{}, internal.NewInternalError("failed to count recent activities", err)
			}
			return RecentCount{Count: n}, nil
		})
}

func (s *Service) MarkSeen(ctx context.Context, actor auth.Principal) error {
	if err := s.repo.MarkSeen(ctx, actor.MemberID, s.now()); err != nil {
		s.logger.Error("failed to mark feed seen", "member_id", actor.MemberID, "error", err)
		return internal.NewInternalError("failed to mark activities seen", err)
	}
	cache.Forget(ctx, s.cache, s.logger, cache.KeyRecentPrefix+actor.MemberID)
	return nil
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish activity event", "event", evt.EventType(), "error", err)
	}
}
