package notification

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/cache"
	"github.com/frahmantamala/club-management/internal/contribution"
	notificationDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/club-management/internal/core/directory"
)

type Store interface {
	Writer
	InApp(ctx context.Context, memberID string, limit int) ([]*notificationDatamodel.InApp, error)
	UnreadCount(ctx context.Context, memberID string) (int64, error)
	// MarkRead only touches the member's own notification.
	MarkRead(ctx context.Context, memberID, id string) error
	MarkAllRead(ctx context.Context, memberID string) (int64, error)
	Logs(ctx context.Context, filter LogFilter) ([]*notificationDatamodel.Log, error)
}

type Recipients interface {
	Recipient(ctx context.Context, id string) (*Recipient, error)
	ByRoles(ctx context.Context, roles []auth.Role) ([]Recipient, error)
}

type ArrearsSource interface {
	Arrears(ctx context.Context, year, month *int) (*contribution.ArrearsReport, error)
}

type Queue interface {
	Enqueue(job Job) error
	GatewayConfigured() bool
}

type ServiceAPI interface {
	InApp(ctx context.Context, actor auth.Principal, limit int) ([]*InApp, error)
	UnreadCount(ctx context.Context, actor auth.Principal) (UnreadCount, error)
	MarkRead(ctx context.Context, actor auth.Principal, id string) error
	MarkAllRead(ctx context.Context, actor auth.Principal) error
	Logs(ctx context.Context, actor auth.Principal, filter LogFilter) ([]*Log, error)
	Status(ctx context.Context, actor auth.Principal) (Status, error)
	ConfirmPayment(ctx context.Context, actor auth.Principal, dto ConfirmPaymentDTO) (*Ack, error)
	RemindCotisation(ctx context.Context, actor auth.Principal, dto RemindCotisationDTO) (*Ack, error)
	RemindAllArrears(ctx context.Context, actor auth.Principal, dto RemindAllArrearsDTO) (*BroadcastResult, error)
}

type Service struct {
	store      Store
	recipients Recipients
	arrears    ArrearsSource
	queue      Queue
	dir        directory.Resolver
	policy     *auth.Policy
	cache      cache.Cache
	cacheTTL   time.Duration
	location   *time.Location
	logger     *slog.Logger
}

func NewService(store Store, recipients Recipients, arrears ArrearsSource, queue Queue, dir directory.Resolver, policy *auth.Policy, c cache.Cache, cacheTTL time.Duration, loc *time.Location, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:      store,
		recipients: recipients,
		arrears:    arrears,
		queue:      queue,
		dir:        dir,
		policy:     policy,
		cache:      c,
		cacheTTL:   cacheTTL,
		location:   loc,
		logger:     logger,
	}
}

func (s *Service) InApp(ctx context.Context, actor auth.Principal, limit int) ([]*InApp, error) {
	rows, err := s.store.InApp(ctx, actor.MemberID, limit)
	if err != nil {
		s.logger.Error("failed to list notifications", "member_id", actor.MemberID, "error", err)
		return nil, internal.NewInternalError("failed to list notifications", err)
	}
	out := make([]*InApp, 0, len(rows))
	for _, r := range rows {
		out = append(out, InAppFromDataModel(r))
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, actor auth.Principal) (UnreadCount, error) {
	return cache.Remember(ctx, s.cache, cache.KeyUnreadPrefix+actor.MemberID, s.cacheTTL, s.logger,
		func(ctx context.Context) (UnreadCount, error) {
			n, err := s.store.UnreadCount(ctx, actor.MemberID)
			if err != nil {
				return UnreadCount{}, internal.NewInternalError("failed to count notifications", err)
			}
			return UnreadCount{Count: n}, nil
		})
}

func (s *Service) MarkRead(ctx context.Context, actor auth.Principal, id string) error {
	if err := s.store.MarkRead(ctx, actor.MemberID, id); err != nil {
		if stdErrors.Is(err, internal.ErrNotificationNotFound) {
			return err
		}
		return internal.NewInternalError("failed to mark notification read", err)
	}
	cache.Forget(ctx, s.cache, s.logger, cache.KeyUnreadPrefix+actor.MemberID)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, actor auth.Principal) error {
	n, err := s.store.MarkAllRead(ctx, actor.MemberID)
	if err != nil {
		return internal.NewInternalError("failed to mark notifications read", err)
	}
	cache.Forget(ctx, s.cache, s.logger, cache.KeyUnreadPrefix+actor.MemberID)
	s.logger.Debug("notifications marked read", "member_id", actor.MemberID, "count", n)
	return nil
}

func (s *Service) Logs(ctx context.Context, actor auth.Principal, filter LogFilter) ([]*Log, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionSendReminders); err != nil {
		return nil, err
	}
	rows, err := s.store.Logs(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list notification logs", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.MemberID)
	}
	refs, err := s.dir.Members(ctx, directory.Unique(ids))
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve members", err)
	}
	out := make([]*Log, 0, len(rows))
	for _, r := range rows {
		l := LogFromDataModel(r)
		l.Member = directory.MemberPtr(refs, &r.MemberID)
		out = append(out, l)
	}
	return out, nil
}

func (s *Service) Status(ctx context.Context, actor auth.Principal) (Status, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionSendReminders); err != nil {
		return Status{}, err
	}
	return Status{GatewayConfigured: s.queue.GatewayConfigured()}, nil
}

func (s *Service) ConfirmPayment(ctx context.Context, actor auth.Principal, dto ConfirmPaymentDTO) (*Ack, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionRecordPayment); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Nous confirmons la réception de votre paiement de %s", FormatFCFA(dto.Amount))
	if label := strings.TrimSpace(dto.PeriodLabel); label != "" {
		msg += " pour " + label
	}
	msg += ". Merci !"
	if err := s.Notify(ctx, dto.MemberID, TypePaymentConfirmed, "Paiement confirmé", msg); err != nil {
		return nil, err
	}
	return &Ack{OK: true, Message: "Confirmation envoyée."}, nil
}

func (s *Service) RemindCotisation(ctx context.Context, actor auth.Principal, dto RemindCotisationDTO) (*Ack, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionSendReminders); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Rappel : votre cotisation de %s n'a pas encore été réglée.", strings.TrimSpace(dto.PeriodLabel))
	if err := s.Notify(ctx, dto.MemberID, TypeReminder, "Rappel de cotisation", msg); err != nil {
		return nil, err
	}
	s.logger.Info("dues reminder queued", "member_id", dto.MemberID, "by", actor.MemberID)
	return &Ack{OK: true, Message: "Rappel envoyé."}, nil
}

func (s *Service) RemindAllArrears(ctx context.Context, actor auth.Principal, dto RemindAllArrearsDTO) (*BroadcastResult, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionSendReminders); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	report, err := s.arrears.Arrears(ctx, dto.Year, dto.Month)
	if err != nil {
		return nil, err
	}
	period := contribution.Period{Year: report.PeriodYear, Month: report.PeriodMonth}.Label()
	title := "Rappel de cotisation"
	if dto.Title != nil && strings.TrimSpace(*dto.Title) != "" {
		title = strings.TrimSpace(*dto.Title)
	}

	sent := 0
	for _, m := range report.Members {
		msg := strings.NewReplacer("{firstName}", m.FirstName, "{period}", period).Replace(dto.Message)
		err := s.queue.Enqueue(Job{
			Recipient: Recipient{ID: m.ID, FirstName: m.FirstName, Phone: m.Phone},
			Type:      TypeArrearsBroadcast,
			Title:     &title,
			Message:   msg,
		})
		if err != nil {
			s.logger.Warn("arrears reminder not queued", "member_id", m.ID, "error", err)
			continue
		}
		sent++
	}
	s.logger.Info("arrears reminders queued", "period", period, "sent", sent, "total", report.Total, "by", actor.MemberID)
	return &BroadcastResult{
		Sent:    sent,
		Total:   len(report.Members),
		Message: fmt.Sprintf("%d rappel(s) envoyé(s) sur %d membre(s) en retard pour %s.", sent, len(report.Members), period),
	}, nil
}

// Notify queues a notification for one member.
func (s *Service) Notify(ctx context.Context, memberID string, typ Type, title, message string) error {
	r, err := s.recipients.Recipient(ctx, memberID)
	if err != nil {
		return err
	}
	return s.enqueue(Job{Recipient: *r, Type: typ, Title: &title, Message: message})
}

// NotifyRoles queues one notification per member holding any of roles,
// skipping exclude. It returns how many were queued.
func (s *Service) NotifyRoles(ctx context.Context, roles []auth.Role, exclude string, typ Type, title, message string) (int, error) {
	list, err := s.recipients.ByRoles(ctx, roles)
	if err != nil {
		return 0, internal.NewInternalError("failed to load recipients", err)
	}
	queued := 0
	for _, r := range list {
		if r.ID == exclude {
			continue
		}
		if err := s.enqueue(Job{Recipient: r, Type: typ, Title: &title, Message: message}); err != nil {
			s.logger.Warn("notification not queued", "member_id", r.ID, "type", typ, "error", err)
			continue
		}
		queued++
	}
	return queued, nil
}

func (s *Service) enqueue(job Job) error {
	if err := s.queue.Enqueue(job); err != nil {
		return internal.NewInternalError("failed to queue notification", err)
	}
	return nil
}

// FormatFCFA renders 10000 as "10 000 FCFA".
func FormatFCFA(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	out := b.String() + " FCFA"
	if neg {
		return "-" + out
	}
	return out
}
