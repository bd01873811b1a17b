package contribution

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	contributionDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/contribution"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/metrics"
	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context) ([]*contributionDatamodel.Contribution, error)
	GetByID(ctx context.Context, id string) (*contributionDatamodel.Contribution, error)
	Create(ctx context.Context, c *contributionDatamodel.Contribution) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// Monthly returns the oldest MONTHLY row or ErrNoMonthlyContribution.
	Monthly(ctx context.Context) (*contributionDatamodel.Contribution, error)
	// RecordPayment inserts the payment and, for a project, bumps its received total.
	RecordPayment(ctx context.Context, p *contributionDatamodel.Payment, project bool) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]*contributionDatamodel.Payment, error)
}

// MemberStore exposes the member fields the dues rules need.
type MemberStore interface {
	Standings(ctx context.Context) ([]*Standing, error)
	Standing(ctx context.Context, id string) (*Standing, error)
	ClearGrace(ctx context.Context, id string) error
}

type CashBoxLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type ServiceAPI interface {
	List(ctx context.Context) ([]*Contribution, error)
	Get(ctx context.Context, id string) (*Contribution, error)
	Monthly(ctx context.Context) (*Contribution, error)
	Create(ctx context.Context, actor auth.Principal, dto CreateContributionDTO) (*Contribution, error)
	Update(ctx context.Context, actor auth.Principal, id string, dto UpdateContributionDTO) (*Contribution, error)
	VisiblePayments(ctx context.Context, actor auth.Principal, filter PaymentFilter) ([]*Payment, error)
	RecordPayment(ctx context.Context, actor auth.Principal, dto RecordPaymentDTO) (*Payment, error)
	RecordSelfPayment(ctx context.Context, actor auth.Principal, dto SelfPaymentDTO) (*Payment, error)
	Arrears(ctx context.Context, year, month *int) (*ArrearsReport, error)
	UnpaidMonths(ctx context.Context, memberID string) (*UnpaidMonthsResult, error)
	HistorySummary(ctx context.Context, year, month *int) (*HistorySummary, error)
	MemberHistory(ctx context.Context, actor auth.Principal, memberID string) (*MemberHistory, error)
}

type Options struct {
	Location       *time.Location
	LookbackMonths int
}

type Service struct {
	repo      Repository
	members   MemberStore
	boxes     CashBoxLookup
	directory directory.Resolver
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

func NewService(repo Repository, members MemberStore, boxes CashBoxLookup, dir directory.Resolver, policy *auth.Policy, publisher events.Publisher, logger *slog.Logger, opts Options) *Service {
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LookbackMonths <= 0 {
		opts.LookbackMonths = DefaultLookbackMonths
	}
	return &Service{
		repo:      repo,
		members:   members,
		boxes:     boxes,
		directory: dir,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*Contribution, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list contributions", "error", err)
		return nil, internal.NewInternalError("failed to list contributions", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Contribution, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Monthly(ctx context.Context) (*Contribution, error) {
	row, err := s.repo.Monthly(ctx)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, dto CreateContributionDTO) (*Contribution, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionManageContributions); err != nil {
		return nil, err
	}
	start, end, verr := dto.Validate()
	if verr != nil {
		return nil, verr
	}

	kind := Type(strings.ToUpper(strings.TrimSpace(dto.Type)))
	if kind == TypeMonthly {
		_, err := s.repo.Monthly(ctx)
		if err == nil {
			return nil, internal.ErrMonthlyExists
		}
		if !stdErrors.Is(err, internal.ErrNoMonthlyContribution) {
			return nil, internal.NewInternalError("failed to check monthly contribution", err)
		}
	}

	now := s.now()
	c := &Contribution{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(dto.Name),
		Type:      kind,
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch kind {
	case TypeMonthly:
		c.Amount = dto.Amount
		freq := "MONTHLY"
		if dto.Frequency != nil && strings.TrimSpace(*dto.Frequency) != "" {
			freq = strings.TrimSpace(*dto.Frequency)
		}
		c.Frequency = &freq
	case TypeProject:
		c.TargetAmount = dto.TargetAmount
		var zero int64
		c.ReceivedAmount = &zero
	}

	if err := s.repo.Create(ctx, ToDataModel(c)); err != nil {
		s.logger.Error("failed to create contribution", "error", err)
		return nil, internal.NewInternalError("failed to create contribution", err)
	}
	s.logger.Info("contribution created", "contribution_id", c.ID, "type", c.Type, "member_id", actor.MemberID)
	return c, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Principal, id string, dto UpdateContributionDTO) (*Contribution, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionManageContributions); err != nil {
		return nil, err
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields, verr := dto.Fields(Type(row.Type), row.StartDate, row.EndDate)
	if verr != nil {
		return nil, verr
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, internal.NewInternalError("failed to update contribution", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, filter PaymentFilter) ([]*Payment, error) {
	rows, err := s.repo.ListPayments(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list payments", "error", err)
		return nil, internal.NewInternalError("failed to list payments", err)
	}
	return s.enrich(ctx, PaymentsFromDataModel(rows)), nil
}

// VisiblePayments narrows the listing to the actor's own payments unless the
// actor reads the club history or records payments.
func (s *Service) VisiblePayments(ctx context.Context, actor auth.Principal, filter PaymentFilter) ([]*Payment, error) {
	if !s.policy.CanAny(actor.Role, auth.ActionViewHistory, auth.ActionRecordPayment) {
		own := actor.MemberID
		filter.MemberID = &own
	}
	return s.ListPayments(ctx, filter)
}

func (s *Service) RecordPayment(ctx context.Context, actor auth.Principal, dto RecordPaymentDTO) (*Payment, error) {
	if err := auth.Authorize(s.policy, actor, auth.ActionRecordPayment); err != nil {
		s.logger.Warn("record payment denied", "member_id", actor.MemberID, "role", actor.Role)
		return nil, err
	}
	p, _, err := s.record(ctx, actor, dto, "staff")
	return p, err
}

// RecordSelfPayment records a payment by the member for themselves. When the
// member is inside the reactivation grace window and this payment settles the
// last unpaid month, the grace marker is cleared.
func (s *Service) RecordSelfPayment(ctx context.Context, actor auth.Principal, dto SelfPaymentDTO) (*Payment, error) {
	p, member, err := s.record(ctx, actor, dto.ForMember(actor.MemberID), "self")
	if err != nil {
		return nil, err
	}
	if member.ReactivatedAt == nil || p.Contribution == nil || p.Contribution.Type != TypeMonthly {
		return p, nil
	}

	res, err := s.UnpaidMonths(ctx, member.ID)
	if err != nil {
		s.logger.Warn("failed to recompute unpaid months", "member_id", member.ID, "error", err)
		return p, nil
	}
	if len(res.UnpaidMonths) == 0 {
		if err := s.members.ClearGrace(ctx, member.ID); err != nil {
			s.logger.Error("failed to clear grace window", "member_id", member.ID, "error", err)
			return p, nil
		}
		s.logger.Info("grace window cleared by payment", "member_id", member.ID)
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, actor auth.Principal, dto RecordPaymentDTO, source string) (*Payment, *Standing, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, nil, verr
	}

	crow, err := s.repo.GetByID(ctx, strings.TrimSpace(dto.ContributionID))
	if err != nil {
		return nil, nil, err
	}
	c := FromDataModel(crow)

	member, err := s.members.Standing(ctx, strings.TrimSpace(dto.MemberID))
	if err != nil {
		return nil, nil, err
	}

	if dto.CashBoxID != nil && strings.TrimSpace(*dto.CashBoxID) != "" {
		ok, err := s.boxes.Exists(ctx, strings.TrimSpace(*dto.CashBoxID))
		if err != nil {
			return nil, nil, internal.NewInternalError("failed to check cash box", err)
		}
		if !ok {
			return nil, nil, internal.ErrCashBoxNotFound
		}
	} else {
		dto.CashBoxID = nil
	}

	now := s.now()
	p := &Payment{
		ID:             uuid.New().String(),
		MemberID:       member.ID,
		ContributionID: c.ID,
		Contribution:   &Ref{ID: c.ID, Name: c.Name, Type: c.Type},
		Amount:         dto.Amount,
		PaidAt:         now,
		PeriodYear:     dto.PeriodYear,
		PeriodMonth:    dto.PeriodMonth,
		CashBoxID:      dto.CashBoxID,
		CreatedAt:      now,
	}
	if actor.MemberID != "" {
		recordedBy := actor.MemberID
		p.RecordedByID = &recordedBy
	}
	// Monthly dues are always tagged so arrears can find them.
	if c.Type == TypeMonthly && p.PeriodYear == nil {
		period := PeriodOf(now, s.opts.Location)
		p.PeriodYear, p.PeriodMonth = &period.Year, &period.Month
	}

	if err := s.repo.RecordPayment(ctx, PaymentToDataModel(p), c.Type == TypeProject); err != nil {
		s.logger.Error("failed to record payment", "error", err)
		return nil, nil, internal.NewInternalError("failed to record payment", err)
	}

	metrics.PaymentsRecorded.WithLabelValues(source).Inc()
	metrics.PaymentAmount.Add(float64(p.Amount))
	s.logger.Info("payment recorded",
		"payment_id", p.ID,
		"member_id", p.MemberID,
		"contribution_id", p.ContributionID,
		"amount", p.Amount,
		"source", source)

	if s.publisher != nil {
		evt := events.NewPaymentRecordedEvent(p.ID, p.MemberID, p.ContributionID, p.Amount, p.PeriodYear, p.PeriodMonth, actor.MemberID)
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Error("failed to publish payment event", "payment_id", p.ID, "error", err)
		}
	}
	return s.enrich(ctx, []*Payment{p})[0], member, nil
}

func (s *Service) period(year, month *int) (Period, error) {
	current := PeriodOf(s.now(), s.opts.Location)
	if year == nil && month == nil {
		return current, nil
	}
	if year == nil {
		year = &current.Year
	}
	if month == nil {
		month = &current.Month
	}
	if verr := validatePeriodTag(year, month); verr != nil {
		return Period{}, verr
	}
	return Period{Year: *year, Month: *month}, nil
}

// Snapshot is everything the dues rules read, loaded once.
type Snapshot struct {
	Monthly  *Contribution
	Members  []*Standing
	Payments []*Payment
}

// Snapshot returns a nil Monthly when no monthly contribution exists yet.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	row, err := s.repo.Monthly(ctx)
	switch {
	case err == nil:
		snap.Monthly = FromDataModel(row)
	case stdErrors.Is(err, internal.ErrNoMonthlyContribution):
	default:
		return nil, internal.NewInternalError("failed to load monthly contribution", err)
	}

	snap.Members, err = s.members.Standings(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load members", err)
	}
	if snap.Monthly == nil {
		return snap, nil
	}
	rows, err := s.repo.ListPayments(ctx, PaymentFilter{ContributionID: &snap.Monthly.ID})
	if err != nil {
		return nil, internal.NewInternalError("failed to load payments", err)
	}
	snap.Payments = PaymentsFromDataModel(rows)
	return snap, nil
}

// Unpaid applies UnpaidMonths with the service's clock and settings.
func (s *Service) Unpaid(snap *Snapshot, member *Standing, now time.Time) []Period {
	return UnpaidMonths(member, snap.Monthly, snap.Payments, now, s.opts.Location, s.opts.LookbackMonths)
}

func (s *Service) Arrears(ctx context.Context, year, month *int) (*ArrearsReport, error) {
	period, err := s.period(year, month)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Monthly == nil {
		return nil, internal.ErrNoMonthlyContribution
	}
	return Arrears(period, snap.Members, snap.Payments, snap.Monthly.ID), nil
}

type UnpaidMonthsResult struct {
	UnpaidMonths          []Period `json:"unpaidMonths"`
	MonthlyContributionID *string  `json:"monthlyContributionId"`
}

func (s *Service) UnpaidMonths(ctx context.Context, memberID string) (*UnpaidMonthsResult, error) {
	member, err := s.members.Standing(ctx, memberID)
	if err != nil {
		return nil, err
	}
	res := &UnpaidMonthsResult{UnpaidMonths: []Period{}}
	row, err := s.repo.Monthly(ctx)
	if err != nil {
		if stdErrors.Is(err, internal.ErrNoMonthlyContribution) {
			return res, nil
		}
		return nil, internal.NewInternalError("failed to load monthly contribution", err)
	}
	monthly := FromDataModel(row)
	res.MonthlyContributionID = &monthly.ID
	if member.Role == auth.RoleAdmin {
		return res, nil
	}

	rows, err := s.repo.ListPayments(ctx, PaymentFilter{MemberID: &member.ID, ContributionID: &monthly.ID})
	if err != nil {
		return nil, internal.NewInternalError("failed to load payments", err)
	}
	res.UnpaidMonths = UnpaidMonths(member, monthly, PaymentsFromDataModel(rows), s.now(), s.opts.Location, s.opts.LookbackMonths)
	return res, nil
}

type MonthTotal struct {
	Year           int   `json:"year"`
	Month          int   `json:"month"`
	TotalCollected int64 `json:"totalCollected"`
	PaymentsCount  int   `json:"paymentsCount"`
}

type HistorySummary struct {
	TotalCollected        int64        `json:"totalCollected"`
	ByMonth               []MonthTotal `json:"byMonth"`
	MonthlyContributionID *string      `json:"monthlyContributionId"`
}

// HistorySummary totals monthly dues per period, newest first. A period
// narrows the result to that month.
func (s *Service) HistorySummary(ctx context.Context, year, month *int) (*HistorySummary, error) {
	out := &HistorySummary{ByMonth: []MonthTotal{}}
	row, err := s.repo.Monthly(ctx)
	if err != nil {
		if stdErrors.Is(err, internal.ErrNoMonthlyContribution) {
			return out, nil
		}
		return nil, internal.NewInternalError("failed to load monthly contribution", err)
	}
	out.MonthlyContributionID = &row.ID

	filter := PaymentFilter{ContributionID: &row.ID}
	if year != nil || month != nil {
		period, err := s.period(year, month)
		if err != nil {
			return nil, err
		}
		filter.Year, filter.Month = &period.Year, &period.Month
	}
	rows, err := s.repo.ListPayments(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to load payments", err)
	}

	byPeriod := map[Period]*MonthTotal{}
	for _, p := range PaymentsFromDataModel(rows) {
		period, ok := p.Period()
		if !ok {
			period = PeriodOf(p.PaidAt, s.opts.Location)
		}
		mt := byPeriod[period]
		if mt == nil {
			mt = &MonthTotal{Year: period.Year, Month: period.Month}
			byPeriod[period] = mt
		}
		mt.TotalCollected += p.Amount
		mt.PaymentsCount++
		out.TotalCollected += p.Amount
	}
	for _, mt := range byPeriod {
		out.ByMonth = append(out.ByMonth, *mt)
	}
	sort.Slice(out.ByMonth, func(i, j int) bool {
		a, b := out.ByMonth[i], out.ByMonth[j]
		return Period{a.Year, a.Month}.index() > Period{b.Year, b.Month}.index()
	})
	return out, nil
}

type MemberMonth struct {
	Year   int       `json:"year"`
	Month  int       `json:"month"`
	Amount int64     `json:"amount"`
	PaidAt time.Time `json:"paidAt"`
}

type MemberHistory struct {
	Member    *Standing     `json:"member"`
	Payments  []*Payment    `json:"payments"`
	ByMonth   []MemberMonth `json:"byMonth"`
	TotalPaid int64         `json:"totalPaid"`
}

// MemberHistory lists every payment of a member with monthly dues folded per period.
// Members read their own history; anyone else needs ViewHistory.
func (s *Service) MemberHistory(ctx context.Context, actor auth.Principal, memberID string) (*MemberHistory, error) {
	if actor.MemberID != memberID {
		if err := auth.Authorize(s.policy, actor, auth.ActionViewHistory); err != nil {
			s.logger.Warn("member history denied", "member_id", actor.MemberID, "target_member_id", memberID)
			return nil, err
		}
	}
	member, err := s.members.Standing(ctx, memberID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPayments(ctx, PaymentFilter{MemberID: &member.ID})
	if err != nil {
		return nil, internal.NewInternalError("failed to load payments", err)
	}
	payments := s.enrich(ctx, PaymentsFromDataModel(rows))

	out := &MemberHistory{Member: member, Payments: payments, ByMonth: []MemberMonth{}}
	byPeriod := map[Period]*MemberMonth{}
	for _, p := range payments {
		out.TotalPaid += p.Amount
		if p.Contribution == nil || p.Contribution.Type != TypeMonthly {
			continue
		}
		period, ok := p.Period()
		if !ok {
			continue
		}
		mm := byPeriod[period]
		if mm == nil {
			mm = &MemberMonth{Year: period.Year, Month: period.Month}
			byPeriod[period] = mm
		}
		mm.Amount += p.Amount
		if p.PaidAt.After(mm.PaidAt) {
			mm.PaidAt = p.PaidAt
		}
	}
	for _, mm := range byPeriod {
		out.ByMonth = append(out.ByMonth, *mm)
	}
	sort.Slice(out.ByMonth, func(i, j int) bool {
		a, b := out.ByMonth[i], out.ByMonth[j]
		return Period{a.Year, a.Month}.index() > Period{b.Year, b.Month}.index()
	})
	return out, nil
}

func (s *Service) enrich(ctx context.Context, list []*Payment) []*Payment {
	if len(list) == 0 {
		return list
	}
	contributions, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve contributions", "error", err)
	} else {
		byID := make(map[string]*Ref, len(contributions))
		for _, c := range contributions {
			byID[c.ID] = &Ref{ID: c.ID, Name: c.Name, Type: Type(c.Type)}
		}
		for _, p := range list {
			if ref, ok := byID[p.ContributionID]; ok {
				p.Contribution = ref
			}
		}
	}

	if s.directory == nil {
		return list
	}
	var memberIDs, boxIDs []string
	for _, p := range list {
		memberIDs = append(memberIDs, p.MemberID)
		boxIDs = directory.Deref(boxIDs, p.CashBoxID)
	}
	members, err := s.directory.Members(ctx, memberIDs)
	if err != nil {
		s.logger.Warn("failed to resolve members", "error", err)
		return list
	}
	boxes, err := s.directory.Boxes(ctx, boxIDs)
	if err != nil {
		s.logger.Warn("failed to resolve cash boxes", "error", err)
		return list
	}
	for _, p := range list {
		p.Member = directory.MemberPtr(members, &p.MemberID)
		p.CashBox = directory.BoxPtr(boxes, p.CashBoxID)
	}
	return list
}
