package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/activity"
	activityPostgres "github.com/frahmantamala/club-management/internal/activity/postgres"
	"github.com/frahmantamala/club-management/internal/auth"
	authPostgres "github.com/frahmantamala/club-management/internal/auth/postgres"
	"github.com/frahmantamala/club-management/internal/cache"
	"github.com/frahmantamala/club-management/internal/cashbox"
	cashboxPostgres "github.com/frahmantamala/club-management/internal/cashbox/postgres"
	"github.com/frahmantamala/club-management/internal/contribution"
	contributionPostgres "github.com/frahmantamala/club-management/internal/contribution/postgres"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/expense"
	expensePostgres "github.com/frahmantamala/club-management/internal/expense/postgres"
	"github.com/frahmantamala/club-management/internal/ledger"
	"github.com/frahmantamala/club-management/internal/member"
	memberPostgres "github.com/frahmantamala/club-management/internal/member/postgres"
	"github.com/frahmantamala/club-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/club-management/internal/notification/postgres"
	"github.com/frahmantamala/club-management/internal/report"
	reportPostgres "github.com/frahmantamala/club-management/internal/report/postgres"
	"github.com/frahmantamala/club-management/internal/suspension"
	suspensionPostgres "github.com/frahmantamala/club-management/internal/suspension/postgres"
	"github.com/frahmantamala/club-management/internal/transfer"
	transferPostgres "github.com/frahmantamala/club-management/internal/transfer/postgres"
	"github.com/frahmantamala/club-management/internal/transport/rest"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// app holds every long-lived dependency shared by the server and worker commands.
type app struct {
	cfg    *internal.Config
	logger *slog.Logger

	sqlx  *sqlx.DB
	gorm  *gorm.DB
	redis *redis.Client
	cache cache.Cache
	bus   *events.EventBus

	policy     *auth.Policy
	dispatcher *notification.Dispatcher

	auth          *auth.Service
	members       *member.Service
	boxes         *cashbox.Service
	contributions *contribution.Service
	expenses      *expense.Service
	transfers     *transfer.Service
	ledger        *ledger.Service
	suspensions   *suspension.Service
	reports       *report.Service
	activities    *activity.Service
	notifications *notification.Service
}

func newApp(ctx context.Context, cfg *internal.Config, lg *slog.Logger) (*app, error) {
	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the sqlx pool
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: lg,
		sqlx:   sqlDB,
		gorm:   gdb,
		bus:    events.NewEventBus(lg),
		policy: auth.DefaultPolicy(),
	}

	a.redis = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, lg)
	a.cache = cache.Noop{}
	if a.redis != nil {
		a.cache = cache.NewRedisCache(a.redis, "club:")
	}

	a.wireServices()
	a.registerSubscribers()
	return a, nil
}

func (a *app) wireServices() {
	cfg, lg, gdb := a.cfg, a.logger, a.gorm
	loc := cfg.Club.Location()
	dir := directory.NewGormResolver(gdb)
	ttl := cfg.Redis.TTL

	a.auth = auth.NewService(
		authPostgres.NewRepository(gdb),
		auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration),
		cfg.Security.BCryptCost,
	)

	a.members = member.NewService(memberPostgres.NewMemberRepository(gdb), dir, a.policy, a.bus, lg, member.Options{
		Grace:      cfg.Club.ReactivationGrace,
		BCryptCost: cfg.Security.BCryptCost,
	})

	a.boxes = cashbox.NewService(cashboxPostgres.NewCashBoxRepository(gdb), lg)

	a.contributions = contribution.NewService(
		contributionPostgres.NewContributionRepository(gdb),
		contributionPostgres.NewStandingRepository(gdb),
		a.boxes, dir, a.policy, a.bus, lg,
		contribution.Options{Location: loc, LookbackMonths: cfg.Club.UnpaidLookbackMonths},
	)

	a.expenses = expense.NewService(expensePostgres.NewExpenseRepository(gdb), a.boxes, dir, a.policy, a.bus, lg)
	a.transfers = transfer.NewService(transferPostgres.NewTransferRepository(gdb), a.boxes, dir, a.policy, a.bus, lg)
	a.ledger = ledger.NewService(a.boxes, a.contributions, a.expenses, a.transfers, a.cache, ttl, lg)

	a.suspensions = suspension.NewService(
		suspensionPostgres.NewSuspensionRepository(gdb),
		a.contributions,
		suspension.NewPolicy(cfg.Club.SuspensionCutoffDay, cfg.Club.ReactivationGrace, loc),
		a.policy, a.bus, lg,
	)

	a.reports = report.NewService(reportPostgres.NewReportRepository(a.sqlx), a.policy, loc, lg)
	a.activities = activity.NewService(activityPostgres.NewActivityRepository(gdb), dir, a.policy, a.bus, a.cache, ttl, lg)

	store := notificationPostgres.NewNotificationRepository(gdb)
	var gateway notification.Gateway
	if gw := notification.NewHTTPGateway(notification.GatewayConfig{
		URL:     cfg.Notification.SMSURL,
		APIKey:  cfg.Notification.SMSAPIKey,
		Sender:  cfg.Notification.SMSSender,
		Timeout: cfg.Notification.SMSTimeout,
	}, lg); gw != nil {
		gateway = gw
	}
	a.dispatcher = notification.NewDispatcher(notification.DispatcherConfig{
		MaxWorkers:   cfg.Club.ReminderWorkers,
		JobQueueSize: cfg.Notification.QueueSize,
		JobTimeout:   cfg.Notification.JobTimeout,
	}, store, gateway, a.cache, lg)

	a.notifications = notification.NewService(
		store, notificationPostgres.NewRecipientRepository(gdb), a.contributions, a.dispatcher,
		dir, a.policy, a.cache, ttl, loc, lg,
	)
}

func (a *app) registerSubscribers() {
	cache.NewInvalidator(a.cache, a.logger).RegisterEventHandlers(a.bus)
	notification.NewSubscriber(a.notifications, a.policy, a.logger).RegisterEventHandlers(a.bus)
}

func (a *app) handlers() rest.Handlers {
	return rest.Handlers{
		Health:        rest.NewHealthHandler(a.sqlx, a.redis),
		Auth:          auth.NewHandler(a.auth),
		Authorizer:    auth.NewAuthorizer(a.policy, a.logger),
		Members:       member.NewHandler(a.members),
		Contributions: contribution.NewHandler(a.contributions),
		Suspensions:   suspension.NewHandler(a.suspensions),
		Ledger:        ledger.NewHandler(a.ledger),
		CashBoxes:     cashbox.NewHandler(a.boxes),
		Expenses:      expense.NewHandler(a.expenses),
		Transfers:     transfer.NewHandler(a.transfers),
		Reports:       report.NewHandler(a.reports),
		Activities:    activity.NewHandler(a.activities),
		Notifications: notification.NewHandler(a.notifications),
	}
}

// close drains event handlers and workers before releasing connections.
func (a *app) close(ctx context.Context) {
	if err := a.bus.Drain(ctx); err != nil {
		a.logger.Warn("event handlers still running at shutdown", "error", err)
	}
	a.dispatcher.Shutdown()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", "error", err)
		}
	}
	if err := a.sqlx.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	db, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
