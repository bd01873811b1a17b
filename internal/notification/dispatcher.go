package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/club-management/internal/cache"
	notificationDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/club-management/internal/metrics"
	"github.com/google/uuid"
)

var (
	ErrQueueFull = errors.New("notification queue full, please try again later")
	ErrStopped   = errors.New("notification dispatcher stopped")
)

type Job struct {
	Recipient Recipient
	Type      Type
	Title     *string
	Message   string
}

// Writer persists what the dispatcher delivered.
type Writer interface {
	CreateInApp(ctx context.Context, n *notificationDatamodel.InApp) error
	CreateLog(ctx context.Context, l *notificationDatamodel.Log) error
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, process func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			// register as idle, unless shutting down
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "member_id", job.Recipient.ID, "type", job.Type)
				process(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	MaxWorkers   int
	JobQueueSize int
	JobTimeout   time.Duration
}

// Dispatcher fans notification jobs out to a fixed pool of workers.
type Dispatcher struct {
	writer  Writer
	gateway Gateway
	cache   cache.Cache
	logger  *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	jobTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

// NewDispatcher starts the pool. gateway may be nil, in which case only in-app
// notifications are written.
func NewDispatcher(cfg DispatcherConfig, writer Writer, gateway Gateway, c cache.Cache, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.JobQueueSize
	if queueSize <= 0 {
		queueSize = 500
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 15 * time.Second
	}
	if c == nil {
		c = cache.Noop{}
	}

	d := &Dispatcher{
		writer:     writer,
		gateway:    gateway,
		cache:      c,
		logger:     logger,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		maxWorkers: maxWorkers,
		jobTimeout: jobTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			NewWorker(i, d.workerPool, d.logger).Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue),
			"gateway", d.gateway != nil)
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			metrics.NotificationQueueDepth.Set(float64(len(d.jobQueue)))
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

// Enqueue never blocks; a full queue is reported to the caller.
func (d *Dispatcher) Enqueue(job Job) error {
	select {
	case <-d.ctx.Done():
		return ErrStopped
	default:
	}
	select {
	case d.jobQueue <- job:
		metrics.NotificationQueueDepth.Set(float64(len(d.jobQueue)))
		return nil
	default:
		d.logger.Warn("notification queue full", "member_id", job.Recipient.ID, "type", job.Type, "capacity", cap(d.jobQueue))
		metrics.NotificationsDispatched.WithLabelValues(string(job.Type), "dropped").Inc()
		return ErrQueueFull
	}
}

func (d *Dispatcher) GatewayConfigured() bool {
	return d.gateway != nil
}

// Shutdown stops accepting work and waits for in-flight jobs.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("notification dispatcher shutdown complete")
}

func (d *Dispatcher) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()

	now := time.Now()
	if err := d.writer.CreateInApp(ctx, &notificationDatamodel.InApp{
		ID:        uuid.New().String(),
		MemberID:  job.Recipient.ID,
		Title:     job.Title,
		Message:   job.Message,
		CreatedAt: now,
	}); err != nil {
		d.logger.Error("failed to store in-app notification", "member_id", job.Recipient.ID, "type", job.Type, "error", err)
		metrics.NotificationsDispatched.WithLabelValues(string(job.Type), "failed").Inc()
		return
	}
	cache.Forget(ctx, d.cache, d.logger, cache.KeyUnreadPrefix+job.Recipient.ID)
	d.log(ctx, job, ChannelInApp, now)
	metrics.NotificationsDispatched.WithLabelValues(string(job.Type), "in_app").Inc()

	if d.gateway == nil || job.Recipient.Phone == "" {
		return
	}
	if err := d.gateway.Send(ctx, job.Recipient.Phone, job.Message); err != nil {
		d.logger.Warn("gateway delivery failed", "member_id", job.Recipient.ID, "type", job.Type, "error", err)
		metrics.NotificationsDispatched.WithLabelValues(string(job.Type), "gateway_failed").Inc()
		return
	}
	d.log(ctx, job, ChannelSMS, time.Now())
	metrics.NotificationsDispatched.WithLabelValues(string(job.Type), "sms").Inc()
}

func (d *Dispatcher) log(ctx context.Context, job Job, channel Channel, at time.Time) {
	payload, _ := json.Marshal(map[string]interface{}{"title": job.Title, "message": job.Message})
	p := string(payload)
	if err := d.writer.CreateLog(ctx, &notificationDatamodel.Log{
		ID:       uuid.New().String(),
		MemberID: job.Recipient.ID,
		Channel:  string(channel),
		Type:     string(job.Type),
		Payload:  &p,
		SentAt:   at,
	}); err != nil {
		d.logger.Warn("failed to write notification log", "member_id", job.Recipient.ID, "error", err)
	}
}
