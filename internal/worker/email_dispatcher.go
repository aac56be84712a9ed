package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/n1rocket/go-profile-validity/internal/email"
)

// Delivery outcomes reported to an Observer
const (
	OutcomeSent          = "sent"
	OutcomeFailed        = "failed"
	OutcomeEnqueueFailed = "enqueue_failed"
)

var (
	// ErrQueueFull is returned when the job queue has no free slot
	ErrQueueFull = errors.New("email queue is full")
	// ErrStopped is returned when enqueueing after Stop
	ErrStopped = errors.New("email dispatcher stopped")
)

// Observer is notified of every final delivery outcome
type Observer interface {
	ObserveEmail(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveEmail(string) {}

// EmailJob represents an email sending job
type EmailJob struct {
	ID        string
	Email     email.Email
	Retries   int
	CreatedAt time.Time
}

// EmailDispatcher sends emails on a pool of background workers.
// Callers never wait for delivery; failures are logged and observed only.
type EmailDispatcher struct {
	emailService email.Service
	config       Config
	jobQueue     chan EmailJob
	quit         chan struct{}
	stopped      atomic.Bool
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	logger       *slog.Logger
	observer     Observer
}

// Config holds configuration for the email dispatcher
type Config struct {
	Workers     int
	QueueSize   int
	MaxRetries  int
	RetryDelay  time.Duration
	SendTimeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Workers:     5,
		QueueSize:   100,
		MaxRetries:  3,
		RetryDelay:  5 * time.Second,
		SendTimeout: 30 * time.Second,
	}
}

// NewEmailDispatcher creates a new email dispatcher
func NewEmailDispatcher(emailService email.Service, config Config, logger *slog.Logger) *EmailDispatcher {
	defaults := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &EmailDispatcher{
		emailService: emailService,
		config:       config,
		jobQueue:     make(chan EmailJob, config.QueueSize),
		quit:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
		observer:     nopObserver{},
	}
}

// SetObserver registers o to receive delivery outcomes. Call before Start.
func (d *EmailDispatcher) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	d.observer = o
}

// Start starts the email dispatcher workers
func (d *EmailDispatcher) Start() {
	d.logger.Info("starting email dispatcher",
		"workers", d.config.Workers,
		"queue_size", cap(d.jobQueue),
	)

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop lets workers drain queued jobs and waits up to timeout for them.
// In-flight sends are cancelled once the timeout elapses.
func (d *EmailDispatcher) Stop(timeout time.Duration) error {
	if !d.stopped.CompareAndSwap(false, true) {
		return nil
	}
	d.logger.Info("stopping email dispatcher", "pending", len(d.jobQueue))

	close(d.quit)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	defer d.cancel()

	select {
	case <-done:
		d.logger.Info("email dispatcher stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue adds an email job to the queue without blocking
func (d *EmailDispatcher) Enqueue(e email.Email) error {
	if d.stopped.Load() {
		d.observer.ObserveEmail(OutcomeEnqueueFailed)
		return ErrStopped
	}

	job := newJob(e)
	select {
	case d.jobQueue <- job:
		d.logger.Debug("email job enqueued",
			"job_id", job.ID,
			"to", e.To,
			"subject", e.Subject,
		)
		return nil
	default:
		d.observer.ObserveEmail(OutcomeEnqueueFailed)
		return ErrQueueFull
	}
}

// EnqueueWithContext adds an email job, waiting for a free slot until ctx is done
func (d *EmailDispatcher) EnqueueWithContext(ctx context.Context, e email.Email) error {
	if d.stopped.Load() {
		d.observer.ObserveEmail(OutcomeEnqueueFailed)
		return ErrStopped
	}

	if err := ctx.Err(); err != nil {
		d.observer.ObserveEmail(OutcomeEnqueueFailed)
		return err
	}

	job := newJob(e)
	select {
	case <-ctx.Done():
		d.observer.ObserveEmail(OutcomeEnqueueFailed)
		return ctx.Err()
	case d.jobQueue <- job:
		d.logger.Debug("email job enqueued",
			"job_id", job.ID,
			"to", e.To,
			"subject", e.Subject,
		)
		return nil
	}
}

// QueueSize returns the current number of jobs in the queue
func (d *EmailDispatcher) QueueSize() int {
	return len(d.jobQueue)
}

func (d *EmailDispatcher) worker(id int) {
	defer d.wg.Done()

	d.logger.Debug("email worker started", "worker_id", id)

	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(id, job)
		case <-d.quit:
			for {
				select {
				case job := <-d.jobQueue:
					d.processJob(id, job)
				default:
					d.logger.Debug("email worker stopping", "worker_id", id)
					return
				}
			}
		}
	}
}

// processJob attempts a single delivery and schedules a retry on failure
func (d *EmailDispatcher) processJob(workerID int, job EmailJob) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(d.ctx, d.config.SendTimeout)
	defer cancel()

	err := d.emailService.Send(ctx, job.Email)
	if err == nil {
		d.observer.ObserveEmail(OutcomeSent)
		d.logger.Info("email sent",
			"worker_id", workerID,
			"job_id", job.ID,
			"to", job.Email.To,
			"duration", time.Since(startTime),
		)
		return
	}

	d.logger.Warn("failed to send email",
		"worker_id", workerID,
		"job_id", job.ID,
		"to", job.Email.To,
		"error", err,
		"retries", job.Retries,
	)

	if job.Retries >= d.config.MaxRetries {
		d.observer.ObserveEmail(OutcomeFailed)
		d.logger.Error("email job failed after max retries",
			"job_id", job.ID,
			"to", job.Email.To,
			"max_retries", d.config.MaxRetries,
		)
		return
	}

	job.Retries++
	select {
	case <-d.ctx.Done():
		d.observer.ObserveEmail(OutcomeFailed)
		return
	case <-time.After(d.config.RetryDelay * time.Duration(job.Retries)):
	}

	select {
	case d.jobQueue <- job:
		d.logger.Debug("email job re-enqueued for retry",
			"job_id", job.ID,
			"retries", job.Retries,
		)
	default:
		d.observer.ObserveEmail(OutcomeFailed)
		d.logger.Error("failed to re-enqueue email job (queue full)", "job_id", job.ID)
	}
}

func newJob(e email.Email) EmailJob {
	return EmailJob{
		ID:        uuid.NewString(),
		Email:     e,
		CreatedAt: time.Now(),
	}
}

// Stats represents dispatcher statistics
type Stats struct {
	Workers       int  `json:"workers"`
	QueueSize     int  `json:"queue_size"`
	QueueCapacity int  `json:"queue_capacity"`
	Running       bool `json:"running"`
}

// GetStats returns current dispatcher statistics
func (d *EmailDispatcher) GetStats() Stats {
	return Stats{
		Workers:       d.config.Workers,
		QueueSize:     len(d.jobQueue),
		QueueCapacity: cap(d.jobQueue),
		Running:       !d.stopped.Load(),
	}
}
