package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RecalcWorkerConfig configures the GPA recalculation pool.
type RecalcWorkerConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

type recalcJob struct {
	studentID string
	attempt   int
}

// RecalcWorker recomputes cumulative GPAs in the background after grade
// writes. The synchronous request path only invalidates caches; the persisted
// students.cumulative_gpa column is refreshed here so honor checks and
// standing reviews read a current value without blocking grade entry.
type RecalcWorker struct {
	gpa    *GPAService
	logger *zap.Logger

	workers    int
	maxRetries int
	retryDelay time.Duration

	jobs    chan recalcJob
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRecalcWorker constructs the worker pool.
func NewRecalcWorker(gpa *GPAService, cfg RecalcWorkerConfig, logger *zap.Logger) *RecalcWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecalcWorker{
		gpa:        gpa,
		logger:     logger,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		jobs:       make(chan recalcJob, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (w *RecalcWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	w.started = true
	w.logger.Info("gpa recalc worker started", zap.Int("workers", w.workers))
}

// Stop cancels workers and waits for them to exit.
func (w *RecalcWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.mu.Unlock()
	w.wg.Wait()
	w.logger.Info("gpa recalc worker stopped")
}

// Enqueue schedules a recalculation for the student. A full queue or a
// stopped worker is reported to the caller; grade writes treat that as a
// warning, never a failure.
func (w *RecalcWorker) Enqueue(studentID string) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	started := w.started
	ctx := w.ctx
	w.mu.Unlock()
	if !started {
		return fmt.Errorf("recalc worker not started")
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("recalc worker stopped: %w", ctx.Err())
	case w.jobs <- recalcJob{studentID: studentID}:
		return nil
	default:
		return fmt.Errorf("recalc queue full, dropping student %s", studentID)
	}
}

func (w *RecalcWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job := <-w.jobs:
			if _, err := w.gpa.CalculateCumulativeGPA(w.ctx, job.studentID); err != nil {
				w.retry(job, err)
			}
		}
	}
}

func (w *RecalcWorker) retry(job recalcJob, err error) {
	job.attempt++
	if job.attempt > w.maxRetries {
		w.logger.Error("gpa recalculation exceeded retries",
			zap.String("student_id", job.studentID), zap.Error(err))
		return
	}
	w.logger.Warn("gpa recalculation failed, retrying",
		zap.String("student_id", job.studentID), zap.Int("attempt", job.attempt), zap.Error(err))
	go func(j recalcJob) {
		timer := time.NewTimer(w.retryDelay)
		defer timer.Stop()
		select {
		case <-w.ctx.Done():
		case <-timer.C:
			select {
			case w.jobs <- j:
			default:
				w.logger.Error("recalc queue full on retry", zap.String("student_id", j.studentID))
			}
		}
	}(job)
}
