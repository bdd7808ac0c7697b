// Package worker runs maintenance jobs on a fixed interval.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/configurator/internal/jobs"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs
	WorkerID string

	// PollInterval is how often the jobs run
	PollInterval time.Duration

	// JobTimeout bounds a single job run
	JobTimeout time.Duration
}

// Worker processes background jobs
type Worker struct {
	config Config
	jobs   []jobs.Job
	logger *slog.Logger
}

// NewWorker creates a new background job worker
func NewWorker(config Config, logger *slog.Logger, js ...jobs.Job) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config: config,
		jobs:   js,
		logger: logger.With("worker_id", config.WorkerID),
	}
}

// Start runs every job once per interval until ctx is cancelled. Jobs run
// one after another, so a slow job delays the next tick instead of
// overlapping with it.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"poll_interval", w.config.PollInterval,
		"jobs", len(w.jobs),
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs every job a single time.
func (w *Worker) RunOnce(ctx context.Context) {
	for _, job := range w.jobs {
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job jobs.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	start := time.Now()
	n, err := job.Run(jobCtx)
	if err != nil {
		w.logger.Error("job failed",
			"job_type", job.Type(),
			"error", err,
		)
		return
	}

	if n > 0 {
		w.logger.Info("job completed",
			"job_type", job.Type(),
			"cleaned", n,
			"duration", time.Since(start),
		)
		return
	}
	w.logger.Debug("job completed", "job_type", job.Type())
}
