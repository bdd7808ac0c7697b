// Package jobs defines the periodic maintenance jobs the worker runs.
package jobs

import (
	"context"
	"time"
)

// Job type constants for cleanup jobs
const (
	JobTypeSweepSessions   = "cleanup:idle_sessions"
	JobTypePruneRateLimits = "cleanup:rate_limit_buckets"
)

// Job is one unit of periodic work. Run returns how many items it cleaned
// up.
type Job interface {
	Type() string
	Run(ctx context.Context) (int, error)
}

// SessionSweeper is the part of configurator.Manager the sweep needs.
type SessionSweeper interface {
	Sweep(now time.Time) int
}

// BucketPruner is the part of middleware.RateLimiter the prune needs.
type BucketPruner interface {
	Prune() int
}

// SweepSessions closes configurator sessions idle past their TTL.
type SweepSessions struct {
	Sessions SessionSweeper
	Now      func() time.Time
}

var _ Job = (*SweepSessions)(nil)

// Type implements Job.
func (j *SweepSessions) Type() string { return JobTypeSweepSessions }

// Run implements Job.
func (j *SweepSessions) Run(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	return j.Sessions.Sweep(now()), nil
}

// PruneRateLimits drops idle rate limiter buckets.
type PruneRateLimits struct {
	Limiter BucketPruner
}

var _ Job = (*PruneRateLimits)(nil)

// Type implements Job.
func (j *PruneRateLimits) Type() string { return JobTypePruneRateLimits }

// Run implements Job.
func (j *PruneRateLimits) Run(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return j.Limiter.Prune(), nil
}
