// Package janitor periodically deletes sessions that expired long ago.
// Lookups never filter on expiry; this only keeps the table small.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/robfig/cron/v3"
)

type Purger interface {
	PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

type Janitor struct {
	purger   Purger
	schedule string
	grace    time.Duration
	now      func() time.Time
	logger   logging.Logger
}

// New returns a Janitor that, on every tick of schedule (cron syntax or
// "@every 1h"), deletes sessions that expired more than grace ago.
func New(p Purger, schedule string, grace time.Duration, l logging.Logger) *Janitor {
	return &Janitor{
		purger:   p,
		schedule: schedule,
		grace:    grace,
		now:      time.Now,
		logger:   l.With("module", "janitor"),
	}
}

// Sweep runs one pass and reports how many sessions it removed.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	cutoff := j.now().Add(-j.grace)

	n, err := j.purger.PurgeExpiredSessions(ctx, cutoff)
	if err != nil {
		j.logger.Error(ctx, "session sweep failed", "error", err)
		return 0
	}
	j.logger.Info(ctx, "session sweep completed", "removed", n, "cutoff", cutoff)
	return n
}

// Run schedules Sweep and blocks until ctx is cancelled. A running sweep is
// allowed to finish.
func (j *Janitor) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(j.schedule, func() { j.Sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", j.schedule, err)
	}

	c.Start()
	j.logger.Info(ctx, "Session janitor started", "schedule", j.schedule, "grace", j.grace)

	<-ctx.Done()
	<-c.Stop().Done()
	j.logger.Info(ctx, "Session janitor stopped")
	return nil
}
