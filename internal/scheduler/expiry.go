// Package scheduler runs the timed transitions the engine itself never
// applies: listings whose plan-granted duration has elapsed, and
// subscriptions whose paid-for period has passed.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/danabek/jarnama/internal/billing"
	"github.com/danabek/jarnama/internal/metrics"
	"github.com/danabek/jarnama/internal/repository"
	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron runner for the expiry sweeps.
type Scheduler struct {
	cron    *cron.Cron
	queries *repository.Queries
	clock   billing.Clock
	logger  *slog.Logger
}

// New creates a Scheduler with sweeps registered on the given cron spec
// (e.g. "@hourly"). Call Start to begin and Stop to drain.
func New(queries *repository.Queries, clock billing.Clock, logger *slog.Logger, spec string) (*Scheduler, error) {
	if clock == nil {
		clock = billing.SystemClock()
	}
	s := &Scheduler{
		cron:    cron.New(),
		queries: queries,
		clock:   clock,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("expiry scheduler started")
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("expiry scheduler stopped")
}

// sweep runs both expiry passes. Each pass is an independent statement;
// a failure in one does not block the other.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := s.clock.Now()

	expired, err := s.queries.ExpireActiveListings(ctx, now)
	if err != nil {
		s.logger.Error("listing expiry sweep failed", "error", err)
	} else if expired > 0 {
		metrics.ListingsExpired.Add(float64(expired))
		s.logger.Info("listings expired", "count", expired)
	}

	lapsed, err := s.queries.ExpireLapsedSubscriptions(ctx, now)
	if err != nil {
		s.logger.Error("subscription expiry sweep failed", "error", err)
	} else if lapsed > 0 {
		metrics.SubscriptionsExpired.Add(float64(lapsed))
		s.logger.Info("subscriptions expired", "count", lapsed)
	}
}
