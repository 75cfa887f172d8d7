// Package scheduler executes scheduled campaigns once their start date
// arrives.
package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/observability"
)

// DueLister finds campaigns that are ready to go out.
type DueLister interface {
	ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error)
}

// Executor starts the dispatch of a campaign.
type Executor interface {
	ExecuteScheduled(ctx context.Context, c *model.Campaign) error
}

type Scheduler struct {
	campaigns DueLister
	executor  Executor
	clock     clockwork.Clock
	interval  time.Duration
}

func New(campaigns DueLister, executor Executor, clock clockwork.Clock, interval time.Duration) *Scheduler {
	return &Scheduler{campaigns: campaigns, executor: executor, clock: clock, interval: interval}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", s.interval).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.Chan():
			if _, err := s.RunOnce(ctx); err != nil {
				logger.Error().Err(err).Msg("scheduler run failed")
			}
		}
	}
}

// RunOnce executes every due campaign and returns how many were started.
// A failure on one campaign does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)
	observability.RecordScheduledRun()

	now := s.clock.Now().UTC()
	due, err := s.campaigns.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, c := range due {
		if !c.ActiveAt(now) {
			logger.Debug().Str("campaign_id", c.ID).Msg("campaign outside its date range, skipping")
			continue
		}
		if err := s.executor.ExecuteScheduled(ctx, c); err != nil {
			logger.Warn().Err(err).Str("campaign_id", c.ID).Msg("failed to execute scheduled campaign")
			continue
		}
		started++
	}
	observability.RecordScheduledStarts(started)
	if started > 0 {
		logger.Info().Int("campaigns", started).Msg("scheduled campaigns dispatched")
	}
	return started, nil
}
