package orchestrator

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Watcher polls the persisted ClaimTimer so that timers written or expired
// elsewhere are picked up.
type Watcher struct {
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

func NewWatcher(o *Orchestrator, interval time.Duration, logger zerolog.Logger) (*Watcher, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if err := o.Refresh(ctx); err != nil {
				logger.Warn().Err(err).Msg("Claim timer refresh failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	return &Watcher{scheduler: sched, logger: logger}, nil
}

func (w *Watcher) Start() {
	w.logger.Info().Msg("Starting claim timer watcher...")
	w.scheduler.Start()
}

func (w *Watcher) Stop() error {
	w.logger.Info().Msg("Stopping claim timer watcher...")
	return w.scheduler.Shutdown()
}
