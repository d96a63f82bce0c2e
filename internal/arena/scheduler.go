package arena

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Scheduler drives reconciliation and balance refresh on a fixed interval for
// the lifetime of a session. It fires once immediately on start; a session or
// handle change means a new scheduler. It must be shut down on teardown, even
// though dropped duplicate passes keep a leaked timer from corrupting the view.
type Scheduler struct {
	inner gocron.Scheduler
}

func StartPolling(engine *Engine, interval, passTimeout time.Duration) (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
			defer cancel()

			if _, problem := engine.Reconcile(ctx); problem != nil {
				log.Warn().Err(problem).Msg("Poll tick: reconciliation failed")
			}
			if _, problem := engine.RefreshBalance(ctx); problem != nil {
				log.Warn().Err(problem).Msg("Poll tick: balance refresh failed")
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = inner.Shutdown()
		return nil, err
	}

	inner.Start()
	return &Scheduler{inner: inner}, nil
}

// Shutdown cancels all future invocations. In-flight reads complete on their
// own context.
func (s *Scheduler) Shutdown() error {
	return s.inner.Shutdown()
}
