package retry

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"
)

// Policy retries an operation a bounded number of times, sleeping the backoff
// duration between attempts. Attempts counts the initial try.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := &backoff.Backoff{
		Min:    p.Backoff,
		Max:    p.Backoff,
		Factor: 1,
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = op(); err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// Throttle paces a sequence of calls to a fixed sustained rate, keeping the
// request stream under the RPC channel's documented ceiling.
type Throttle struct {
	limiter *rate.Limiter
}

func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
