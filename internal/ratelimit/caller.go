// Package ratelimit wraps remote platform calls with flood-wait aware retries.
//
// A flood wait reported by the platform is always honoured and retried without
// a limit: the platform decides how long to wait, not the caller. Transient
// failures are retried with exponential backoff up to MaxRetries. Anything else
// is returned to the caller at once.
package ratelimit

import (
	"context"
	"invitebot/lib/sl"
	"log/slog"
	"math/rand"
	"time"
)

const (
	DefaultMaxRetries = 5
	DefaultFloodExtra = time.Second
	maxBackoff        = 8 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Caller runs remote operations with retries. The zero value is not usable, use New.
type Caller struct {
	MaxRetries int
	FloodExtra time.Duration
	// OnRetry is called before every wait with the attempt number and the cause
	OnRetry func(attempt int, err error)
	Sleep   SleepFunc
	log     *slog.Logger
}

func New(log *slog.Logger) *Caller {
	return &Caller{
		MaxRetries: DefaultMaxRetries,
		FloodExtra: DefaultFloodExtra,
		Sleep:      Sleep,
		log:        log.With(sl.Module("ratelimit")),
	}
}

// Call runs op until it succeeds, fails with a non-retryable error,
// exhausts transient retries or ctx is cancelled.
func (c *Caller) Call(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	for {
		outcome := Classify(op(ctx))

		var wait time.Duration
		switch outcome.Kind {
		case OutcomeOk:
			return nil
		case OutcomeFatal:
			return outcome.Err
		case OutcomeRateLimited:
			attempt++
			wait = outcome.Wait + c.FloodExtra
			c.log.With(
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
			).Warn("flood wait")
		case OutcomeTransient:
			attempt++
			if attempt > c.MaxRetries {
				c.log.With(
					slog.Int("max_retries", c.MaxRetries),
					sl.Err(outcome.Err),
				).Error("retries exceeded")
				observeRetry(outcome.Kind, true)
				return outcome.Err
			}
			wait = backoff(attempt)
			c.log.With(
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				sl.Err(outcome.Err),
			).Warn("transient error")
		}

		observeRetry(outcome.Kind, false)
		if c.OnRetry != nil {
			c.OnRetry(attempt, outcome.Err)
		}
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (c *Caller) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep == nil {
		return Sleep(ctx, d)
	}
	return c.Sleep(ctx, d)
}

// Do is Call for operations returning a value.
func Do[T any](ctx context.Context, c *Caller, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := c.Call(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// backoff is min(2^attempt, 8) seconds
func backoff(attempt int) time.Duration {
	if attempt >= 4 {
		return maxBackoff
	}
	return min(time.Duration(1<<attempt)*time.Second, maxBackoff)
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer spaces successive successful calls by Base plus a random share of Jitter.
type Pacer struct {
	Base   time.Duration
	Jitter time.Duration
	Sleep  SleepFunc
}

func (p Pacer) Delay() time.Duration {
	if p.Base <= 0 {
		return 0
	}
	d := p.Base
	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * float64(p.Jitter))
	}
	return d
}

// Pace sleeps for Delay, a non-positive Base disables pacing.
func (p Pacer) Pace(ctx context.Context) error {
	d := p.Delay()
	if d == 0 {
		return nil
	}
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}
