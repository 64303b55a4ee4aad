package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ppiankov/quakelink/internal/model"
)

// sleepFunc waits between attempts; tests replace it
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// RetryPolicy retries transient failures with exponential backoff and waits
// out exhausted quotas
type RetryPolicy struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	QuotaSleep   time.Duration
	QuotaRetries int
	Logger       *slog.Logger
}

// NewRetryPolicy builds a policy from configuration
func NewRetryPolicy(cfg model.RetryConfig, logger *slog.Logger) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   cfg.MaxRetries,
		BaseDelay:    cfg.BaseDelay,
		MaxDelay:     cfg.MaxDelay,
		QuotaSleep:   cfg.QuotaSleep,
		QuotaRetries: cfg.QuotaRetries,
		Logger:       logger,
	}
}

// Backoff returns the delay before retry number attempt (0-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails permanently, or the policy gives up.
// The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	retries, quotaWaits := 0, 0

	for {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		var wait time.Duration
		switch {
		case errors.Is(err, ErrQuotaExhausted):
			if quotaWaits >= p.QuotaRetries {
				return err
			}
			quotaWaits++
			wait = p.QuotaSleep
			p.log().Warn("quota exhausted, pausing", "wait", wait, "attempt", quotaWaits)
		case IsRetryable(err):
			if retries >= p.MaxRetries {
				return err
			}
			wait = p.Backoff(retries)
			retries++
			p.log().Debug("transient failure, retrying", "error", err, "wait", wait, "attempt", retries)
		default:
			return err
		}

		if serr := sleepFunc(ctx, wait); serr != nil {
			return serr
		}
	}
}

func (p RetryPolicy) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
