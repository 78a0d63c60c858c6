package pool

import (
	"context"
	"math/rand"
	"time"

	"github.com/marmos91/spool/pkg/config"
)

// backoffDelay computes the delay before retry attempt n (0-based):
// initial * multiplier^n capped at max, with optional jitter in
// [0.5x, 1.5x].
func backoffDelay(cfg config.RetryConfig, attempt int) time.Duration {
	d := float64(cfg.InitialBackoff)
	for i := 0; i < attempt; i++ {
		d *= cfg.BackoffMultiplier
		if time.Duration(d) >= cfg.MaxBackoff {
			d = float64(cfg.MaxBackoff)
			break
		}
	}
	if cfg.MaxBackoff > 0 && time.Duration(d) > cfg.MaxBackoff {
		d = float64(cfg.MaxBackoff)
	}
	if cfg.Jitter {
		d *= 0.5 + rand.Float64()
	}
	return time.Duration(d)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
