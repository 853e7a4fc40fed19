package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// callWithRetry runs call up to attempts times with a fixed delay between
// attempts, logging every outcome. Intermediate failures are logged and
// swallowed; once the budget is exhausted the last error is returned.
func callWithRetry(ctx context.Context, log *zap.Logger, attempts int, delay time.Duration, name string, call func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := call(ctx)
		if err == nil {
			log.Info("rpc call succeeded",
				zap.String("method", name),
				zap.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		log.Error("rpc call failed",
			zap.String("method", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
