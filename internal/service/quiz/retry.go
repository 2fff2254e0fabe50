package quiz

import (
	"context"
	"log/slog"

	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
	"github.com/sethvargo/go-retry"
)

// withRetry runs fn until it succeeds or fails permanently, giving up after
// cfg.MaxRetries retries. Only transient store failures are retried.
func (s *service) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.RetryBaseDelay))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && store.IsTransient(err) && ctx.Err() == nil {
			log.Warn("transient store failure, retrying",
				slog.String("operation", operation),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
}

// runUnit runs fn in a unit of work with retries.
func (s *service) runUnit(ctx context.Context, operation string, fn store.WorkFn) error {
	return s.withRetry(ctx, operation, func(ctx context.Context) error {
		return s.uow.Run(ctx, fn)
	})
}
