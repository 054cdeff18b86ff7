package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ClickWithRetry scrolls el into view and clicks it, retrying
// not-interactable failures at a constant interval. Any other failure
// aborts immediately. When the attempt budget runs out the returned
// error wraps ErrNotClickable.
func ClickWithRetry(ctx context.Context, s Session, el Element, attempts int, interval time.Duration, logger *zap.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	attempt := 0
	op := func() error {
		attempt++
		if err := s.ScrollIntoView(ctx, el); err != nil {
			return backoff.Permanent(err)
		}
		err := s.Click(ctx, el)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotInteractable) {
			logger.Debug("Element not yet clickable, retrying",
				zap.String("selector", el.Selector()),
				zap.Int("attempt", attempt),
				zap.Int("budget", attempts))
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(attempts-1)),
		ctx,
	)
	err := backoff.Retry(op, policy)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotInteractable) {
		return fmt.Errorf("%w: %s after %d attempts", ErrNotClickable, el.Selector(), attempts)
	}
	return err
}
