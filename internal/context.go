package internal

import (
	"context"
	"time"
)

const defaultOperationTimeout = 5 * time.Second

// WithTimeout bounds ctx with the given duration, falling back to a
// 5 second default when duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = defaultOperationTimeout
	}
	return context.WithTimeout(ctx, duration)
}
