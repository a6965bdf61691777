package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which message keys have already been handled
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a key so the message can be handled again
	Forget(ctx context.Context, key string) error

	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed key is remembered. Default: 24 hours
	TTL time.Duration

	Enabled bool

	// ForgetOnFailure releases the key when the wrapped handler fails so a
	// redelivery of the same message is processed instead of skipped.
	ForgetOnFailure bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:             24 * time.Hour,
		Enabled:         true,
		ForgetOnFailure: true,
	}
}
