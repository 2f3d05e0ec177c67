package numerator

import (
	"context"
	"time"
)

// Generator generates sequential business numbers.
// Implementations live in pkg/numerator.
type Generator interface {
	// GetNextNumber allocates and formats the next number of the sequence.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
