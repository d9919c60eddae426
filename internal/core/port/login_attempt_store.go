package port

import (
	"context"
	"time"
)

// LoginAttemptStore tracks recent login attempts per client key so the
// transport layer can throttle credential guessing. The window slides:
// attempts age out rather than resetting on a fixed boundary.
type LoginAttemptStore interface {
	// RecordAttempt registers one attempt for the key at the given time.
	RecordAttempt(ctx context.Context, clientKey string, at time.Time) error
	// WindowState drops attempts older than the window and reports how many
	// remain plus the timestamp of the oldest survivor. A zero oldest time
	// means the window is empty.
	WindowState(ctx context.Context, clientKey string, window time.Duration, now time.Time) (count int, oldest time.Time, err error)
}
