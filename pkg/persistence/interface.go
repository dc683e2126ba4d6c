package persistence

import "context"

// Store defines the interface for persisting wallet preferences across
// sessions. The browser original kept these in window.localStorage; here
// they live behind an injected port so callers can choose a backend.
//
// All implementations must be thread-safe: the login receiver writes while
// external callers may read concurrently.
type Store interface {
	// SaveAutoLogin records the auto-login preference delivered by the
	// most recent successful login. Overwrites any existing value.
	SaveAutoLogin(ctx context.Context, enabled bool) error

	// LoadAutoLogin returns the persisted auto-login preference.
	// Returns false with no error when nothing has been persisted yet.
	LoadAutoLogin(ctx context.Context) (bool, error)

	// Close cleanly shuts down the store. Idempotent; all other
	// operations return errors afterwards.
	Close() error

	// HealthCheck verifies the store is operational. Returns nil if
	// healthy, an error describing the problem if not.
	HealthCheck(ctx context.Context) error
}
