package viewcache

// SentinelError is an error.
type SentinelError string

const (
	// ErrNoLoader indicates GetOrStartLoad was called without a loader.
	ErrNoLoader = SentinelError("no loader provided")

	// ErrNothingToInvalidate indicates no caches were added to Invalidator.
	ErrNothingToInvalidate = SentinelError("nothing to invalidate")

	// ErrAlreadyInvalidated indicates recent invalidation.
	ErrAlreadyInvalidated = SentinelError("already invalidated")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}
