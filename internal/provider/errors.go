package provider

import "errors"

// Sentinel errors for the resolver and its collaborators. Callers match them
// with errors.Is; both the store and the remote source wrap them with context.
var (
	// ErrNotFound means no data is obtainable for the key: no local record
	// exists and the remote source either failed or has nothing.
	ErrNotFound = errors.New("resource not found")

	// ErrUnavailable is a transient remote source failure. The resolver
	// absorbs it whenever a prior record exists and serves that record stale.
	ErrUnavailable = errors.New("remote source unavailable")

	// ErrConflictingOverride is reported by a Store when an automatic
	// refresh write hits a record that has a manual override set. The write
	// is rejected rather than silently ignored.
	ErrConflictingOverride = errors.New("record has manual override")
)
