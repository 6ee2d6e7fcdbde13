package methodcache

import "errors"

var (
	// ErrMethodNotRegistered is returned by GetOrCreate when no policy was
	// registered for the method and none was supplied explicitly.
	ErrMethodNotRegistered = errors.New("methodcache: method not registered")

	// ErrNonIdempotentFactory rejects a call whose policy requires an
	// idempotent factory while the method is registered as non-idempotent.
	// This is a configuration error raised before the factory runs,
	// distinct from runtime factory failures.
	ErrNonIdempotentFactory = errors.New("methodcache: policy requires an idempotent factory")
)
