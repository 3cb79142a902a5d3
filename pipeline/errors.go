package pipeline

import "errors"

var (
	// ErrInvalidMaxAttempts indicates RetryWithBackoff was called with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be > 0")

	// ErrStoreRequired indicates a loader was constructed without a store.
	ErrStoreRequired = errors.New("store is required")

	// ErrEmbedderRequired indicates an embed stage was constructed without
	// an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
)
