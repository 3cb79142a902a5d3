package core

import "errors"

// Error taxonomy for the ingestion pipeline. Per-record errors drop the
// record and the run continues; configuration-class errors abort the run.
var (
	// ErrMalformedRecord indicates a raw record without a usable identifier,
	// or one whose identifier repeats within the run. The record is dropped.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidDate indicates an unparsable update date. The record is
	// dropped; the run continues.
	ErrInvalidDate = errors.New("invalid update date")

	// ErrDimensionMismatch indicates the embedding model returned a vector
	// whose length does not match the configured dimension. This is a
	// configuration error and aborts the run.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreTransport indicates a network or cluster-level failure talking
	// to the external store. Subject to the retry policy.
	ErrStoreTransport = errors.New("store transport failure")

	// ErrStoreRejection indicates the store rejected an individual document
	// (schema mismatch, malformed vector, capacity). The document is marked
	// failed; the run continues.
	ErrStoreRejection = errors.New("store rejected document")

	// ErrMissingVector indicates a document reached the bulk loader without
	// an embedding vector.
	ErrMissingVector = errors.New("document has no vector")
)
