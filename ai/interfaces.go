package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Given the same model identifier and the same input text, an
// implementation must produce the same vector (within floating-point
// tolerance) across runs; the ingestion pipeline and the query client rely
// on this to compare vectors produced at different times.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. Batch processing is more efficient than calling EmbedText once
	// per text. The returned slice is in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
