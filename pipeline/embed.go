package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/Darshil999/arxiv-elasticsearch-project/ai"
	"github.com/Darshil999/arxiv-elasticsearch-project/core"
)

// VectorCache stores embedding vectors keyed by input text. Get returns nil
// without error on a miss.
type VectorCache interface {
	Get(text string) ([]float32, error)
	Put(text string, vector []float32) error
}

// EmbedStage populates document vectors batch by batch. One model call is
// made per batch (minus cache hits); a vector of the wrong length aborts
// the whole run because it means the configured dimension does not match
// the model.
type EmbedStage struct {
	embedder  ai.Embedder
	cache     VectorCache
	dimension int
	maxChars  int
	run       *core.IngestionRun
	logger    *slog.Logger
}

// EmbedStageConfig carries the settings for NewEmbedStage.
type EmbedStageConfig struct {
	Dimension int
	MaxChars  int
	Cache     VectorCache // optional
	Run       *core.IngestionRun
	Logger    *slog.Logger
}

// NewEmbedStage creates an embed stage.
func NewEmbedStage(embedder ai.Embedder, cfg EmbedStageConfig) (*EmbedStage, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be > 0, got %d", cfg.Dimension)
	}
	run := cfg.Run
	if run == nil {
		run = core.NewIngestionRun()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbedStage{
		embedder:  embedder,
		cache:     cfg.Cache,
		dimension: cfg.Dimension,
		maxChars:  cfg.MaxChars,
		run:       run,
		logger:    logger.With("component", "embed-stage"),
	}, nil
}

// EmbedBatch fills in the vector of every document in the batch. Cached
// vectors are reused; the remaining texts go to the model in one call.
func (s *EmbedStage) EmbedBatch(ctx context.Context, batch core.Batch) error {
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = truncateText(doc.EmbeddingText(), s.maxChars)
	}

	vectors := make([][]float32, len(batch))
	missIdx := make([]int, 0, len(batch))
	if s.cache != nil {
		for i, text := range texts {
			vec, err := s.cache.Get(text)
			if err != nil {
				return fmt.Errorf("cache lookup: %w", err)
			}
			if vec != nil {
				vectors[i] = vec
				continue
			}
			missIdx = append(missIdx, i)
		}
		if len(missIdx) < len(batch) {
			s.logger.Debug("cache hits", "hits", len(batch)-len(missIdx), "batch", len(batch))
		}
	} else {
		for i := range texts {
			missIdx = append(missIdx, i)
		}
	}

	if len(missIdx) > 0 {
		missTexts := make([]string, len(missIdx))
		for i, idx := range missIdx {
			missTexts[i] = texts[idx]
		}

		embedded, err := s.embedder.EmbedTexts(ctx, missTexts)
		if err != nil {
			return fmt.Errorf("embed batch of %d: %w", len(missTexts), err)
		}
		if len(embedded) != len(missTexts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(missTexts))
		}
		for i, idx := range missIdx {
			vectors[idx] = embedded[i]
		}
	}

	for i, doc := range batch {
		vec := vectors[i]
		if len(vec) != s.dimension {
			return fmt.Errorf("%w: document %s: got %d, want %d",
				core.ErrDimensionMismatch, doc.ID, len(vec), s.dimension)
		}
		doc.Vector = vec
	}

	if s.cache != nil {
		for _, idx := range missIdx {
			if err := s.cache.Put(texts[idx], vectors[idx]); err != nil {
				// A failed cache write only costs recomputation later.
				s.logger.Warn("cache write failed", "err", err)
			}
		}
	}

	s.run.AddEmbedded(len(batch))
	return nil
}

// truncateText cuts s to at most maxChars bytes on a rune boundary.
// maxChars <= 0 disables truncation.
func truncateText(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
