package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Darshil999/arxiv-elasticsearch-project/ai"
	"github.com/Darshil999/arxiv-elasticsearch-project/core"
	"github.com/Darshil999/arxiv-elasticsearch-project/store"
)

// Weights controls how hybrid search combines the two rankings. Zero value
// weights are replaced by DefaultWeights.
type Weights struct {
	Lexical float64
	Vector  float64
}

// DefaultWeights favors neither ranking.
var DefaultWeights = Weights{Lexical: 0.5, Vector: 0.5}

// Result is one ranked search result.
type Result struct {
	Document *core.Document
	Score    float64
}

// Client runs demo queries against the store. The embedder must be the same
// model the ingestion pipeline used; vectors produced by different models
// are not comparable.
type Client struct {
	store    store.Store
	embedder ai.Embedder
	field    string
	logger   *slog.Logger
}

// NewClient creates a query client.
func NewClient(st store.Store, embedder ai.Embedder, logger *slog.Logger) (*Client, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		store:    st,
		embedder: embedder,
		logger:   logger.With("component", "search"),
	}, nil
}

// Lexical runs a text match over title (boosted) and abstract.
func (c *Client) Lexical(ctx context.Context, text string, k int) ([]Result, error) {
	hits, err := c.store.Search(ctx, store.Query{
		Lexical: &store.LexicalClause{Text: text},
		Size:    k,
	})
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return toResults(hits), nil
}

// Vector embeds the query text and runs a k-NN search under cosine
// similarity.
func (c *Client) Vector(ctx context.Context, text string, k int) ([]Result, error) {
	vector, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return c.VectorByEmbedding(ctx, vector, k)
}

// VectorByEmbedding runs a k-NN search with an already computed vector.
func (c *Client) VectorByEmbedding(ctx context.Context, vector []float32, k int) ([]Result, error) {
	hits, err := c.store.Search(ctx, store.Query{
		KNN:  &store.KNNClause{Vector: vector, K: k},
		Size: k,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return toResults(hits), nil
}

// Hybrid fetches the lexical and vector rankings separately, min-max
// normalizes each score set to [0,1], and combines them with the given
// weights. Ties break by document ID ascending so result order is stable.
func (c *Client) Hybrid(ctx context.Context, text string, k int, w Weights) ([]Result, error) {
	if w.Lexical == 0 && w.Vector == 0 {
		w = DefaultWeights
	}

	lexical, err := c.Lexical(ctx, text, k)
	if err != nil {
		return nil, err
	}
	vector, err := c.Vector(ctx, text, k)
	if err != nil {
		return nil, err
	}

	lexScores := normalizeScores(lexical)
	vecScores := normalizeScores(vector)

	docs := make(map[string]*core.Document, len(lexical)+len(vector))
	for _, r := range lexical {
		docs[r.Document.ID] = r.Document
	}
	for _, r := range vector {
		docs[r.Document.ID] = r.Document
	}

	combined := make([]Result, 0, len(docs))
	for id, doc := range docs {
		score := w.Lexical*lexScores[id] + w.Vector*vecScores[id]
		combined = append(combined, Result{Document: doc, Score: score})
	}
	sort.Slice(combined, func(i, j int) bool {
		if combined[i].Score != combined[j].Score {
			return combined[i].Score > combined[j].Score
		}
		return combined[i].Document.ID < combined[j].Document.ID
	})
	if len(combined) > k && k > 0 {
		combined = combined[:k]
	}
	return combined, nil
}

func toResults(hits []store.Hit) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{Document: h.Document, Score: h.Score})
	}
	return results
}

// normalizeScores min-max scales a ranking's scores into [0,1] keyed by
// document ID. A ranking with one distinct score maps everything to 1.
func normalizeScores(results []Result) map[string]float64 {
	scores := make(map[string]float64, len(results))
	if len(results) == 0 {
		return scores
	}

	min, max := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}

	for _, r := range results {
		if max == min {
			scores[r.Document.ID] = 1
			continue
		}
		scores[r.Document.ID] = (r.Score - min) / (max - min)
	}
	return scores
}
