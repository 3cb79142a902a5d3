// Package arxivsearch wires the demo harness together: configuration,
// external store client, embedder, ingestion pipeline, and query client
// behind one constructor.
package arxivsearch

import (
	"log/slog"

	"github.com/Darshil999/arxiv-elasticsearch-project/ai"
	"github.com/Darshil999/arxiv-elasticsearch-project/ai/openai"
	"github.com/Darshil999/arxiv-elasticsearch-project/config"
	"github.com/Darshil999/arxiv-elasticsearch-project/search"
	"github.com/Darshil999/arxiv-elasticsearch-project/store"
	"github.com/Darshil999/arxiv-elasticsearch-project/store/elastic"
)

// Harness bundles the configured components of the demo. Ingestion and
// querying share one embedder so vectors written and vectors compared come
// from the same model.
type Harness struct {
	cfg      *config.Config
	store    store.Store
	embedder ai.Embedder
	client   *search.Client
	logger   *slog.Logger
}

// Option overrides a component before wiring completes.
type Option func(*Harness)

// WithStore substitutes the store implementation. Tests use this to run the
// full harness against the in-memory store.
func WithStore(st store.Store) Option {
	return func(h *Harness) { h.store = st }
}

// WithEmbedder substitutes the embedder.
func WithEmbedder(e ai.Embedder) Option {
	return func(h *Harness) { h.embedder = e }
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// New builds a harness from cfg. The store is not contacted; callers ping
// explicitly before ingesting.
func New(cfg *config.Config, opts ...Option) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Harness{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}

	if h.store == nil {
		st, err := elastic.NewClient(elastic.Config{
			Hosts:     cfg.Hosts,
			Index:     cfg.IndexName,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Dimension: cfg.EmbeddingDimension,
			Timeout:   cfg.RequestTimeout,
			Logger:    h.logger,
		})
		if err != nil {
			return nil, err
		}
		h.store = st
	}

	if h.embedder == nil {
		aiCfg := ai.NewConfig(
			ai.WithHost(cfg.EmbeddingHost),
			ai.WithModel(cfg.EmbeddingModel),
			ai.WithDimension(cfg.EmbeddingDimension),
		)
		if err := aiCfg.Validate(); err != nil {
			return nil, err
		}
		embedder, err := openai.NewEmbedder(aiCfg)
		if err != nil {
			return nil, err
		}
		h.embedder = embedder
	}

	client, err := search.NewClient(h.store, h.embedder, h.logger)
	if err != nil {
		return nil, err
	}
	h.client = client
	return h, nil
}

// Config returns the configuration the harness was built from.
func (h *Harness) Config() *config.Config { return h.cfg }

// Store returns the wired store.
func (h *Harness) Store() store.Store { return h.store }

// Embedder returns the wired embedder.
func (h *Harness) Embedder() ai.Embedder { return h.embedder }

// SearchClient returns the wired query client.
func (h *Harness) SearchClient() *search.Client { return h.client }
