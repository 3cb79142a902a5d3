package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
	"github.com/Darshil999/arxiv-elasticsearch-project/store"
)

// Loader streams embedded documents into the external store in bounded
// batches. At most the configured number of batches is in flight at once;
// Submit blocks when all workers are busy, which throttles the producer.
// A batch that exhausts its retries is marked failed and the run continues
// with the next batch.
type Loader struct {
	store      store.Store
	pool       *ants.Pool
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	dimension  int
	run        *core.IngestionRun
	progress   *ProgressTracker
	logger     *slog.Logger
}

// LoaderConfig carries the settings for NewLoader.
type LoaderConfig struct {
	BatchSize   int
	Concurrency int
	MaxRetries  int
	RetryDelay  time.Duration
	Dimension   int
	Run         *core.IngestionRun
	Progress    *ProgressTracker // optional
	Logger      *slog.Logger
}

// NewLoader creates a loader. Call Release when done with it.
func NewLoader(st store.Store, cfg LoaderConfig) (*Loader, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	run := cfg.Run
	if run == nil {
		run = core.NewIngestionRun()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(cfg.Concurrency)
	if err != nil {
		return nil, err
	}

	return &Loader{
		store:      st,
		pool:       pool,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		dimension:  cfg.Dimension,
		run:        run,
		progress:   cfg.Progress,
		logger:     logger.With("component", "loader"),
	}, nil
}

// Release shuts down the worker pool.
func (l *Loader) Release() {
	l.pool.Release()
}

// Load validates docs, splits them into batches, and submits each batch to
// the store through the worker pool. It returns after every submitted batch
// has completed. Context cancellation stops admission of new batches;
// batches already in flight drain naturally.
func (l *Loader) Load(ctx context.Context, docs []*core.Document) error {
	valid := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if err := doc.ValidateForIndexing(l.dimension); err != nil {
			l.run.AddSkipped(1)
			l.logger.Warn("skipping invalid document", "id", doc.ID, "err", err)
			continue
		}
		valid = append(valid, doc)
	}

	batches := core.SplitBatches(valid, l.batchSize)
	l.logger.Info("loading documents", "documents", len(valid), "batches", len(batches))

	var wg sync.WaitGroup
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			l.logger.Warn("canceled, stopping batch admission")
			wg.Wait()
			return err
		}

		batch := batch
		wg.Add(1)
		// Submit blocks while all workers are busy.
		if err := l.pool.Submit(func() {
			defer wg.Done()
			l.submitBatch(ctx, batch)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return nil
}

// submitBatch writes one batch with retry. Exhausted retries mark the whole
// batch failed on the run; the error does not propagate.
func (l *Loader) submitBatch(ctx context.Context, batch core.Batch) {
	var results []store.BulkResult

	err := RetryWithBackoff(ctx, func() error {
		res, err := l.store.BulkWrite(ctx, batch)
		if err != nil {
			return err
		}
		results = res
		return nil
	}, l.maxRetries, l.retryDelay)
	if err != nil {
		l.run.AddFailedBatch(len(batch))
		l.logger.Error("batch failed after retries", "documents", len(batch), "err", err)
		return
	}

	for _, res := range results {
		switch {
		case res.Err != nil:
			l.run.AddRejected(1)
			l.logger.Warn("document rejected by store", "id", res.ID, "err", res.Err)
		case res.Created:
			l.run.AddIndexed(1)
		default:
			l.run.AddUpdated(1)
		}
	}
	if l.progress != nil {
		l.progress.Increment(len(batch))
	}
}
