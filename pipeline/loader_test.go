package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darshil999/arxiv-elasticsearch-project/ai/mock"
	"github.com/Darshil999/arxiv-elasticsearch-project/core"
	"github.com/Darshil999/arxiv-elasticsearch-project/store/memory"
)

func embeddedDocs(n int) []*core.Document {
	docs := make([]*core.Document, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("doc-%03d", i)
		docs = append(docs, &core.Document{
			ID:     id,
			Title:  "Title " + id,
			Vector: mock.DeterministicVector(id, testDim),
		})
	}
	return docs
}

func newLoader(t *testing.T, st *memory.Store, cfg LoaderConfig) (*Loader, *core.IngestionRun) {
	t.Helper()
	run := core.NewIngestionRun()
	cfg.Run = run
	cfg.Dimension = testDim
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	loader, err := NewLoader(st, cfg)
	require.NoError(t, err)
	t.Cleanup(loader.Release)
	return loader, run
}

func TestLoadSplitsIntoBatches(t *testing.T) {
	st := memory.New()
	loader, run := newLoader(t, st, LoaderConfig{BatchSize: 2, Concurrency: 1})

	// 5 documents with batch size 2 means exactly 3 submissions: 2, 2, 1.
	require.NoError(t, loader.Load(context.Background(), embeddedDocs(5)))

	assert.Equal(t, 3, st.BulkCalls())
	assert.Equal(t, 5, st.Count())
	assert.Equal(t, 5, run.Indexed())
	assert.False(t, run.Failed())
}

func TestLoadIsIdempotent(t *testing.T) {
	st := memory.New()
	docs := embeddedDocs(7)

	loader, run := newLoader(t, st, LoaderConfig{BatchSize: 3, Concurrency: 2})
	require.NoError(t, loader.Load(context.Background(), docs))
	assert.Equal(t, 7, st.Count())
	assert.Equal(t, 7, run.Indexed())

	// A second run over the same documents converges on the same store
	// state, counted as updates.
	loader2, run2 := newLoader(t, st, LoaderConfig{BatchSize: 3, Concurrency: 2})
	require.NoError(t, loader2.Load(context.Background(), docs))
	assert.Equal(t, 7, st.Count())
	assert.Equal(t, 0, run2.Indexed())
	assert.Equal(t, 7, run2.Updated())
	assert.False(t, run2.Failed())
}

func TestLoadSkipsInvalidDocuments(t *testing.T) {
	st := memory.New()
	loader, run := newLoader(t, st, LoaderConfig{BatchSize: 10, Concurrency: 1})

	docs := embeddedDocs(3)
	docs = append(docs,
		&core.Document{ID: "no-vector", Title: "missing"},
		&core.Document{ID: "short-vector", Vector: []float32{1, 2}},
	)

	require.NoError(t, loader.Load(context.Background(), docs))
	assert.Equal(t, 3, st.Count())
	assert.Equal(t, 3, run.Indexed())
	assert.Equal(t, 2, run.Skipped())
	assert.True(t, run.Failed())
}

func TestLoadRetriesTransientFailures(t *testing.T) {
	st := memory.New()
	var attempts atomic.Int32
	st.FailBulk = func(core.Batch) error {
		if attempts.Add(1) < 3 {
			return errors.New("temporarily unavailable")
		}
		return nil
	}

	loader, run := newLoader(t, st, LoaderConfig{BatchSize: 10, Concurrency: 1, MaxRetries: 3})
	require.NoError(t, loader.Load(context.Background(), embeddedDocs(4)))

	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 4, run.Indexed())
	assert.Equal(t, 0, run.FailedBatches())
	assert.False(t, run.Failed())
}

func TestLoadIsolatesPoisonedBatch(t *testing.T) {
	st := memory.New()
	st.FailBulk = func(batch core.Batch) error {
		for _, doc := range batch {
			if doc.ID == "doc-003" {
				return errors.New("poisoned batch")
			}
		}
		return nil
	}

	loader, run := newLoader(t, st, LoaderConfig{BatchSize: 2, Concurrency: 1, MaxRetries: 2})
	require.NoError(t, loader.Load(context.Background(), embeddedDocs(6)))

	// The batch holding doc-003 (doc-002, doc-003) fails; the others land.
	assert.Equal(t, 4, st.Count())
	assert.Equal(t, 4, run.Indexed())
	assert.Equal(t, 1, run.FailedBatches())
	assert.Equal(t, 2, run.FailedDocuments())
	assert.True(t, run.Failed())

	assert.NotNil(t, st.Get("doc-000"))
	assert.Nil(t, st.Get("doc-003"))
}

func TestLoadStopsAdmissionOnCancel(t *testing.T) {
	st := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader, _ := newLoader(t, st, LoaderConfig{BatchSize: 2, Concurrency: 1})
	err := loader.Load(ctx, embeddedDocs(6))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, st.Count())
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, 5, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("permanent")
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			return wantErr
		}, 3, time.Millisecond)
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("invalid attempts", func(t *testing.T) {
		err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, func() error { return errors.New("never runs") }, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
