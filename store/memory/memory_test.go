package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
	"github.com/Darshil999/arxiv-elasticsearch-project/store"
)

func doc(id, title, abstract string, vector ...float32) *core.Document {
	return &core.Document{
		ID:         id,
		Title:      title,
		Abstract:   abstract,
		Categories: []string{"cs.AI"},
		Vector:     vector,
	}
}

func TestBulkWriteUpserts(t *testing.T) {
	s := New()
	ctx := context.Background()

	results, err := s.BulkWrite(ctx, core.Batch{
		doc("a", "First", "alpha"),
		doc("b", "Second", "beta"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Created)
	assert.True(t, results[1].Created)
	assert.Equal(t, 2, s.Count())

	// Re-submitting the same IDs updates in place.
	results, err = s.BulkWrite(ctx, core.Batch{doc("a", "First Revised", "alpha")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Created)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, "First Revised", s.Get("a").Title)
}

func TestBulkWriteFailureHook(t *testing.T) {
	s := New()
	s.FailBulk = func(core.Batch) error { return errors.New("boom") }

	_, err := s.BulkWrite(context.Background(), core.Batch{doc("a", "First", "alpha")})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStoreTransport)
	assert.Equal(t, 0, s.Count())
}

func TestSearchLexical(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.BulkWrite(ctx, core.Batch{
		doc("a", "deep learning survey", "neural networks everywhere"),
		doc("b", "database indexing", "b-trees and query plans"),
		doc("c", "more deep learning", "deep deep deep"),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, store.Query{
		Lexical: &store.LexicalClause{Text: "deep learning"},
		Size:    10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// "c" has more term occurrences than "a"; "b" does not match at all.
	assert.Equal(t, "c", hits[0].Document.ID)
	assert.Equal(t, "a", hits[1].Document.ID)
}

func TestSearchLexicalMatchesWholeTokensOnly(t *testing.T) {
	s := New()
	ctx := context.Background()

	// "in" and "a" appear as substrings all over these texts; only whole
	// tokens may count, or the short terms dominate the ranking.
	_, err := s.BulkWrite(ctx, core.Batch{
		doc("a", "indexing information inside internal indices", "maintaining intricate invariants within intervals"),
		doc("b", "graph coloring", "a walk in a park"),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, store.Query{
		Lexical: &store.LexicalClause{Text: "a walk in the park"},
		Size:    10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Document.ID)
}

func TestSearchLexicalExactTextRanksItsDocumentFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.BulkWrite(ctx, core.Batch{
		doc("a", "Sparse Models for Retrieval in Practice", "A study of sparse models applied at scale in web retrieval."),
		doc("b", "Dense Vectors and Index Design", "An analysis of dense vector indices and their design tradeoffs."),
		doc("c", "Query Planning Basics", "Notes on planning and executing analytical queries."),
	})
	require.NoError(t, err)

	// Querying with a document's own title and abstract must put that
	// document on top.
	hits, err := s.Search(ctx, store.Query{
		Lexical: &store.LexicalClause{Text: "Dense Vectors and Index Design An analysis of dense vector indices and their design tradeoffs."},
		Size:    10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "b", hits[0].Document.ID)
}

func TestSearchKNNCosine(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.BulkWrite(ctx, core.Batch{
		doc("a", "A", "", 1, 0, 0),
		doc("b", "B", "", 0, 1, 0),
		doc("c", "C", "", 0.9, 0.1, 0),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, store.Query{
		KNN:  &store.KNNClause{Vector: []float32{1, 0, 0}, K: 2},
		Size: 2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Document.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "c", hits[1].Document.ID)
}

func TestSearchTieBreaksByID(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.BulkWrite(ctx, core.Batch{
		doc("z", "same title", ""),
		doc("a", "same title", ""),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, store.Query{
		Lexical: &store.LexicalClause{Text: "same title"},
		Size:    10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Document.ID)
	assert.Equal(t, "z", hits[1].Document.ID)
}

func TestSnapshotLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.BulkWrite(ctx, core.Batch{doc("a", "First", "alpha")})
	require.NoError(t, err)

	require.NoError(t, s.RegisterRepository(ctx, "backup", "/tmp/snaps"))
	require.NoError(t, s.CreateSnapshot(ctx, "backup", "snap-1", []string{"arxiv-papers"}, true))

	// Mutations after the snapshot do not leak into it.
	_, err = s.BulkWrite(ctx, core.Batch{doc("b", "Second", "beta")})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	infos, err := s.ListSnapshots(ctx, "backup")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "snap-1", infos[0].Name)
	assert.Equal(t, "SUCCESS", infos[0].State)

	require.NoError(t, s.RestoreSnapshot(ctx, "backup", "snap-1", "_restored"))
	assert.Equal(t, 1, s.Count())
	assert.NotNil(t, s.Get("a"))
	assert.Nil(t, s.Get("b"))
}

func TestSnapshotDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.RegisterRepository(ctx, "backup", "/tmp/snaps"))
	require.NoError(t, s.CreateSnapshot(ctx, "backup", "snap-1", nil, true))
	require.NoError(t, s.CreateSnapshot(ctx, "backup", "snap-2", nil, true))

	require.NoError(t, s.DeleteSnapshot(ctx, "backup", "snap-1"))

	infos, err := s.ListSnapshots(ctx, "backup")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "snap-2", infos[0].Name)

	// Deleting a snapshot that is already gone is an error.
	assert.Error(t, s.DeleteSnapshot(ctx, "backup", "snap-1"))
	assert.Error(t, s.DeleteSnapshot(ctx, "missing", "snap-2"))
}

func TestSnapshotUnknownRepo(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.CreateSnapshot(ctx, "missing", "snap-1", nil, true)
	assert.Error(t, err)

	_, err = s.ListSnapshots(ctx, "missing")
	assert.Error(t, err)

	err = s.RestoreSnapshot(ctx, "missing", "snap-1", "")
	assert.Error(t, err)
}

func TestHealthClassification(t *testing.T) {
	s := New()

	health, err := s.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Healthy, health.Classify())

	s.Status = "yellow"
	health, _ = s.Health(context.Background())
	assert.Equal(t, store.Degraded, health.Classify())

	s.Status = "red"
	health, _ = s.Health(context.Background())
	assert.Equal(t, store.Unavailable, health.Classify())

	s.PingErr = errors.New("connection refused")
	_, err = s.Health(context.Background())
	assert.Error(t, err)
}
