package store

import (
	"context"
	"time"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
)

// Store is the contract with the external document store. The harness
// treats the cluster as an opaque service: documents go in through bulk
// upserts keyed by ID, queries and snapshot operations pass through.
type Store interface {
	// Ping verifies the store is reachable. Used as a startup gate.
	Ping(ctx context.Context) error

	// Health reports cluster health for classification.
	Health(ctx context.Context) (ClusterHealth, error)

	// EnsureIndex creates the target index with its mapping if it does not
	// exist yet. Calling it against an existing index is a no-op.
	EnsureIndex(ctx context.Context) error

	// BulkWrite submits one batch as idempotent upserts keyed by document
	// ID. The returned slice has one result per submitted document, in
	// order. A non-nil error means the whole batch failed at the transport
	// level and may be retried; per-document rejections are reported in the
	// results instead.
	BulkWrite(ctx context.Context, batch core.Batch) ([]BulkResult, error)

	// Search executes a query and returns scored hits.
	Search(ctx context.Context, q Query) ([]Hit, error)

	// Refresh makes recently written documents visible to search.
	Refresh(ctx context.Context) error

	// RegisterRepository registers a filesystem snapshot repository.
	RegisterRepository(ctx context.Context, repo, location string) error

	// CreateSnapshot snapshots the given indices into repo under name.
	CreateSnapshot(ctx context.Context, repo, name string, indices []string, wait bool) error

	// ListSnapshots lists the snapshots stored in repo.
	ListSnapshots(ctx context.Context, repo string) ([]SnapshotInfo, error)

	// DeleteSnapshot removes a snapshot from repo.
	DeleteSnapshot(ctx context.Context, repo, name string) error

	// RestoreSnapshot restores a snapshot, renaming restored indices with
	// the given suffix so a live index is never clobbered.
	RestoreSnapshot(ctx context.Context, repo, name, renameSuffix string) error
}

// Query describes one search request. At least one clause must be set;
// setting both yields a hybrid candidate set scored by the store.
type Query struct {
	Lexical *LexicalClause
	KNN     *KNNClause
	Size    int
}

// LexicalClause matches text against title (boosted) and abstract.
type LexicalClause struct {
	Text string
}

// KNNClause requests the K nearest neighbors of Vector under cosine
// similarity. NumCandidates controls the per-shard candidate pool.
type KNNClause struct {
	Field         string
	Vector        []float32
	K             int
	NumCandidates int
}

// Hit is one scored search result.
type Hit struct {
	Document *core.Document
	Score    float64
}

// BulkResult reports the outcome for one document of a bulk submission.
type BulkResult struct {
	ID      string
	Created bool  // true on first write, false when an existing doc was updated
	Err     error // non-nil when the store rejected this document
}

// HealthClass buckets cluster health into the three states the harness
// acts on.
type HealthClass int

const (
	Healthy HealthClass = iota
	Degraded
	Unavailable
)

func (c HealthClass) String() string {
	switch c {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	default:
		return "unavailable"
	}
}

// ClusterHealth is the store's own health report.
type ClusterHealth struct {
	Status        string
	NumberOfNodes int
	ActiveShards  int
}

// Classify maps the store's status string onto a HealthClass. Anything
// other than green or yellow counts as unavailable.
func (h ClusterHealth) Classify() HealthClass {
	switch h.Status {
	case "green":
		return Healthy
	case "yellow":
		return Degraded
	default:
		return Unavailable
	}
}

// SnapshotInfo describes one stored snapshot.
type SnapshotInfo struct {
	Name      string
	State     string
	StartTime time.Time
	Indices   []string
}
