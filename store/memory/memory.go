package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
	"github.com/Darshil999/arxiv-elasticsearch-project/store"
)

// Store is an in-memory stand-in for the external document store. It keeps
// upsert-by-ID semantics, brute-force cosine ranking, and a naive lexical
// score so pipeline and search behavior can be exercised without a cluster.
type Store struct {
	mu        sync.RWMutex
	docs      map[string]*core.Document
	repos     map[string]string
	snapshots map[string]map[string]snapshot

	// FailBulk, when set, is consulted before every bulk submission; a
	// non-nil return fails the whole batch at the transport level.
	FailBulk func(batch core.Batch) error

	// PingErr, when set, makes the store report itself unreachable.
	PingErr error

	// Status is the reported cluster status. Defaults to green.
	Status string

	bulkCalls int
}

type snapshot struct {
	taken   time.Time
	state   string
	indices []string
	docs    map[string]*core.Document
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		docs:      make(map[string]*core.Document),
		repos:     make(map[string]string),
		snapshots: make(map[string]map[string]snapshot),
		Status:    "green",
	}
}

func (s *Store) Ping(context.Context) error { return s.PingErr }

func (s *Store) Health(context.Context) (store.ClusterHealth, error) {
	if s.PingErr != nil {
		return store.ClusterHealth{}, s.PingErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.ClusterHealth{Status: s.Status, NumberOfNodes: 1, ActiveShards: 1}, nil
}

func (s *Store) EnsureIndex(context.Context) error { return nil }

func (s *Store) BulkWrite(_ context.Context, batch core.Batch) ([]store.BulkResult, error) {
	if s.FailBulk != nil {
		if err := s.FailBulk(batch); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrStoreTransport, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkCalls++

	results := make([]store.BulkResult, 0, len(batch))
	for _, doc := range batch {
		_, exists := s.docs[doc.ID]
		s.docs[doc.ID] = copyDocument(doc)
		results = append(results, store.BulkResult{ID: doc.ID, Created: !exists})
	}
	return results, nil
}

func (s *Store) Search(_ context.Context, q store.Query) ([]store.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := q.Size
	if size <= 0 {
		size = 10
	}

	scores := make(map[string]float64)
	if q.Lexical != nil {
		for id, score := range s.lexicalScores(q.Lexical.Text) {
			scores[id] += score
		}
	}
	if q.KNN != nil {
		for id, score := range s.cosineScores(q.KNN.Vector) {
			scores[id] += score
		}
	}

	hits := make([]store.Hit, 0, len(scores))
	for id, score := range scores {
		if score <= 0 {
			continue
		}
		hits = append(hits, store.Hit{Document: copyDocument(s.docs[id]), Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if len(hits) > size {
		hits = hits[:size]
	}
	return hits, nil
}

func (s *Store) Refresh(context.Context) error { return nil }

func (s *Store) RegisterRepository(_ context.Context, repo, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[repo] = location
	if s.snapshots[repo] == nil {
		s.snapshots[repo] = make(map[string]snapshot)
	}
	return nil
}

func (s *Store) CreateSnapshot(_ context.Context, repo, name string, indices []string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.repos[repo]; !ok {
		return fmt.Errorf("snapshot repository %s not registered", repo)
	}
	frozen := make(map[string]*core.Document, len(s.docs))
	for id, doc := range s.docs {
		frozen[id] = copyDocument(doc)
	}
	s.snapshots[repo][name] = snapshot{
		taken:   time.Now(),
		state:   "SUCCESS",
		indices: append([]string(nil), indices...),
		docs:    frozen,
	}
	return nil
}

func (s *Store) ListSnapshots(_ context.Context, repo string) ([]store.SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps, ok := s.snapshots[repo]
	if !ok {
		return nil, fmt.Errorf("snapshot repository %s not registered", repo)
	}
	infos := make([]store.SnapshotInfo, 0, len(snaps))
	for name, snap := range snaps {
		infos = append(infos, store.SnapshotInfo{
			Name:      name,
			State:     snap.state,
			StartTime: snap.taken,
			Indices:   append([]string(nil), snap.indices...),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].StartTime.Before(infos[j].StartTime) })
	return infos, nil
}

func (s *Store) DeleteSnapshot(_ context.Context, repo, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, ok := s.snapshots[repo]
	if !ok {
		return fmt.Errorf("snapshot repository %s not registered", repo)
	}
	if _, ok := snaps[name]; !ok {
		return fmt.Errorf("snapshot %s not found in %s", name, repo)
	}
	delete(snaps, name)
	return nil
}

func (s *Store) RestoreSnapshot(_ context.Context, repo, name, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, ok := s.snapshots[repo]
	if !ok {
		return fmt.Errorf("snapshot repository %s not registered", repo)
	}
	snap, ok := snaps[name]
	if !ok {
		return fmt.Errorf("snapshot %s not found in %s", name, repo)
	}
	restored := make(map[string]*core.Document, len(snap.docs))
	for id, doc := range snap.docs {
		restored[id] = copyDocument(doc)
	}
	s.docs = restored
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Get returns a copy of the stored document with the given ID, or nil.
func (s *Store) Get(id string) *core.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDocument(s.docs[id])
}

// BulkCalls returns the number of bulk submissions that reached storage.
func (s *Store) BulkCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bulkCalls
}

// lexicalScores is a term-frequency score over title and abstract, with
// title matches counted twice. Matching is on whole lowercased tokens;
// substring matching would let stopword-like terms swamp the ranking.
func (s *Store) lexicalScores(text string) map[string]float64 {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return nil
	}
	scores := make(map[string]float64)
	for id, doc := range s.docs {
		title := termFrequencies(doc.Title)
		abstract := termFrequencies(doc.Abstract)
		var score float64
		for _, term := range terms {
			score += 2 * float64(title[term])
			score += float64(abstract[term])
		}
		if score > 0 {
			scores[id] = score
		}
	}
	return scores
}

func termFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		freq[tok]++
	}
	return freq
}

func (s *Store) cosineScores(query []float32) map[string]float64 {
	scores := make(map[string]float64)
	for id, doc := range s.docs {
		if len(doc.Vector) == 0 || len(doc.Vector) != len(query) {
			continue
		}
		scores[id] = cosine(query, doc.Vector)
	}
	return scores
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func copyDocument(doc *core.Document) *core.Document {
	if doc == nil {
		return nil
	}
	dup := *doc
	dup.Categories = append([]string(nil), doc.Categories...)
	dup.Vector = append([]float32(nil), doc.Vector...)
	return &dup
}
