package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
)

// dateLayout is the canonical calendar-date form used by the arXiv dump.
const dateLayout = "2006-01-02"

// Normalizer maps raw dataset rows into canonical documents. It consumes
// its input exactly once: duplicate detection spans the whole run, so the
// normalizer is not restartable without re-reading the source.
type Normalizer struct {
	prefixes []string
	maxDocs  int
	run      *core.IngestionRun
	logger   *slog.Logger

	seen map[string]struct{}
}

// NewNormalizer creates a normalizer. Records whose category set does not
// intersect prefixes are filtered out; maxDocs <= 0 means unlimited.
func NewNormalizer(prefixes []string, maxDocs int, run *core.IngestionRun, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		prefixes: prefixes,
		maxDocs:  maxDocs,
		run:      run,
		logger:   logger.With("component", "normalizer"),
		seen:     make(map[string]struct{}),
	}
}

// Normalize converts a single raw record into a document.
// Returns core.ErrMalformedRecord for a missing or duplicate identifier and
// core.ErrInvalidDate for an unparsable date; both are per-record failures
// that the caller drops without aborting the run.
func (n *Normalizer) Normalize(rec *RawRecord) (*core.Document, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", core.ErrMalformedRecord)
	}

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", core.ErrMalformedRecord)
	}
	if _, dup := n.seen[id]; dup {
		return nil, fmt.Errorf("%w: duplicate id %s", core.ErrMalformedRecord, id)
	}

	updateDate, err := parseDate(rec.UpdateDate)
	if err != nil {
		return nil, fmt.Errorf("%w: id %s: %q", core.ErrInvalidDate, id, rec.UpdateDate)
	}

	n.seen[id] = struct{}{}

	return &core.Document{
		ID:         id,
		Title:      flattenWhitespace(rec.Title),
		Abstract:   flattenWhitespace(rec.Abstract),
		Authors:    flattenWhitespace(rec.Authors),
		Categories: keepWithPrefixes(rec.Categories, n.prefixes),
		UpdateDate: updateDate,
	}, nil
}

// Source yields raw records one at a time, returning io.EOF when exhausted.
// Both file readers and in-memory slices satisfy it.
type Source interface {
	Next() (*RawRecord, error)
}

// SliceSource adapts an in-memory record slice to the Source interface.
type SliceSource struct {
	records []*RawRecord
	pos     int
}

// NewSliceSource wraps records in a Source.
func NewSliceSource(records []*RawRecord) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record, or io.EOF when the slice is exhausted.
func (s *SliceSource) Next() (*RawRecord, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// ForEach streams raw records from src, normalizes them, and calls fn for
// every document that passes the filters. Per-record failures, including
// rows the source reports as core.ErrMalformedRecord, are counted on the
// run and logged; fn errors and terminal source errors abort.
func (n *Normalizer) ForEach(ctx context.Context, src Source, fn func(*core.Document) error) error {
	emitted := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if n.maxDocs > 0 && emitted >= n.maxDocs {
			n.logger.Info("reached document limit", "max", n.maxDocs)
			return nil
		}

		rec, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, core.ErrMalformedRecord) {
			// The source has advanced past the bad row, so it is safe to
			// drop it and keep reading.
			n.run.AddInput(1)
			n.run.AddMalformed(1)
			n.logger.Warn("skipping unreadable record", "err", err)
			continue
		}
		if err != nil {
			// Anything else means the source cannot make progress;
			// retrying Next would spin on the same failure forever.
			return fmt.Errorf("read source: %w", err)
		}

		n.run.AddInput(1)

		// Filter before normalizing: out-of-subject records are expected,
		// not errors.
		if !categoriesIntersect(rec.Categories, n.prefixes) {
			n.run.AddFiltered(1)
			continue
		}

		doc, err := n.Normalize(rec)
		if err != nil {
			if errors.Is(err, core.ErrInvalidDate) {
				n.run.AddInvalidDate(1)
			} else {
				n.run.AddMalformed(1)
			}
			n.logger.Warn("dropping record", "err", err)
			continue
		}

		n.run.AddNormalized(1)
		emitted++

		if err := fn(doc); err != nil {
			return err
		}
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// flattenWhitespace collapses newlines and runs of spaces into single
// spaces, matching how the dataset's multi-line fields are cleaned.
func flattenWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func categoriesIntersect(cats []string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, cat := range cats {
		for _, prefix := range prefixes {
			if strings.HasPrefix(cat, prefix) {
				return true
			}
		}
	}
	return false
}

// keepWithPrefixes returns the unique categories matching the filter, in
// first-seen order. With no filter, all unique categories are kept.
func keepWithPrefixes(cats []string, prefixes []string) []string {
	out := make([]string, 0, len(cats))
	seen := make(map[string]struct{}, len(cats))
	for _, cat := range cats {
		if _, dup := seen[cat]; dup {
			continue
		}
		if len(prefixes) > 0 && !hasAnyPrefix(cat, prefixes) {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
