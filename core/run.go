package core

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// IngestionRun accumulates per-document and per-batch outcomes for a single
// pipeline execution. Counters are updated atomically because bulk batches
// complete concurrently. A run lives for the process lifetime only; it is
// never persisted.
type IngestionRun struct {
	startedAt  time.Time
	finishedAt time.Time

	input       atomic.Int64
	normalized  atomic.Int64
	filtered    atomic.Int64
	malformed   atomic.Int64
	invalidDate atomic.Int64
	embedded    atomic.Int64
	skipped     atomic.Int64
	indexed     atomic.Int64
	updated     atomic.Int64
	rejected    atomic.Int64
	failedDocs  atomic.Int64
	failedBatch atomic.Int64
}

// NewIngestionRun starts a run clock.
func NewIngestionRun() *IngestionRun {
	return &IngestionRun{startedAt: time.Now()}
}

// AddInput records n raw records read from the source.
func (r *IngestionRun) AddInput(n int) { r.input.Add(int64(n)) }

// AddNormalized records n documents emitted by the normalizer.
func (r *IngestionRun) AddNormalized(n int) { r.normalized.Add(int64(n)) }

// AddFiltered records n records dropped by the category filter.
func (r *IngestionRun) AddFiltered(n int) { r.filtered.Add(int64(n)) }

// AddMalformed records n records dropped for a missing or duplicate id.
func (r *IngestionRun) AddMalformed(n int) { r.malformed.Add(int64(n)) }

// AddInvalidDate records n records dropped for an unparsable date.
func (r *IngestionRun) AddInvalidDate(n int) { r.invalidDate.Add(int64(n)) }

// AddEmbedded records n documents whose vectors were populated.
func (r *IngestionRun) AddEmbedded(n int) { r.embedded.Add(int64(n)) }

// AddSkipped records n documents rejected by pre-submission validation.
func (r *IngestionRun) AddSkipped(n int) { r.skipped.Add(int64(n)) }

// AddIndexed records n documents newly indexed by the store.
func (r *IngestionRun) AddIndexed(n int) { r.indexed.Add(int64(n)) }

// AddUpdated records n documents upserted over an existing id.
func (r *IngestionRun) AddUpdated(n int) { r.updated.Add(int64(n)) }

// AddRejected records n documents rejected by the store.
func (r *IngestionRun) AddRejected(n int) { r.rejected.Add(int64(n)) }

// AddFailedBatch records a batch of n documents that exhausted its retries.
func (r *IngestionRun) AddFailedBatch(n int) {
	r.failedBatch.Add(1)
	r.failedDocs.Add(int64(n))
}

// Input returns the number of raw records read.
func (r *IngestionRun) Input() int { return int(r.input.Load()) }

// Normalized returns the number of documents emitted by the normalizer.
func (r *IngestionRun) Normalized() int { return int(r.normalized.Load()) }

// Malformed returns the number of records dropped for bad identifiers.
func (r *IngestionRun) Malformed() int { return int(r.malformed.Load()) }

// InvalidDates returns the number of records dropped for bad dates.
func (r *IngestionRun) InvalidDates() int { return int(r.invalidDate.Load()) }

// Filtered returns the number of records outside the category filter.
func (r *IngestionRun) Filtered() int { return int(r.filtered.Load()) }

// Embedded returns the number of documents with populated vectors.
func (r *IngestionRun) Embedded() int { return int(r.embedded.Load()) }

// Skipped returns the number of documents dropped before submission.
func (r *IngestionRun) Skipped() int { return int(r.skipped.Load()) }

// Indexed returns the number of newly indexed documents.
func (r *IngestionRun) Indexed() int { return int(r.indexed.Load()) }

// Updated returns the number of documents upserted over an existing id.
func (r *IngestionRun) Updated() int { return int(r.updated.Load()) }

// Rejected returns the number of documents rejected by the store.
func (r *IngestionRun) Rejected() int { return int(r.rejected.Load()) }

// FailedDocuments returns the number of documents in failed batches.
func (r *IngestionRun) FailedDocuments() int { return int(r.failedDocs.Load()) }

// FailedBatches returns the number of batches that exhausted retries.
func (r *IngestionRun) FailedBatches() int { return int(r.failedBatch.Load()) }

// Finalize stops the run clock. Safe to call once, after all batches have
// completed.
func (r *IngestionRun) Finalize() {
	r.finishedAt = time.Now()
}

// Elapsed returns the wall-clock duration of the run so far, or the total
// duration after Finalize.
func (r *IngestionRun) Elapsed() time.Duration {
	if r.finishedAt.IsZero() {
		return time.Since(r.startedAt)
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Failed reports whether any document failed to be indexed after retries.
// Callers use this to drive a non-zero process exit.
func (r *IngestionRun) Failed() bool {
	return r.failedDocs.Load() > 0 || r.rejected.Load() > 0 || r.skipped.Load() > 0
}

// Summary renders a human-readable accounting of the run by outcome.
func (r *IngestionRun) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ingestion run finished in %v\n", r.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(&b, "  input records:      %d\n", r.Input())
	fmt.Fprintf(&b, "  normalized:         %d\n", r.Normalized())
	fmt.Fprintf(&b, "  filtered out:       %d\n", r.Filtered())
	fmt.Fprintf(&b, "  malformed:          %d\n", r.Malformed())
	fmt.Fprintf(&b, "  invalid dates:      %d\n", r.InvalidDates())
	fmt.Fprintf(&b, "  embedded:           %d\n", r.Embedded())
	fmt.Fprintf(&b, "  indexed:            %d\n", r.Indexed())
	fmt.Fprintf(&b, "  updated:            %d\n", r.Updated())
	fmt.Fprintf(&b, "  rejected by store:  %d\n", r.Rejected())
	fmt.Fprintf(&b, "  skipped (invalid):  %d\n", r.Skipped())
	fmt.Fprintf(&b, "  failed batches:     %d (%d documents)\n", r.FailedBatches(), r.FailedDocuments())
	return b.String()
}
