package dataset

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
)

func rawRecord(id, date string, categories ...string) *RawRecord {
	return &RawRecord{
		ID:         id,
		Title:      "A Title",
		Abstract:   "An abstract.",
		Authors:    "A. Author",
		Categories: categoryList(categories),
		UpdateDate: date,
	}
}

func TestNormalizerNormalize(t *testing.T) {
	tests := []struct {
		name    string
		rec     *RawRecord
		wantErr error
	}{
		{
			name: "valid record",
			rec:  rawRecord("2301.00001", "2023-01-15", "cs.AI"),
		},
		{
			name:    "nil record",
			rec:     nil,
			wantErr: core.ErrMalformedRecord,
		},
		{
			name:    "missing id",
			rec:     rawRecord("", "2023-01-15", "cs.AI"),
			wantErr: core.ErrMalformedRecord,
		},
		{
			name:    "whitespace id",
			rec:     rawRecord("   ", "2023-01-15", "cs.AI"),
			wantErr: core.ErrMalformedRecord,
		},
		{
			name:    "unparsable date",
			rec:     rawRecord("2301.00002", "January 15, 2023", "cs.AI"),
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "empty date",
			rec:     rawRecord("2301.00003", "", "cs.AI"),
			wantErr: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer([]string{"cs."}, 0, core.NewIngestionRun(), nil)

			doc, err := n.Normalize(tt.rec)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, doc)
			assert.Equal(t, tt.rec.ID, doc.ID)
			assert.Equal(t, 2023, doc.UpdateDate.Year())
		})
	}
}

func TestNormalizerRejectsDuplicateID(t *testing.T) {
	n := NewNormalizer([]string{"cs."}, 0, core.NewIngestionRun(), nil)

	_, err := n.Normalize(rawRecord("2301.00001", "2023-01-15", "cs.AI"))
	require.NoError(t, err)

	_, err = n.Normalize(rawRecord("2301.00001", "2023-02-20", "cs.LG"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedRecord)
}

func TestNormalizerFlattensWhitespace(t *testing.T) {
	n := NewNormalizer(nil, 0, core.NewIngestionRun(), nil)

	doc, err := n.Normalize(&RawRecord{
		ID:         "2301.00001",
		Title:      "  A Title\n  Split Across Lines  ",
		Abstract:   "First sentence.\n\n  Second   sentence.",
		Authors:    "A. Author,\nB. Author",
		Categories: categoryList{"cs.AI"},
		UpdateDate: "2023-01-15",
	})
	require.NoError(t, err)

	assert.Equal(t, "A Title Split Across Lines", doc.Title)
	assert.Equal(t, "First sentence. Second sentence.", doc.Abstract)
	assert.Equal(t, "A. Author, B. Author", doc.Authors)
}

func TestNormalizerCategoryHandling(t *testing.T) {
	tests := []struct {
		name     string
		prefixes []string
		cats     []string
		want     []string
	}{
		{
			name:     "keeps matching categories only",
			prefixes: []string{"cs."},
			cats:     []string{"cs.AI", "math.ST", "cs.LG"},
			want:     []string{"cs.AI", "cs.LG"},
		},
		{
			name:     "deduplicates in first-seen order",
			prefixes: []string{"cs."},
			cats:     []string{"cs.LG", "cs.AI", "cs.LG"},
			want:     []string{"cs.LG", "cs.AI"},
		},
		{
			name:     "no filter keeps everything",
			prefixes: nil,
			cats:     []string{"math.ST", "cs.AI"},
			want:     []string{"math.ST", "cs.AI"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.prefixes, 0, core.NewIngestionRun(), nil)
			doc, err := n.Normalize(rawRecord("2301.00001", "2023-01-15", tt.cats...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Categories)
		})
	}
}

func TestForEachDropsMalformedRecords(t *testing.T) {
	run := core.NewIngestionRun()
	n := NewNormalizer([]string{"cs."}, 0, run, nil)

	src := NewSliceSource([]*RawRecord{
		rawRecord("2301.00001", "2023-01-15", "cs.AI"),
		rawRecord("", "2023-01-16", "cs.LG"),
		rawRecord("2301.00003", "2023-01-17", "cs.CL"),
	})

	var got []*core.Document
	err := n.ForEach(context.Background(), src, func(doc *core.Document) error {
		got = append(got, doc)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "2301.00001", got[0].ID)
	assert.Equal(t, "2301.00003", got[1].ID)

	assert.Equal(t, 3, run.Input())
	assert.Equal(t, 2, run.Normalized())
	assert.Equal(t, 1, run.Malformed())
	assert.Equal(t, 0, run.InvalidDates())
}

func TestForEachSkipsUnreadableLines(t *testing.T) {
	input := `{"id":"2301.00001","categories":"cs.AI","update_date":"2023-01-15"}
{not json}
{"id":"2301.00003","categories":"cs.CL","update_date":"2023-01-17"}
`
	src, err := NewRawReader(strings.NewReader(input))
	require.NoError(t, err)

	run := core.NewIngestionRun()
	n := NewNormalizer([]string{"cs."}, 0, run, nil)

	var got []*core.Document
	err = n.ForEach(context.Background(), src, func(doc *core.Document) error {
		got = append(got, doc)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, 3, run.Input())
	assert.Equal(t, 1, run.Malformed())
}

func TestForEachAbortsOnTerminalSourceError(t *testing.T) {
	// A corrupt element inside array-format input leaves the decoder stuck;
	// the loop must bail out instead of retrying the same read forever.
	input := `[
		{"id":"2301.00001","categories":["cs.AI"],"update_date":"2023-01-15"},
		{not json},
		{"id":"2301.00003","categories":["cs.CL"],"update_date":"2023-01-17"}
	]`
	src, err := NewRawReader(strings.NewReader(input))
	require.NoError(t, err)

	run := core.NewIngestionRun()
	n := NewNormalizer([]string{"cs."}, 0, run, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []*core.Document
	err = n.ForEach(ctx, src, func(doc *core.Document) error {
		got = append(got, doc)
		return nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)

	require.Len(t, got, 1)
	assert.Equal(t, 1, run.Input())
	assert.Zero(t, run.Malformed())
}

func TestForEachFiltersAndCounts(t *testing.T) {
	run := core.NewIngestionRun()
	n := NewNormalizer([]string{"cs."}, 0, run, nil)

	src := NewSliceSource([]*RawRecord{
		rawRecord("2301.00001", "2023-01-15", "cs.AI"),
		rawRecord("2301.00002", "2023-01-15", "math.ST"),
		rawRecord("2301.00003", "not-a-date", "cs.LG"),
		rawRecord("2301.00001", "2023-01-18", "cs.AI"), // duplicate
		rawRecord("2301.00005", "2023-01-19", "cs.DB", "stat.ML"),
	})

	var got []*core.Document
	err := n.ForEach(context.Background(), src, func(doc *core.Document) error {
		got = append(got, doc)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, 5, run.Input())
	assert.Equal(t, 2, run.Normalized())
	assert.Equal(t, 1, run.Filtered())
	assert.Equal(t, 1, run.Malformed())
	assert.Equal(t, 1, run.InvalidDates())
}

func TestForEachHonorsMaxDocs(t *testing.T) {
	run := core.NewIngestionRun()
	n := NewNormalizer([]string{"cs."}, 2, run, nil)

	src := NewSliceSource(SampleRecords(10))

	count := 0
	err := n.ForEach(context.Background(), src, func(*core.Document) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, run.Normalized())
}

func TestForEachStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNormalizer([]string{"cs."}, 0, core.NewIngestionRun(), nil)
	err := n.ForEach(ctx, NewSliceSource(SampleRecords(5)), func(*core.Document) error {
		t.Fatal("callback should not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
