package core

import (
	"time"
)

// Document is the unit of storage and retrieval. It is created by the
// normalizer with an unset vector, enriched by the embedding stage, and
// submitted to the external store by the bulk loader. After submission the
// store owns all further mutation.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	Authors    string    `json:"authors"`
	Categories []string  `json:"categories"`
	UpdateDate time.Time `json:"update_date"`
	Vector     []float32 `json:"abstract_vector,omitempty"`
}

// EmbeddingText returns the text the embedding model encodes for this
// document: title and abstract joined by a single space. The separator is
// fixed so that identical documents always produce identical input text.
func (d *Document) EmbeddingText() string {
	if d.Abstract == "" {
		return d.Title
	}
	if d.Title == "" {
		return d.Abstract
	}
	return d.Title + " " + d.Abstract
}

// HasCategoryPrefix reports whether any of the document's categories starts
// with one of the given prefixes. An empty prefix list matches everything.
func (d *Document) HasCategoryPrefix(prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, cat := range d.Categories {
		for _, prefix := range prefixes {
			if len(cat) >= len(prefix) && cat[:len(prefix)] == prefix {
				return true
			}
		}
	}
	return false
}

// Batch is a bounded, ordered grouping of documents. It is the unit of
// transfer to the embedding model and to the external store's bulk API.
type Batch []*Document

// SplitBatches splits docs into consecutive batches of at most size
// documents. The final batch may be shorter. A size <= 0 yields a single
// batch containing all documents.
func SplitBatches(docs []*Document, size int) []Batch {
	if len(docs) == 0 {
		return nil
	}
	if size <= 0 {
		return []Batch{docs}
	}
	batches := make([]Batch, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, Batch(docs[start:end]))
	}
	return batches
}
