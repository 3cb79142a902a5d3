package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
)

// Staging file names used to hand documents between the prepare, embed and
// ingest commands. The files are transient; the external store is the only
// authoritative copy once ingestion completes.
const (
	NormalizedFile = "normalized.jsonl"
	EmbeddedFile   = "embedded.jsonl"
)

// StagingPath returns the path of a staging file under dataDir.
func StagingPath(dataDir, name string) string {
	return filepath.Join(dataDir, name)
}

// DocumentWriter appends documents to a JSON Lines staging file.
type DocumentWriter struct {
	f *os.File
	w *bufio.Writer
	n int
}

// CreateDocumentWriter creates (or truncates) the staging file at path,
// creating parent directories as needed.
func CreateDocumentWriter(path string) (*DocumentWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &DocumentWriter{f: f, w: bufio.NewWriterSize(f, 256*1024)}, nil
}

// Write appends one document as a single JSON line.
func (dw *DocumentWriter) Write(doc *core.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	if _, err := dw.w.Write(data); err != nil {
		return err
	}
	if err := dw.w.WriteByte('\n'); err != nil {
		return err
	}
	dw.n++
	return nil
}

// Count returns the number of documents written so far.
func (dw *DocumentWriter) Count() int { return dw.n }

// Close flushes and closes the staging file.
func (dw *DocumentWriter) Close() error {
	if err := dw.w.Flush(); err != nil {
		dw.f.Close()
		return err
	}
	return dw.f.Close()
}

// DocumentReader streams documents back out of a JSON Lines staging file.
type DocumentReader struct {
	f       *os.File
	scanner *bufio.Scanner
}

// OpenDocumentReader opens the staging file at path.
func OpenDocumentReader(path string) (*DocumentReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &DocumentReader{f: f, scanner: scanner}, nil
}

// Next returns the next document, or io.EOF when the file is exhausted.
func (dr *DocumentReader) Next() (*core.Document, error) {
	for dr.scanner.Scan() {
		line := dr.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc core.Document
		if err := json.Unmarshal(line, &doc); err != nil {
			return nil, fmt.Errorf("decode staged document: %w", err)
		}
		return &doc, nil
	}
	if err := dr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ForEach calls fn for every document in the file, stopping on first error.
func (dr *DocumentReader) ForEach(fn func(*core.Document) error) error {
	for {
		doc, err := dr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

// Close closes the underlying file.
func (dr *DocumentReader) Close() error { return dr.f.Close() }
