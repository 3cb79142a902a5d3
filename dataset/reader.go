package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
)

// maxLineBytes bounds a single metadata row. Some arXiv abstracts run long
// but never near this.
const maxLineBytes = 4 * 1024 * 1024

// RawReader streams raw records from an arXiv metadata file. Both shapes of
// the dump are supported: a single JSON array (the filtered export) and JSON
// Lines (the full snapshot). The input is consumed exactly once.
type RawReader struct {
	decoder *json.Decoder
	scanner *bufio.Scanner
	isArray bool
	inArray bool
}

// NewRawReader wraps r, sniffing the format from the first byte.
func NewRawReader(r io.Reader) (*RawReader, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	first, err := peekNonSpace(br)
	if err != nil {
		if err == io.EOF {
			return &RawReader{scanner: bufio.NewScanner(br)}, nil
		}
		return nil, err
	}

	if first == '[' {
		return &RawReader{decoder: json.NewDecoder(br), isArray: true}, nil
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &RawReader{scanner: scanner}, nil
}

// OpenRawFile opens path and returns a reader over it. The caller closes the
// returned closer when done.
func OpenRawFile(path string) (*RawReader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	reader, err := NewRawReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return reader, f, nil
}

// Next returns the next raw record, or io.EOF when the input is exhausted.
// A line that fails to parse is returned as an error wrapping
// core.ErrMalformedRecord; the reader has advanced past it, so callers may
// drop the row and keep reading. Any other error is terminal: the underlying
// decoder cannot make progress, and further Next calls will keep failing.
func (r *RawReader) Next() (*RawRecord, error) {
	if r.isArray {
		return r.nextArray()
	}
	return r.nextLine()
}

func (r *RawReader) nextArray() (*RawRecord, error) {
	if !r.inArray {
		// Consume the opening bracket.
		if _, err := r.decoder.Token(); err != nil {
			return nil, err
		}
		r.inArray = true
	}
	if !r.decoder.More() {
		// Consume the closing bracket.
		if _, err := r.decoder.Token(); err != nil && err != io.EOF {
			return nil, err
		}
		return nil, io.EOF
	}
	var rec RawRecord
	if err := r.decoder.Decode(&rec); err != nil {
		// A syntax error leaves the decoder stuck mid-array; there is no
		// way to resynchronize, so the failure is terminal.
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

func (r *RawReader) nextLine() (*RawRecord, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode record: %v", core.ErrMalformedRecord, err)
		}
		return &rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.ReadByte(); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}
