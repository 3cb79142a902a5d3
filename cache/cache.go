package cache

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/go-crypt/x/blake2b"
)

// EmbeddingCache stores computed embedding vectors keyed by model and input
// text. Embeddings are deterministic for a fixed model, so a cached vector
// is always safe to reuse. The cache is derived data: losing it only costs
// recomputation.
type EmbeddingCache struct {
	db     *badger.DB
	model  string
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens (or creates) an embedding cache at dirPath. With inMemory set
// the cache lives only for the process lifetime, which is what tests use.
func Open(dirPath, model string, inMemory bool) (*EmbeddingCache, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(dirPath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &EmbeddingCache{
		db:     db,
		model:  model,
		logger: slog.Default().With("component", "embedding-cache"),
	}, nil
}

// Close closes the underlying database.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

// Get returns the cached vector for text, or nil when absent.
func (c *EmbeddingCache) Get(text string) ([]float32, error) {
	key := c.key(text)
	var vector []float32

	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vector = decodeVector(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// Put stores the vector for text.
func (c *EmbeddingCache) Put(text string, vector []float32) error {
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(c.key(text), encodeVector(vector))
	})
}

// GetBatch looks up every text and returns the cached vectors (nil entries
// for misses) together with the count of hits.
func (c *EmbeddingCache) GetBatch(texts []string) ([][]float32, int, error) {
	vectors := make([][]float32, len(texts))
	hits := 0
	for i, text := range texts {
		vec, err := c.Get(text)
		if err != nil {
			return nil, 0, err
		}
		if vec != nil {
			hits++
		}
		vectors[i] = vec
	}
	return vectors, hits, nil
}

// key derives the storage key from the model name and input text. Model and
// text are separated by a NUL so distinct pairs never collide.
func (c *EmbeddingCache) key(text string) []byte {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}
