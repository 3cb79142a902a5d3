package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Recognized environment variables. Every knob the harness reads from the
// environment is enumerated here; anything else is ignored.
const (
	EnvHosts            = "ELASTICSEARCH_HOSTS"
	EnvUsername         = "ELASTICSEARCH_USERNAME"
	EnvPassword         = "ELASTICSEARCH_PASSWORD"
	EnvIndexName        = "INDEX_NAME"
	EnvDataDir          = "DATA_DIR"
	EnvEmbeddingHost    = "EMBEDDING_HOST"
	EnvEmbeddingModel   = "EMBEDDING_MODEL"
	EnvEmbeddingDim     = "EMBEDDING_DIMENSION"
	EnvBatchSize        = "BATCH_SIZE"
	EnvEmbedBatchSize   = "EMBED_BATCH_SIZE"
	EnvMaxDocuments     = "MAX_DOCUMENTS"
	EnvConcurrency      = "CONCURRENCY"
	EnvMaxRetries       = "MAX_RETRIES"
	EnvRetryDelay       = "RETRY_DELAY"
	EnvRequestTimeout   = "REQUEST_TIMEOUT"
	EnvSnapshotRepo     = "SNAPSHOT_REPO_NAME"
	EnvSnapshotRepoPath = "SNAPSHOT_REPO_PATH"
	EnvCategoryPrefixes = "CATEGORY_PREFIXES"
)

// Config holds every runtime setting for the harness. It is built once at
// startup from defaults plus the environment, then validated before any
// component is constructed.
type Config struct {
	// Hosts is the list of store endpoints.
	Hosts []string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string

	// IndexName is the target collection in the external store.
	IndexName string

	// DataDir holds the raw dataset and the staging files handed between
	// pipeline stages.
	DataDir string

	// EmbeddingHost is the OpenAI-compatible embedding endpoint.
	EmbeddingHost string

	// EmbeddingModel identifies the sentence-embedding model. Ingestion and
	// querying must use the same value.
	EmbeddingModel string

	// EmbeddingDimension is the fixed vector length the model produces.
	EmbeddingDimension int

	// BulkBatchSize is the maximum number of documents per bulk request.
	BulkBatchSize int

	// EmbedBatchSize is the number of texts encoded per model invocation.
	EmbedBatchSize int

	// MaxDocuments caps how many records the normalizer emits.
	MaxDocuments int

	// Concurrency bounds the number of bulk batches in flight.
	Concurrency int

	// MaxRetries and RetryDelay control the exponential backoff applied to
	// failed bulk submissions.
	MaxRetries int
	RetryDelay time.Duration

	// RequestTimeout applies to every HTTP call against the store.
	RequestTimeout time.Duration

	// SnapshotRepo and SnapshotRepoPath name the snapshot repository and its
	// filesystem location on the cluster.
	SnapshotRepo     string
	SnapshotRepoPath string

	// CategoryPrefixes is the subject filter; records whose categories do
	// not intersect it are dropped at normalization time.
	CategoryPrefixes []string
}

// Default returns a Config with the same defaults the original deployment
// used.
func Default() *Config {
	return &Config{
		Hosts:              []string{"http://localhost:9200"},
		IndexName:          "arxiv-papers",
		DataDir:            "./data",
		EmbeddingHost:      "http://localhost:11434/v1",
		EmbeddingModel:     "all-minilm",
		EmbeddingDimension: 384,
		BulkBatchSize:      500,
		EmbedBatchSize:     32,
		MaxDocuments:       50000,
		Concurrency:        2,
		MaxRetries:         3,
		RetryDelay:         1 * time.Second,
		RequestTimeout:     60 * time.Second,
		SnapshotRepo:       "arxiv_backup",
		SnapshotRepoPath:   "/usr/share/elasticsearch/snapshots",
		CategoryPrefixes:   []string{"cs."},
	}
}

// FromEnv builds a Config from defaults overlaid with the recognized
// environment variables. Invalid numeric values fail immediately rather than
// being silently replaced.
func FromEnv() (*Config, error) {
	cfg := Default()

	if v := os.Getenv(EnvHosts); v != "" {
		cfg.Hosts = splitNonEmpty(v)
	}
	cfg.Username = os.Getenv(EnvUsername)
	cfg.Password = os.Getenv(EnvPassword)
	if v := os.Getenv(EnvIndexName); v != "" {
		cfg.IndexName = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		cfg.EmbeddingHost = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv(EnvCategoryPrefixes); v != "" {
		cfg.CategoryPrefixes = splitNonEmpty(v)
	}
	if v := os.Getenv(EnvSnapshotRepo); v != "" {
		cfg.SnapshotRepo = v
	}
	if v := os.Getenv(EnvSnapshotRepoPath); v != "" {
		cfg.SnapshotRepoPath = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvEmbeddingDim, &cfg.EmbeddingDimension},
		{EnvBatchSize, &cfg.BulkBatchSize},
		{EnvEmbedBatchSize, &cfg.EmbedBatchSize},
		{EnvMaxDocuments, &cfg.MaxDocuments},
		{EnvConcurrency, &cfg.Concurrency},
		{EnvMaxRetries, &cfg.MaxRetries},
	}
	for _, entry := range ints {
		v := os.Getenv(entry.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", entry.key, err)
		}
		*entry.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvRetryDelay, &cfg.RetryDelay},
		{EnvRequestTimeout, &cfg.RequestTimeout},
	}
	for _, entry := range durations {
		v := os.Getenv(entry.key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", entry.key, err)
		}
		*entry.dst = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete and internally
// consistent. It is called once at startup; components may assume a valid
// Config afterwards.
func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return errors.New("config: at least one store host is required")
	}
	for _, h := range c.Hosts {
		if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
			return fmt.Errorf("config: host %q must include a scheme", h)
		}
	}
	if c.IndexName == "" {
		return errors.New("config: index name is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("config: embedding model is required")
	}
	if c.EmbeddingDimension <= 0 {
		return errors.New("config: embedding dimension must be greater than 0")
	}
	if c.BulkBatchSize <= 0 {
		return errors.New("config: batch size must be greater than 0")
	}
	if c.EmbedBatchSize <= 0 {
		return errors.New("config: embed batch size must be greater than 0")
	}
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be greater than 0")
	}
	if c.MaxRetries <= 0 {
		return errors.New("config: max retries must be greater than 0")
	}
	if c.RetryDelay <= 0 {
		return errors.New("config: retry delay must be greater than 0")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request timeout must be greater than 0")
	}
	if (c.Username == "") != (c.Password == "") {
		return errors.New("config: username and password must be set together")
	}
	return nil
}

func splitNonEmpty(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
