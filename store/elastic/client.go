package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Darshil999/arxiv-elasticsearch-project/core"
	"github.com/Darshil999/arxiv-elasticsearch-project/store"
)

// vectorField is the mapped dense-vector field documents carry.
const vectorField = "abstract_vector"

// Client is a minimal REST client to an Elasticsearch-compatible cluster.
// Cluster mechanics (sharding, replication, HNSW graphs) stay on the other
// side of the wire; the client only declares what it wants in the mapping.
type Client struct {
	hosts     []string
	index     string
	username  string
	password  string
	dimension int
	http      *http.Client
	logger    *slog.Logger
}

// Config carries the connection settings for NewClient.
type Config struct {
	Hosts     []string
	Index     string
	Username  string
	Password  string
	Dimension int
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewClient builds a client. Hosts are tried in order; the first reachable
// one serves each request.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("no store hosts configured")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("no index name configured")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hosts := make([]string, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		hosts[i] = strings.TrimRight(h, "/")
	}
	return &Client{
		hosts:     hosts,
		index:     cfg.Index,
		username:  cfg.Username,
		password:  cfg.Password,
		dimension: cfg.Dimension,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With("component", "elastic"),
	}, nil
}

// Ping verifies at least one configured host answers.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/", nil)
	return err
}

// Health reports cluster health.
func (c *Client) Health(ctx context.Context) (store.ClusterHealth, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/_cluster/health", nil)
	if err != nil {
		return store.ClusterHealth{}, err
	}
	var resp struct {
		Status        string `json:"status"`
		NumberOfNodes int    `json:"number_of_nodes"`
		ActiveShards  int    `json:"active_shards"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return store.ClusterHealth{}, fmt.Errorf("decode health response: %w", err)
	}
	return store.ClusterHealth{
		Status:        resp.Status,
		NumberOfNodes: resp.NumberOfNodes,
		ActiveShards:  resp.ActiveShards,
	}, nil
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (c *Client) EnsureIndex(ctx context.Context) error {
	_, status, err := c.do(ctx, http.MethodHead, "/"+c.index, nil)
	if err == nil && status == http.StatusOK {
		return nil
	}
	if err != nil && status != http.StatusNotFound {
		return err
	}

	mapping := map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"title":       map[string]any{"type": "text"},
				"abstract":    map[string]any{"type": "text"},
				"authors":     map[string]any{"type": "text"},
				"categories":  map[string]any{"type": "keyword"},
				"update_date": map[string]any{"type": "date"},
				vectorField: map[string]any{
					"type":       "dense_vector",
					"dims":       c.dimension,
					"index":      true,
					"similarity": "cosine",
					"index_options": map[string]any{
						"type":            "hnsw",
						"m":               16,
						"ef_construction": 100,
					},
				},
			},
		},
	}

	c.logger.Info("creating index", "index", c.index, "dims", c.dimension)
	_, _, err = c.doJSON(ctx, http.MethodPut, "/"+c.index, mapping)
	return err
}

// BulkWrite submits one batch through the bulk API as upserts keyed by
// document ID. Transport-level failures return an error; per-document
// rejections come back in the results.
func (c *Client) BulkWrite(ctx context.Context, batch core.Batch) ([]store.BulkResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range batch {
		action := map[string]any{
			"index": map[string]any{"_index": c.index, "_id": doc.ID},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode bulk document %s: %w", doc.ID, err)
		}
	}

	body, _, err := c.doRaw(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", buf.Bytes())
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []map[string]struct {
			ID     string `json:"_id"`
			Result string `json:"result"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode bulk response: %v", core.ErrStoreTransport, err)
	}

	results := make([]store.BulkResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		for _, op := range item {
			res := store.BulkResult{ID: op.ID, Created: op.Result == "created"}
			if op.Error != nil {
				res.Err = fmt.Errorf("%w: %s: %s", core.ErrStoreRejection, op.Error.Type, op.Error.Reason)
			}
			results = append(results, res)
		}
	}
	return results, nil
}

// Search executes q against the index.
func (c *Client) Search(ctx context.Context, q store.Query) ([]store.Hit, error) {
	body := map[string]any{}
	if q.Size > 0 {
		body["size"] = q.Size
	}
	if q.Lexical != nil {
		body["query"] = map[string]any{
			"multi_match": map[string]any{
				"query":  q.Lexical.Text,
				"fields": []string{"title^2", "abstract"},
			},
		}
	}
	if q.KNN != nil {
		field := q.KNN.Field
		if field == "" {
			field = vectorField
		}
		candidates := q.KNN.NumCandidates
		if candidates <= 0 {
			candidates = 100
		}
		body["knn"] = map[string]any{
			"field":          field,
			"query_vector":   q.KNN.Vector,
			"k":              q.KNN.K,
			"num_candidates": candidates,
		}
	}

	respBody, _, err := c.doJSON(ctx, http.MethodPost, "/"+c.index+"/_search", body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]store.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		var doc core.Document
		if err := json.Unmarshal(h.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", h.ID, err)
		}
		if doc.ID == "" {
			doc.ID = h.ID
		}
		hits = append(hits, store.Hit{Document: &doc, Score: h.Score})
	}
	return hits, nil
}

// Refresh makes recent writes visible to search.
func (c *Client) Refresh(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodPost, "/"+c.index+"/_refresh", nil)
	return err
}

// RegisterRepository registers a shared-filesystem snapshot repository.
func (c *Client) RegisterRepository(ctx context.Context, repo, location string) error {
	body := map[string]any{
		"type": "fs",
		"settings": map[string]any{
			"location": location,
			"compress": true,
		},
	}
	_, _, err := c.doJSON(ctx, http.MethodPut, "/_snapshot/"+repo, body)
	return err
}

// CreateSnapshot snapshots the given indices. With wait set the call blocks
// until the cluster reports completion.
func (c *Client) CreateSnapshot(ctx context.Context, repo, name string, indices []string, wait bool) error {
	path := fmt.Sprintf("/_snapshot/%s/%s?wait_for_completion=%t", repo, name, wait)
	body := map[string]any{
		"indices":              strings.Join(indices, ","),
		"ignore_unavailable":   true,
		"include_global_state": false,
	}
	_, _, err := c.doJSON(ctx, http.MethodPut, path, body)
	return err
}

// ListSnapshots lists all snapshots in repo.
func (c *Client) ListSnapshots(ctx context.Context, repo string) ([]store.SnapshotInfo, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/_snapshot/"+repo+"/_all", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Snapshots []struct {
			Snapshot  string    `json:"snapshot"`
			State     string    `json:"state"`
			StartTime time.Time `json:"start_time"`
			Indices   []string  `json:"indices"`
		} `json:"snapshots"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode snapshot list: %w", err)
	}
	infos := make([]store.SnapshotInfo, 0, len(resp.Snapshots))
	for _, s := range resp.Snapshots {
		infos = append(infos, store.SnapshotInfo{
			Name:      s.Snapshot,
			State:     s.State,
			StartTime: s.StartTime,
			Indices:   s.Indices,
		})
	}
	return infos, nil
}

// DeleteSnapshot removes a snapshot from repo.
func (c *Client) DeleteSnapshot(ctx context.Context, repo, name string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/_snapshot/"+repo+"/"+name, nil)
	return err
}

// RestoreSnapshot restores a snapshot, appending renameSuffix to every
// restored index name so live indices are never overwritten.
func (c *Client) RestoreSnapshot(ctx context.Context, repo, name, renameSuffix string) error {
	body := map[string]any{
		"indices":              c.index,
		"ignore_unavailable":   true,
		"include_global_state": false,
	}
	if renameSuffix != "" {
		body["rename_pattern"] = "(.+)"
		body["rename_replacement"] = "$1" + renameSuffix
	}
	_, _, err := c.doJSON(ctx, http.MethodPost, "/_snapshot/"+repo+"/"+name+"/_restore", body)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request body: %w", err)
	}
	return c.doRaw(ctx, method, path, "application/json", data)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	return c.doRaw(ctx, method, path, "application/json", body)
}

// doRaw tries each configured host in order until one answers. A response
// with a non-2xx status (other than the 404 passed through for existence
// checks) is a transport-level failure subject to the retry policy.
func (c *Client) doRaw(ctx context.Context, method, path, contentType string, body []byte) ([]byte, int, error) {
	var lastErr error
	for _, host := range c.hosts {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, host+path, reader)
		if err != nil {
			return nil, 0, fmt.Errorf("build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", contentType)
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %s %s: %v", core.ErrStoreTransport, method, host+path, err)
			c.logger.Warn("host unreachable, trying next", "host", host, "err", err)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: read response: %v", core.ErrStoreTransport, readErr)
			continue
		}

		if resp.StatusCode == http.StatusNotFound && method == http.MethodHead {
			return respBody, resp.StatusCode, fmt.Errorf("not found: %s", path)
		}
		if resp.StatusCode >= 300 {
			return respBody, resp.StatusCode, fmt.Errorf("%w: %s %s: %s: %s",
				core.ErrStoreTransport, method, path, resp.Status, truncate(respBody, 512))
		}
		return respBody, resp.StatusCode, nil
	}
	return nil, 0, lastErr
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
