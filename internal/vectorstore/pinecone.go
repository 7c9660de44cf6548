// Package vectorstore is a minimal REST client to Pinecone.
// It assumes cosine similarity and creates the index if missing.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrVectorStore marks failures of upsert/query calls to the vector store.
var ErrVectorStore = errors.New("vector store request failed")

// Record is one vector with its id and metadata, as stored in the index.
type Record struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is one query result, ordered by descending similarity score.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Client struct {
	apiKey     string
	controlURL string
	indexHost  string
	cloud      string
	region     string
	client     *http.Client
}

type Config struct {
	APIKey     string
	ControlURL string
	IndexHost  string
	Cloud      string
	Region     string
	Timeout    time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	controlURL := cfg.ControlURL
	if controlURL == "" {
		controlURL = "https://api.pinecone.io"
	}
	return &Client{
		apiKey:     cfg.APIKey,
		controlURL: controlURL,
		indexHost:  normalizeHost(cfg.IndexHost),
		cloud:      cfg.Cloud,
		region:     cfg.Region,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureIndex creates a serverless index with the given dimensionality and
// metric if it does not already exist. A 409 from the control plane means
// the index is there; that is not an error.
func (c *Client) EnsureIndex(ctx context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", ErrVectorStore, dimension)
	}

	body := map[string]any{
		"name":      name,
		"dimension": dimension,
		"metric":    metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  c.cloud,
				"region": c.region,
			},
		},
	}

	status, respBody, err := c.do(ctx, http.MethodPost, c.controlURL+"/indexes", body)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusConflict:
		// Index already exists; the host still has to be resolved below.
	case status >= 300:
		return fmt.Errorf("%w: create index %s: status %d: %s", ErrVectorStore, name, status, excerpt(respBody))
	default:
		// The data-plane host comes back in the create response when the
		// caller did not configure one.
		if c.indexHost == "" {
			var created struct {
				Host string `json:"host"`
			}
			if jsonErr := json.Unmarshal(respBody, &created); jsonErr == nil && created.Host != "" {
				c.indexHost = normalizeHost(created.Host)
			}
		}
	}

	if c.indexHost == "" {
		return c.resolveHost(ctx, name)
	}

	return nil
}

// resolveHost describes an existing index by name and captures its
// data-plane host. Needed on every boot after the first: creation only
// returns 409 then, and upserts and queries cannot run without a host.
func (c *Client) resolveHost(ctx context.Context, name string) error {
	status, respBody, err := c.do(ctx, http.MethodGet, c.controlURL+"/indexes/"+name, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: describe index %s: status %d: %s", ErrVectorStore, name, status, excerpt(respBody))
	}

	var desc struct {
		Host string `json:"host"`
	}
	if err := json.Unmarshal(respBody, &desc); err != nil {
		return fmt.Errorf("%w: decode describe response: %v", ErrVectorStore, err)
	}
	if desc.Host == "" {
		return fmt.Errorf("%w: index %s has no host yet", ErrVectorStore, name)
	}

	c.indexHost = normalizeHost(desc.Host)
	return nil
}

// Upsert writes all records to the index in one call. Records with ids
// already present are overwritten.
func (c *Client) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if c.indexHost == "" {
		return fmt.Errorf("%w: index host not configured", ErrVectorStore)
	}

	body := map[string]any{"vectors": records}
	status, respBody, err := c.do(ctx, http.MethodPost, c.indexHost+"/vectors/upsert", body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: upsert %d records: status %d: %s", ErrVectorStore, len(records), status, excerpt(respBody))
	}

	return nil
}

// Query returns the topK nearest records by the index metric. Metadata is
// requested, raw vector values are not. A nil filter queries the whole index.
func (c *Client) Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	if topK <= 0 {
		topK = 3
	}
	if c.indexHost == "" {
		return nil, fmt.Errorf("%w: index host not configured", ErrVectorStore)
	}

	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeValues":   false,
		"includeMetadata": true,
	}
	if filter != nil {
		body["filter"] = filter
	}

	status, respBody, err := c.do(ctx, http.MethodPost, c.indexHost+"/query", body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: query: status %d: %s", ErrVectorStore, status, excerpt(respBody))
	}

	var resp struct {
		Matches []Match `json:"matches"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode query response: %v", ErrVectorStore, err)
	}

	return resp.Matches, nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: marshal request: %v", ErrVectorStore, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrVectorStore, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrVectorStore, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response: %v", ErrVectorStore, err)
	}

	return resp.StatusCode, respBody, nil
}

func normalizeHost(host string) string {
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return strings.TrimSuffix(host, "/")
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
