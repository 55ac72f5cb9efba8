package qdrant

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

// Client talks to a Qdrant instance over its REST API.
type Client struct {
	baseURL   string
	dimension int
	client    *http.Client
	log       zerolog.Logger
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type upsertBatch struct {
	IDs      []string            `json:"ids"`
	Payloads []map[string]string `json:"payloads"`
	Vectors  [][]float32         `json:"vectors"`
}

type upsertRequest struct {
	Batch upsertBatch `json:"batch"`
}

type searchRequest struct {
	Vector      []float32     `json:"vector"`
	Limit       int           `json:"limit"`
	WithPayload bool          `json:"with_payload"`
	Filter      *searchFilter `json:"filter,omitempty"`
}

type searchFilter struct {
	Must []fieldCondition `json:"must"`
}

type fieldCondition struct {
	Key   string     `json:"key"`
	Match matchValue `json:"match"`
}

type matchValue struct {
	Value string `json:"value"`
}

type searchResponse struct {
	Result []searchHit `json:"result"`
	Status any         `json:"status"`
}

type searchHit struct {
	ID      json.RawMessage   `json:"id"`
	Score   float64           `json:"score"`
	Payload map[string]string `json:"payload"`
}

func NewClient(host string, qport, dimension int, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   fmt.Sprintf("http://%s:%d", host, qport),
		dimension: dimension,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "qdrant").Logger(),
	}
}

// EnsureCollection creates the collection with the configured dimension and
// cosine metric if it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	status, _, err := c.request(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return &domain.StorageError{Op: "ensure_collection", Err: err}
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return &domain.StorageError{Op: "ensure_collection", Err: fmt.Errorf("unexpected status %d", status)}
	}

	c.log.Info().Str("collection", name).Int("dimension", c.dimension).Msg("creating collection")

	body := createCollectionRequest{
		Vectors: vectorParams{Size: c.dimension, Distance: "Cosine"},
	}
	status, raw, err := c.request(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return &domain.StorageError{Op: "ensure_collection", Err: err}
	}
	if status != http.StatusOK {
		return &domain.StorageError{Op: "ensure_collection", Err: fmt.Errorf("create failed with status %d: %s", status, raw)}
	}
	return nil
}

// Upsert writes points into the collection, ensuring it exists first.
// Point ids are derived deterministically from the payload article id, so
// retrying a failed batch overwrites rather than duplicates.
func (c *Client) Upsert(ctx context.Context, name string, points []port.Point) error {
	if len(points) == 0 {
		return nil
	}

	if err := c.EnsureCollection(ctx, name); err != nil {
		return err
	}

	batch := upsertBatch{
		IDs:      make([]string, len(points)),
		Payloads: make([]map[string]string, len(points)),
		Vectors:  make([][]float32, len(points)),
	}
	for i, p := range points {
		if len(p.Vector) != c.dimension {
			return &domain.StorageError{
				Op:  "upsert",
				Err: fmt.Errorf("vector dimension mismatch: expected %d, got %d", c.dimension, len(p.Vector)),
			}
		}
		batch.IDs[i] = PointID(p.ID)
		batch.Payloads[i] = p.Payload
		batch.Vectors[i] = p.Vector
	}

	status, raw, err := c.request(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true", upsertRequest{Batch: batch})
	if err != nil {
		return &domain.StorageError{Op: "upsert", Err: err}
	}
	if status != http.StatusOK {
		return &domain.StorageError{Op: "upsert", Err: fmt.Errorf("status %d: %s", status, raw)}
	}
	return nil
}

// Search returns up to limit hits ordered by descending similarity. Zero
// matches yields an empty slice; a missing collection is a StorageError.
func (c *Client) Search(ctx context.Context, name string, vector []float32, limit int, filter *port.Filter) ([]port.Hit, error) {
	body := searchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	}
	if filter != nil {
		body.Filter = &searchFilter{
			Must: []fieldCondition{{Key: filter.Key, Match: matchValue{Value: filter.Value}}},
		}
	}

	status, raw, err := c.request(ctx, http.MethodPost, "/collections/"+name+"/points/search", body)
	if err != nil {
		return nil, &domain.StorageError{Op: "search", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &domain.StorageError{Op: "search", Err: fmt.Errorf("collection %q does not exist", name)}
	}
	if status != http.StatusOK {
		return nil, &domain.StorageError{Op: "search", Err: fmt.Errorf("status %d: %s", status, raw)}
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.StorageError{Op: "search", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	hits := make([]port.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, port.Hit{
			ID:      string(bytes.Trim(r.ID, `"`)),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return hits, nil
}

func (c *Client) request(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// PointID derives a stable UUID-shaped point id from an article id. Qdrant
// accepts only integers or UUIDs as point ids; the article id itself travels
// in the payload.
func PointID(articleID string) string {
	sum := md5.Sum([]byte(articleID))
	h := hex.EncodeToString(sum[:])
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}
