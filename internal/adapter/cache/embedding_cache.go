package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"newsrec/internal/port"
)

var bucketEmbeddings = []byte("embeddings")

// EmbeddingCache persists computed embeddings in BoltDB keyed by model and
// text, so re-running ingestion does not re-call the embedding service.
type EmbeddingCache struct {
	db *bbolt.DB
}

func NewEmbeddingCache(path string) (*EmbeddingCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &EmbeddingCache{db: db}, nil
}

func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

func cacheKey(model, text string) []byte {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return []byte(hex.EncodeToString(sum[:16]))
}

// Get returns the cached vector for (model, text), if present.
func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	var vec []float32
	_ = c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(cacheKey(model, text))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &vec); err != nil {
			vec = nil // Skip corrupted entries
		}
		return nil
	})
	return vec, vec != nil
}

// Put stores vectors for the given texts in one transaction.
func (c *EmbeddingCache) Put(model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for i, text := range texts {
			data, err := json.Marshal(vectors[i])
			if err != nil {
				return err
			}
			if err := b.Put(cacheKey(model, text), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of cached vectors.
func (c *EmbeddingCache) Count() (int, error) {
	n := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// CachedEmbedder wraps an Embedder with the persistent cache. Misses are
// embedded in one batched call; results keep input order.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *EmbeddingCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vec, ok := e.cache.Get(e.embedder.ModelName(), text); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := e.embedder.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vectors[j]
	}

	if err := e.cache.Put(e.embedder.ModelName(), missTexts, vectors); err != nil {
		return nil, err
	}

	return out, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.embedder.ModelName()
}
