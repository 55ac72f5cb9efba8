package port

import "context"

// Point is one vector record to be stored in a collection. Payload must
// carry the originating article id; the store's internal point id is not
// assumed to equal it.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// Hit is one nearest-neighbor search result, best first.
type Hit struct {
	ID      string
	Score   float64
	Payload map[string]string
}

// Filter restricts search results to points whose payload field matches.
type Filter struct {
	Key   string
	Value string
}

// VectorIndex manages named collections of vector records.
type VectorIndex interface {
	// EnsureCollection creates the collection with the configured dimension
	// and cosine metric if absent. Idempotent.
	EnsureCollection(ctx context.Context, name string) error

	// Upsert writes points into the collection, overwriting existing ids.
	// The collection is ensured first. Failures are reported per batch.
	Upsert(ctx context.Context, name string, points []Point) error

	// Search returns up to limit hits ordered by descending similarity.
	// Zero matches is not an error; a missing collection is.
	Search(ctx context.Context, name string, vector []float32, limit int, filter *Filter) ([]Hit, error)
}
