package port

import (
	"context"

	"newsrec/internal/domain"
)

// Catalog exposes the read-only article source.
type Catalog interface {
	Load(ctx context.Context) ([]domain.Article, error)
}

// BehaviorSource exposes per-user click histories.
type BehaviorSource interface {
	History(ctx context.Context, userID string) (domain.ClickHistory, error)
}

// ArticleIndex is a loaded catalog queryable by id and samplable for the
// degraded candidate mode.
type ArticleIndex interface {
	Get(id string) (domain.Article, bool)

	// Filter returns the articles whose ids are in the given set, preserving
	// catalog load order.
	Filter(ids []string) []domain.Article

	// Sample returns up to n articles chosen uniformly at random.
	Sample(n int) []domain.Article

	Len() int
}
