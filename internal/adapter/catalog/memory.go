package catalog

import (
	"math/rand"
	"sync"

	"newsrec/internal/domain"
)

// MemoryIndex holds a loaded catalog in memory, queryable by id and
// preserving load order. Reads are safe for concurrent use.
type MemoryIndex struct {
	mu       sync.RWMutex
	articles []domain.Article
	byID     map[string]int
}

func NewMemoryIndex(articles []domain.Article) *MemoryIndex {
	idx := &MemoryIndex{
		articles: articles,
		byID:     make(map[string]int, len(articles)),
	}
	for i, a := range articles {
		idx.byID[a.NewsID] = i
	}
	return idx
}

func (m *MemoryIndex) Get(id string) (domain.Article, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return domain.Article{}, false
	}
	return m.articles[i], true
}

// Filter returns the articles whose ids are in the given set, in catalog
// load order regardless of the order of ids.
func (m *MemoryIndex) Filter(ids []string) []domain.Article {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []domain.Article
	for _, a := range m.articles {
		if want[a.NewsID] {
			out = append(out, a)
		}
	}
	return out
}

// Sample returns up to n distinct articles chosen uniformly at random.
func (m *MemoryIndex) Sample(n int) []domain.Article {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n >= len(m.articles) {
		out := make([]domain.Article, len(m.articles))
		copy(out, m.articles)
		return out
	}

	perm := rand.Perm(len(m.articles))
	out := make([]domain.Article, 0, n)
	for _, i := range perm[:n] {
		out = append(out, m.articles[i])
	}
	return out
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.articles)
}

// All returns the articles in load order. The slice is shared; callers must
// not mutate it.
func (m *MemoryIndex) All() []domain.Article {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.articles
}
