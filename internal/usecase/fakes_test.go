package usecase

import (
	"context"
	"fmt"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

// fakeChat returns a canned reply and records call counts.
type fakeChat struct {
	reply string
	err   error
	calls int
}

func (f *fakeChat) Complete(_ context.Context, _ []port.Message, _ port.CompletionOptions) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeChat) Stream(_ context.Context, _ []port.Message, _ port.CompletionOptions) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- f.reply
	close(ch)
	return ch, nil
}

func (f *fakeChat) ModelName() string { return "fake" }

// fakeEmbedder returns fixed-size vectors and records call counts.
type fakeEmbedder struct {
	dimension int
	err       error
	calls     int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dimension)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dimension }
func (f *fakeEmbedder) ModelName() string { return "fake" }

// fakeVectorIndex serves canned hits or a canned error.
type fakeVectorIndex struct {
	hits        []port.Hit
	searchErr   error
	upsertErr   error
	ensureErr   error
	searchCalls int
	upserted    []port.Point
}

func (f *fakeVectorIndex) EnsureCollection(_ context.Context, _ string) error { return f.ensureErr }

func (f *fakeVectorIndex) Upsert(_ context.Context, _ string, points []port.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeVectorIndex) Search(_ context.Context, _ string, _ []float32, limit int, _ *port.Filter) ([]port.Hit, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit < len(f.hits) {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

// fakeBehaviors maps user ids to histories.
type fakeBehaviors struct {
	histories map[string]domain.ClickHistory
	err       error
}

func (f *fakeBehaviors) History(_ context.Context, userID string) (domain.ClickHistory, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.histories[userID], nil
}

// profileFixture is a small ready-made profile for ranker tests.
func profileFixture() domain.UserProfile {
	return domain.UserProfile{
		Topics:  []string{"american football", "machine learning"},
		Regions: []string{"United States"},
		FavoriteCategories: []domain.CategoryCount{
			{Category: "sports", SubCategory: "nfl", Count: 3},
			{Category: "tech", SubCategory: "ai", Count: 1},
		},
		ClickHistory: []string{"N1", "N2"},
	}
}

// testArticles builds n articles N1..Nn cycling through a few categories.
func testArticles(n int) []domain.Article {
	cats := []struct{ cat, sub string }{
		{"sports", "nfl"},
		{"tech", "ai"},
		{"finance", "markets"},
	}
	out := make([]domain.Article, 0, n)
	for i := 1; i <= n; i++ {
		c := cats[(i-1)%len(cats)]
		out = append(out, domain.Article{
			NewsID:      fmt.Sprintf("N%d", i),
			Category:    c.cat,
			SubCategory: c.sub,
			Title:       fmt.Sprintf("Title %d", i),
			Abstract:    fmt.Sprintf("Abstract %d", i),
		})
	}
	return out
}
