package usecase

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"newsrec/internal/adapter/catalog"
	"newsrec/internal/domain"
)

func TestProfileBuilder_FavoriteCategories(t *testing.T) {
	idx := catalog.NewMemoryIndex([]domain.Article{
		{NewsID: "A1", Category: "sports", SubCategory: "nfl", Title: "game one"},
		{NewsID: "A2", Category: "tech", SubCategory: "ai", Title: "models"},
		{NewsID: "A3", Category: "sports", SubCategory: "nfl", Title: "game two"},
	})
	chat := &fakeChat{reply: "[topics]\n- football\n\n[region]\n- US\n"}
	builder := NewProfileBuilder(idx, chat, 10, zerolog.Nop())

	profile, err := builder.Build(context.Background(), domain.ClickHistory{"A1", "A2", "A3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.CategoryCount{
		{Category: "sports", SubCategory: "nfl", Count: 2},
		{Category: "tech", SubCategory: "ai", Count: 1},
	}
	if !reflect.DeepEqual(profile.FavoriteCategories, want) {
		t.Errorf("favorite categories = %+v, want %+v", profile.FavoriteCategories, want)
	}
}

func TestProfileBuilder_FavoriteCategoriesCapAndTies(t *testing.T) {
	var articles []domain.Article
	history := domain.ClickHistory{}
	// Seven distinct categories, one click each; ties keep first-seen order.
	for i, cat := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		id := string(rune('A' + i))
		articles = append(articles, domain.Article{NewsID: id, Category: cat, SubCategory: "x", Title: id})
		history = append(history, id)
	}
	idx := catalog.NewMemoryIndex(articles)
	builder := NewProfileBuilder(idx, &fakeChat{reply: ""}, 10, zerolog.Nop())

	profile, err := builder.Build(context.Background(), history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(profile.FavoriteCategories) != 5 {
		t.Fatalf("expected 5 favorite categories, got %d", len(profile.FavoriteCategories))
	}
	for i, cat := range []string{"a", "b", "c", "d", "e"} {
		if profile.FavoriteCategories[i].Category != cat {
			t.Errorf("position %d = %s, want %s (first-seen tie order)", i, profile.FavoriteCategories[i].Category, cat)
		}
	}
}

func TestProfileBuilder_HistoryTruncation(t *testing.T) {
	articles := testArticles(15)
	idx := catalog.NewMemoryIndex(articles)
	builder := NewProfileBuilder(idx, &fakeChat{reply: ""}, 10, zerolog.Nop())

	var history domain.ClickHistory
	for _, a := range articles {
		history = append(history, a.NewsID)
	}

	profile, err := builder.Build(context.Background(), history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(profile.ClickHistory) != 10 {
		t.Fatalf("expected truncated history of 10, got %d", len(profile.ClickHistory))
	}
	for i, id := range profile.ClickHistory {
		if id != history[i] {
			t.Errorf("truncation is not prefix-preserving: position %d = %s, want %s", i, id, history[i])
		}
	}
}

func TestProfileBuilder_EmptyHistory(t *testing.T) {
	idx := catalog.NewMemoryIndex(testArticles(3))
	chat := &fakeChat{reply: "[topics]\n- anything\n"}
	builder := NewProfileBuilder(idx, chat, 10, zerolog.Nop())

	profile, err := builder.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chat.calls != 0 {
		t.Errorf("expected no chat call for empty history, got %d", chat.calls)
	}
	if len(profile.Topics) != 0 || len(profile.Regions) != 0 || len(profile.FavoriteCategories) != 0 {
		t.Errorf("expected empty profile, got %+v", profile)
	}
}

func TestProfileBuilder_DanglingIDsSkipped(t *testing.T) {
	idx := catalog.NewMemoryIndex(testArticles(2))
	chat := &fakeChat{reply: "[topics]\n- sports\n\n[region]\n- US\n"}
	builder := NewProfileBuilder(idx, chat, 10, zerolog.Nop())

	profile, err := builder.Build(context.Background(), domain.ClickHistory{"N1", "MISSING", "N2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profile.ClickHistory) != 3 {
		t.Errorf("history keeps dangling ids, got %d entries", len(profile.ClickHistory))
	}
	if len(profile.FavoriteCategories) != 2 {
		t.Errorf("expected 2 resolved categories, got %d", len(profile.FavoriteCategories))
	}
}

func TestProfileBuilder_ChatFailureDegrades(t *testing.T) {
	idx := catalog.NewMemoryIndex(testArticles(3))
	chat := &fakeChat{err: context.DeadlineExceeded}
	builder := NewProfileBuilder(idx, chat, 10, zerolog.Nop())

	profile, err := builder.Build(context.Background(), domain.ClickHistory{"N1", "N2"})
	if err != nil {
		t.Fatalf("chat failure must not surface: %v", err)
	}
	if len(profile.Topics) != 0 {
		t.Errorf("expected no topics after chat failure, got %v", profile.Topics)
	}
	if len(profile.FavoriteCategories) == 0 {
		t.Error("category affinities must survive a chat failure")
	}
}

func TestParseProfileSection(t *testing.T) {
	reply := `Here is the user's profile:
[Topics]
- american football
- machine learning

[region]
- United States
- Canada
`

	topics := parseProfileSection(reply, "topics", zerolog.Nop())
	if !reflect.DeepEqual(topics, []string{"american football", "machine learning"}) {
		t.Errorf("topics = %v", topics)
	}

	regions := parseProfileSection(reply, "region", zerolog.Nop())
	if !reflect.DeepEqual(regions, []string{"United States", "Canada"}) {
		t.Errorf("regions = %v", regions)
	}
}

func TestParseProfileSection_MissingHeading(t *testing.T) {
	got := parseProfileSection("no sections here at all", "topics", zerolog.Nop())
	if len(got) != 0 {
		t.Errorf("expected empty slice for missing heading, got %v", got)
	}
}

func TestParseProfileSection_ExtraProse(t *testing.T) {
	reply := "[topics]\n- golf\nSome trailing remark\n[region]\n- UK"
	topics := parseProfileSection(reply, "topics", zerolog.Nop())
	// Non-bulleted lines inside the section are kept after trimming; the
	// section must still stop at the next heading.
	for _, item := range topics {
		if item == "UK" {
			t.Error("topics section leaked into [region]")
		}
	}
}
