package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

const (
	profileHistoryWindow = 10
	favoriteCategoryMax  = 5
)

// ProfileBuilder turns a user's click history into a UserProfile: inferred
// topics and regions from the chat model, category affinities counted locally.
type ProfileBuilder struct {
	articles port.ArticleIndex
	chat     port.ChatModel
	window   int
	log      zerolog.Logger
}

func NewProfileBuilder(articles port.ArticleIndex, chat port.ChatModel, window int, log zerolog.Logger) *ProfileBuilder {
	if window <= 0 {
		window = profileHistoryWindow
	}
	return &ProfileBuilder{
		articles: articles,
		chat:     chat,
		window:   window,
		log:      log.With().Str("component", "profile").Logger(),
	}
}

// Build derives a profile from the click history. An empty history yields a
// zero-value profile without calling the chat model. A failed chat call
// degrades to empty topics/regions; category affinities survive regardless.
func (b *ProfileBuilder) Build(ctx context.Context, history domain.ClickHistory) (domain.UserProfile, error) {
	profile := domain.UserProfile{
		FavoriteCategories: b.favoriteCategories(history),
		ClickHistory:       truncateHistory(history, b.window),
	}
	if len(history) == 0 {
		return profile, nil
	}

	digest := b.historyDigest(profile.ClickHistory)
	if digest == "" {
		// Every id dangled; nothing to describe.
		return profile, nil
	}

	reply, err := b.chat.Complete(ctx, port.UserMessage(profilePrompt(digest)), port.CompletionOptions{Temperature: 0.5})
	if err != nil {
		b.log.Warn().Err(err).Msg("profile generation failed, continuing without topics")
		return profile, nil
	}

	profile.Topics = parseProfileSection(reply, "topics", b.log)
	profile.Regions = parseProfileSection(reply, "region", b.log)
	return profile, nil
}

// historyDigest renders the numbered article digest for the prompt,
// preserving history order. Dangling ids are silently skipped.
func (b *ProfileBuilder) historyDigest(ids []string) string {
	var lines []string
	n := 0
	for _, id := range ids {
		a, ok := b.articles.Get(id)
		if !ok {
			continue
		}
		n++
		lines = append(lines, fmt.Sprintf("%d. category:%s | sub_category:%s | title:%s", n, a.Category, a.SubCategory, a.Title))
	}
	return strings.Join(lines, "\n")
}

func profilePrompt(digest string) string {
	return fmt.Sprintf(`Based on the following browsing history, describe the user's interests:

%s

Answer in exactly this format:
[topics]
- topic 1
- topic 2

[region]
- region 1
`, digest)
}

// parseProfileSection extracts the dash-bulleted lines of a labeled section.
// The heading is matched case-insensitively; the section runs until the next
// "["-prefixed heading, or to the end of the reply for [region]. A missing
// heading is a defined degraded mode, not an error.
func parseProfileSection(reply, section string, log zerolog.Logger) []string {
	lower := strings.ToLower(reply)
	start := strings.Index(lower, "["+section+"]")
	if start < 0 {
		log.Warn().Str("section", section).Msg("section heading not found in model reply")
		return nil
	}

	end := len(reply)
	if section != "region" {
		if next := strings.Index(reply[start+1:], "["); next >= 0 {
			end = start + 1 + next
		}
	}

	var items []string
	lines := strings.Split(reply[start:end], "\n")
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// favoriteCategories counts (category, sub_category) pairs over the whole
// history and keeps the top 5, ties broken by first-encountered order.
func (b *ProfileBuilder) favoriteCategories(history domain.ClickHistory) []domain.CategoryCount {
	type key struct{ cat, sub string }
	counts := make(map[key]int)
	var order []key

	for _, id := range history {
		a, ok := b.articles.Get(id)
		if !ok {
			continue
		}
		k := key{a.Category, a.SubCategory}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	firstSeen := make(map[key]int, len(order))
	for i, k := range order {
		firstSeen[k] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > favoriteCategoryMax {
		order = order[:favoriteCategoryMax]
	}

	out := make([]domain.CategoryCount, 0, len(order))
	for _, k := range order {
		out = append(out, domain.CategoryCount{Category: k.cat, SubCategory: k.sub, Count: counts[k]})
	}
	return out
}

// truncateHistory keeps a prefix of at most n ids in original order.
func truncateHistory(history domain.ClickHistory, n int) []string {
	if len(history) <= n {
		return append([]string(nil), history...)
	}
	return append([]string(nil), history[:n]...)
}
