package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

var intPattern = regexp.MustCompile(`\d+`)

// Ranker orders a candidate pool against a user profile with the chat model,
// falling back deterministically when the model's answer is unusable.
type Ranker struct {
	articles port.ArticleIndex
	chat     port.ChatModel
	log      zerolog.Logger
}

func NewRanker(articles port.ArticleIndex, chat port.ChatModel, log zerolog.Logger) *Ranker {
	return &Ranker{
		articles: articles,
		chat:     chat,
		log:      log.With().Str("component", "ranker").Logger(),
	}
}

// Rank returns at most topN article projections from the candidate pool,
// best match first, with no duplicate ids. An empty pool returns an empty
// result without calling the chat model.
func (r *Ranker) Rank(ctx context.Context, profile domain.UserProfile, candidateIDs []string, topN int) []domain.Recommendation {
	candidates := r.articles.Filter(candidateIDs)
	if len(candidates) == 0 {
		r.log.Warn().Msg("no candidates resolve to catalog articles")
		return nil
	}

	reply, err := r.chat.Complete(ctx, port.UserMessage(rankPrompt(profile, candidates, topN)), port.CompletionOptions{Temperature: 0.3})
	if err != nil {
		r.log.Warn().Err(err).Msg("rank completion failed, falling back to pool order")
		return project(head(candidates, topN))
	}

	indices := parseRankIndices(reply, len(candidates))
	if len(indices) == 0 {
		r.log.Warn().Str("reply", preview(reply)).Msg("no usable indices in model reply, falling back to pool order")
		return project(head(candidates, topN))
	}
	if len(indices) > topN {
		indices = indices[:topN]
	}

	selected := make([]domain.Article, 0, topN)
	chosen := make(map[string]bool, topN)
	for _, idx := range indices {
		a := candidates[idx-1]
		if chosen[a.NewsID] {
			continue
		}
		chosen[a.NewsID] = true
		selected = append(selected, a)
	}

	// Pad from the front of the pool, skipping anything already selected.
	for _, a := range candidates {
		if len(selected) >= topN {
			break
		}
		if chosen[a.NewsID] {
			continue
		}
		chosen[a.NewsID] = true
		selected = append(selected, a)
	}

	return project(selected)
}

func rankPrompt(profile domain.UserProfile, candidates []domain.Article, topN int) string {
	var digest []string
	for i, a := range candidates {
		digest = append(digest, fmt.Sprintf("%d. category:%s | sub_category:%s | title:%s", i+1, a.Category, a.SubCategory, a.Title))
	}

	var favorites []string
	for i, c := range profile.FavoriteCategories {
		if i >= 3 {
			break
		}
		favorites = append(favorites, fmt.Sprintf("%s/%s", c.Category, c.SubCategory))
	}

	return fmt.Sprintf(`Rank the candidate news for this user and return the %d best matches.

User profile:
Topics of interest: %s
Regions of interest: %s
Preferred categories: %s

Candidate news:
%s

Output only the candidate numbers, comma separated (e.g. 1,3,5,2,4).`,
		topN,
		strings.Join(profile.Topics, ", "),
		strings.Join(profile.Regions, ", "),
		strings.Join(favorites, ", "),
		strings.Join(digest, "\n"))
}

// parseRankIndices extracts every integer substring from the reply and keeps
// the ones in [1, max]. The model is free to wrap its answer in prose; only
// the digits matter.
func parseRankIndices(reply string, max int) []int {
	var indices []int
	for _, m := range intPattern.FindAllString(reply, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n >= 1 && n <= max {
			indices = append(indices, n)
		}
	}
	return indices
}

func head(articles []domain.Article, n int) []domain.Article {
	if len(articles) > n {
		return articles[:n]
	}
	return articles
}

func project(articles []domain.Article) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(articles))
	for _, a := range articles {
		out = append(out, domain.Recommendation{
			NewsID:      a.NewsID,
			Category:    a.Category,
			SubCategory: a.SubCategory,
			Title:       a.Title,
			Abstract:    a.Abstract,
		})
	}
	return out
}

func preview(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
