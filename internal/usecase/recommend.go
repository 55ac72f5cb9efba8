package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

const defaultSeedText = "news"

// Recommender runs the full pipeline: history → profile → candidates → rank.
type Recommender struct {
	behaviors      port.BehaviorSource
	articles       port.ArticleIndex
	profiles       *ProfileBuilder
	retriever      *CandidateRetriever
	ranker         *Ranker
	randomPoolSize int
	log            zerolog.Logger
}

func NewRecommender(
	behaviors port.BehaviorSource,
	articles port.ArticleIndex,
	profiles *ProfileBuilder,
	retriever *CandidateRetriever,
	ranker *Ranker,
	randomPoolSize int,
	log zerolog.Logger,
) *Recommender {
	if randomPoolSize <= 0 {
		randomPoolSize = 50
	}
	return &Recommender{
		behaviors:      behaviors,
		articles:       articles,
		profiles:       profiles,
		retriever:      retriever,
		ranker:         ranker,
		randomPoolSize: randomPoolSize,
		log:            log.With().Str("component", "recommender").Logger(),
	}
}

// Recommend produces up to topN ordered recommendations for the user.
// An empty click history terminates with an empty result before any gateway
// call. An empty candidate pool is replaced with a random catalog sample and
// the result is flagged degraded. Only a failed history load is fatal.
func (r *Recommender) Recommend(ctx context.Context, userID string, topN int, candidateLimit int) (domain.RecommendResult, error) {
	history, err := r.behaviors.History(ctx, userID)
	if err != nil {
		return domain.RecommendResult{}, err
	}
	if len(history) == 0 {
		r.log.Warn().Str("user", userID).Msg("no click history, returning empty result")
		return domain.RecommendResult{Items: []domain.Recommendation{}}, nil
	}

	profile, err := r.profiles.Build(ctx, history)
	if err != nil {
		return domain.RecommendResult{}, err
	}

	seed := defaultSeedText
	if latest, ok := r.articles.Get(history.Latest()); ok {
		seed = latest.Title
	}

	if candidateLimit <= 0 {
		candidateLimit = 3 * topN
	}
	candidateIDs := r.retriever.Retrieve(ctx, seed, candidateLimit)

	degraded := false
	if len(candidateIDs) == 0 {
		degraded = true
		for _, a := range r.articles.Sample(r.randomPoolSize) {
			candidateIDs = append(candidateIDs, a.NewsID)
		}
		r.log.Warn().Str("user", userID).Int("pool", len(candidateIDs)).
			Msg("retrieval yielded no candidates, substituting random sample")
	}

	items := r.ranker.Rank(ctx, profile, candidateIDs, topN)
	if items == nil {
		items = []domain.Recommendation{}
	}

	r.log.Info().Str("user", userID).Int("recommended", len(items)).Bool("degraded", degraded).
		Msg("recommendation complete")

	return domain.RecommendResult{Items: items, Degraded: degraded}, nil
}

// Profile exposes profile building for callers that only want the profile
// view (CLI and HTTP API).
func (r *Recommender) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	history, err := r.behaviors.History(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return r.profiles.Build(ctx, history)
}

// History exposes the raw click history for a user.
func (r *Recommender) History(ctx context.Context, userID string) (domain.ClickHistory, error) {
	return r.behaviors.History(ctx, userID)
}
