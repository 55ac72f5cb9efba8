package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"newsrec/internal/port"
)

// PayloadNewsID is the payload field carrying the originating article id.
// The store's own point id is never used for lookups.
const PayloadNewsID = "news_id"

// CandidateRetriever produces a candidate pool for a seed query text by
// embedding it and running nearest-neighbor search.
type CandidateRetriever struct {
	embedder   port.Embedder
	index      port.VectorIndex
	collection string
	log        zerolog.Logger
}

func NewCandidateRetriever(embedder port.Embedder, index port.VectorIndex, collection string, log zerolog.Logger) *CandidateRetriever {
	return &CandidateRetriever{
		embedder:   embedder,
		index:      index,
		collection: collection,
		log:        log.With().Str("component", "retriever").Logger(),
	}
}

// Retrieve returns up to limit article ids similar to the seed text.
// Retrieval failure is an expected, recoverable state: any embed or search
// error, and any hit without a usable article id, degrades to a smaller or
// empty pool rather than an error.
func (r *CandidateRetriever) Retrieve(ctx context.Context, seedText string, limit int) []string {
	vectors, err := r.embedder.Embed(ctx, []string{seedText})
	if err != nil || len(vectors) == 0 {
		r.log.Warn().Err(err).Msg("seed embedding failed, returning empty pool")
		return nil
	}

	hits, err := r.index.Search(ctx, r.collection, vectors[0], limit, nil)
	if err != nil {
		r.log.Warn().Err(err).Str("collection", r.collection).Msg("vector search failed, returning empty pool")
		return nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		id := hit.Payload[PayloadNewsID]
		if id == "" {
			r.log.Warn().Str("point", hit.ID).Msg("search hit payload missing article id, dropping")
			continue
		}
		ids = append(ids, id)
	}

	r.log.Debug().Int("candidates", len(ids)).Msg("candidate pool retrieved")
	return ids
}
