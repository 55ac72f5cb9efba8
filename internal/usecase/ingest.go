package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

// IngestResult summarizes one bulk ingestion run.
type IngestResult struct {
	Articles      int
	Upserted      int
	FailedBatches int
	Errors        []string
}

// ProgressFunc reports ingestion progress: articles processed out of total.
type ProgressFunc func(processed, total int)

// Ingester embeds catalog articles and populates the vector collection.
// Point ids are deterministic, so re-running over a partially applied batch
// converges instead of duplicating.
type Ingester struct {
	embedder   port.Embedder
	index      port.VectorIndex
	collection string
	batchSize  int
	log        zerolog.Logger
}

func NewIngester(embedder port.Embedder, index port.VectorIndex, collection string, batchSize int, log zerolog.Logger) *Ingester {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Ingester{
		embedder:   embedder,
		index:      index,
		collection: collection,
		batchSize:  batchSize,
		log:        log.With().Str("component", "ingest").Logger(),
	}
}

// Ingest embeds and upserts the articles in batches. A failed batch is
// recorded and ingestion continues; the caller can re-run to fill gaps.
func (g *Ingester) Ingest(ctx context.Context, articles []domain.Article, progress ProgressFunc) (IngestResult, error) {
	result := IngestResult{Articles: len(articles)}
	if len(articles) == 0 {
		return result, nil
	}

	if err := g.index.EnsureCollection(ctx, g.collection); err != nil {
		return result, err
	}

	for start := 0; start < len(articles); start += g.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + g.batchSize
		if end > len(articles) {
			end = len(articles)
		}
		batch := articles[start:end]

		texts := make([]string, len(batch))
		for i, a := range batch {
			texts[i] = a.InfoText()
		}

		vectors, err := g.embedder.Embed(ctx, texts)
		if err != nil {
			result.FailedBatches++
			result.Errors = append(result.Errors, fmt.Sprintf("embed batch %d-%d: %v", start, end, err))
			g.log.Warn().Err(err).Int("start", start).Int("end", end).Msg("embedding batch failed, skipping")
			continue
		}

		points := make([]port.Point, len(batch))
		for i, a := range batch {
			points[i] = port.Point{
				ID:     a.NewsID,
				Vector: vectors[i],
				Payload: map[string]string{
					PayloadNewsID:  a.NewsID,
					"category":     a.Category,
					"sub_category": a.SubCategory,
					"title":        a.Title,
				},
			}
		}

		if err := g.index.Upsert(ctx, g.collection, points); err != nil {
			result.FailedBatches++
			result.Errors = append(result.Errors, fmt.Sprintf("upsert batch %d-%d: %v", start, end, err))
			g.log.Warn().Err(err).Int("start", start).Int("end", end).Msg("upsert batch failed, skipping")
			continue
		}

		result.Upserted += len(batch)
		if progress != nil {
			progress(end, len(articles))
		}
	}

	g.log.Info().Int("articles", result.Articles).Int("upserted", result.Upserted).
		Int("failed_batches", result.FailedBatches).Msg("ingestion finished")

	return result, nil
}
