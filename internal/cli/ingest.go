package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"newsrec/internal/adapter/cache"
	"newsrec/internal/usecase"
)

var ingestGlob string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed the news catalog into the vector index",
	Long: `Load the news catalog, embed each article and upsert the vectors
into the configured Qdrant collection. Embeddings are cached locally, so
re-running only embeds new or changed articles.

Examples:
  newsrec ingest
  newsrec ingest --news 'data/MIND/MINDsmall_train/news.tsv'`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestGlob, "news", "", "catalog file glob (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if ingestGlob != "" {
		cfg.Data.NewsGlob = ingestGlob
	}

	articles, err := loadArticleIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	fmt.Printf("Catalog loaded: %d articles\n", articles.Len())

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	if cfg.Ingest.CachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Ingest.CachePath), 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		c, err := cache.NewEmbeddingCache(cfg.Ingest.CachePath)
		if err != nil {
			return fmt.Errorf("failed to open embedding cache: %w", err)
		}
		defer c.Close()
		embedder = cache.NewCachedEmbedder(embedder, c)
	}

	ingester := usecase.NewIngester(embedder, newVectorIndex(cfg), cfg.Qdrant.Collection, cfg.Ingest.BatchSize, logger)

	bar := progressbar.NewOptions(articles.Len(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	result, err := ingester.Ingest(ctx, articles.All(), func(processed, total int) {
		bar.Set(processed)
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Articles:       %d\n", result.Articles)
	fmt.Printf("  Upserted:       %d\n", result.Upserted)
	fmt.Printf("  Failed batches: %d\n", result.FailedBatches)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return nil
}
