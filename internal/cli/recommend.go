package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	recommendUser string
	recommendTopN int
	recommendJSON bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend news articles for a user",
	Long: `Run the full recommendation pipeline for one user: build an interest
profile from their click history, retrieve semantically similar candidates
and rerank them with the language model.

Examples:
  newsrec recommend -u U13740
  newsrec recommend -u U13740 -n 10 --json`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVarP(&recommendUser, "user", "u", "", "user id (required)")
	recommendCmd.Flags().IntVarP(&recommendTopN, "top-n", "n", 0, "number of recommendations (default from config)")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "output as JSON")
	recommendCmd.MarkFlagRequired("user")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	topN := recommendTopN
	if topN <= 0 {
		topN = cfg.Recommend.TopN
	}

	rec, closer, err := newRecommender(ctx, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	result, err := rec.Recommend(ctx, recommendUser, topN, cfg.CandidateLimit(topN))
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	if recommendJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Items) == 0 {
		fmt.Printf("No recommendations for user %s\n", recommendUser)
		return nil
	}

	if result.Degraded {
		fmt.Println("(degraded: candidates sampled randomly, vector search unavailable)")
	}
	fmt.Printf("Recommendations for user %s:\n", recommendUser)
	for i, item := range result.Items {
		title := item.Title
		if len(title) > 70 {
			title = title[:70] + "..."
		}
		fmt.Printf("  %d. [%s/%s] %s\n", i+1, item.Category, item.SubCategory, title)
	}

	return nil
}
