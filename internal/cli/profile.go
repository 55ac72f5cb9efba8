package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	profileUser string
	profileJSON bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show a user's derived interest profile",
	Long: `Build and print the interest profile derived from a user's click
history: inferred topics and regions plus category affinities.

Examples:
  newsrec profile -u U13740
  newsrec profile -u U13740 --json`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profileUser, "user", "u", "", "user id (required)")
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "output as JSON")
	profileCmd.MarkFlagRequired("user")
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rec, closer, err := newRecommender(ctx, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	profile, err := rec.Profile(ctx, profileUser)
	if err != nil {
		return fmt.Errorf("profile build failed: %w", err)
	}

	if profileJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}

	fmt.Printf("Profile for user %s:\n", profileUser)
	fmt.Printf("  Topics:  %s\n", strings.Join(profile.Topics, ", "))
	fmt.Printf("  Regions: %s\n", strings.Join(profile.Regions, ", "))
	fmt.Printf("  Favorite categories:\n")
	for _, c := range profile.FavoriteCategories {
		fmt.Printf("    %s/%s (%d clicks)\n", c.Category, c.SubCategory, c.Count)
	}
	fmt.Printf("  Recent clicks: %d\n", len(profile.ClickHistory))

	return nil
}
