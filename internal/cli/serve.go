package cli

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"newsrec/internal/usecase"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the recommender over HTTP",
	Long: `Start an HTTP server with a JSON API over the recommendation
pipeline.

Routes:
  GET /healthz
  GET /users/{userID}/recommendations?top_n=5
  GET /users/{userID}/profile`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rec, closer, err := newRecommender(ctx, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/users/{userID}/recommendations", handleRecommendations(rec))
	r.Get("/users/{userID}/profile", handleProfile(rec))

	logger.Info().Str("addr", addr).Msg("http server listening")
	return http.ListenAndServe(addr, r)
}

func handleRecommendations(rec *usecase.Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		topN := cfg.Recommend.TopN
		if v := r.URL.Query().Get("top_n"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid top_n"})
				return
			}
			topN = n
		}

		result, err := rec.Recommend(r.Context(), userID, topN, cfg.CandidateLimit(topN))
		if err != nil {
			logger.Error().Err(err).Str("user", userID).Msg("recommendation request failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "recommendation failed"})
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleProfile(rec *usecase.Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		history, err := rec.History(r.Context(), userID)
		if err != nil {
			logger.Error().Err(err).Str("user", userID).Msg("history load failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history load failed"})
			return
		}
		if len(history) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown user or empty history"})
			return
		}

		profile, err := rec.Profile(r.Context(), userID)
		if err != nil {
			logger.Error().Err(err).Str("user", userID).Msg("profile request failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "profile build failed"})
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
