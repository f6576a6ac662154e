package api

import (
	"net/http"
)

// Handlers bundles the handler groups the server exposes. Nil groups are
// skipped, so tests and partial deployments can wire only what they need.
type Handlers struct {
	Ranking     *RankingHandlers
	Taste       *TasteHandlers
	Recommend   *RecommendHandlers
	Leaderboard *LeaderboardHandlers
	Health      *HealthHandlers

	// Metrics is mounted at /metrics when set (Prometheus handler).
	Metrics http.Handler
}

// NewMux builds the route table for the API server.
func NewMux(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	if h.Ranking != nil {
		mux.HandleFunc("/ranking/", h.Ranking.GetUserRanking)
	}
	if h.Taste != nil {
		mux.HandleFunc("/taste/", h.Taste.Handle)
	}
	if h.Recommend != nil {
		mux.HandleFunc("/recommendations/", h.Recommend.GetRecommendations)
		mux.HandleFunc("/venues/", h.Recommend.GetVenueMatch)
	}
	if h.Leaderboard != nil {
		mux.HandleFunc("/leaderboard", h.Leaderboard.GetLeaderboard)
		mux.HandleFunc("/leaderboard/keys", h.Leaderboard.GetScopeKeys)
	}
	if h.Health != nil {
		mux.HandleFunc("/health", h.Health.Health)
		mux.HandleFunc("/ready", h.Health.Ready)
	}
	if h.Metrics != nil {
		mux.Handle("/metrics", h.Metrics)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		WriteJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": "tasteranker-api",
			"version": "0.1.0",
		})
	})

	return mux
}
