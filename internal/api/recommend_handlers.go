package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mimyapp/tasteranker/internal/ranking"
	"github.com/mimyapp/tasteranker/internal/recommend"
	"github.com/mimyapp/tasteranker/internal/taste"
)

// RecommendationsResponse represents the response for the recommendations endpoint.
type RecommendationsResponse struct {
	UserID  int64                      `json:"user_id"`
	Results []recommend.Recommendation `json:"results"`
}

// VenueMatchResponse represents the response for the venue match endpoint.
type VenueMatchResponse struct {
	VenueID  int64 `json:"venue_id"`
	ViewerID int64 `json:"viewer_id"`
	Score    int   `json:"score"`
}

// RecommendHandlers holds dependencies for recommendation HTTP handlers.
type RecommendHandlers struct {
	selector *recommend.Selector
	ranks    ranking.Store
	profiles taste.Store
	scorer   *taste.Scorer
}

// NewRecommendHandlers creates a new RecommendHandlers instance.
func NewRecommendHandlers(selector *recommend.Selector, ranks ranking.Store, profiles taste.Store, scorer *taste.Scorer) *RecommendHandlers {
	return &RecommendHandlers{
		selector: selector,
		ranks:    ranks,
		profiles: profiles,
		scorer:   scorer,
	}
}

// GetRecommendations handles GET /recommendations/{userId} - similar users
// with recent activity, most similar first. A requester without a taste
// profile gets an empty result set.
func (h *RecommendHandlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID, ok := parseIDSegment(w, r, "/recommendations/", "User ID")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results, err := h.selector.Select(r.Context(), userID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to select recommendations", "error", err, "user_id", userID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to compute recommendations")
		return
	}
	if results == nil {
		results = []recommend.Recommendation{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, RecommendationsResponse{UserID: userID, Results: results})
}

// GetVenueMatch handles GET /venues/{venueId}/match?viewer_id={id} - a
// personalized 0..100 fit estimate built from the viewer's taste vector and
// the rank positions of taste-similar reviewers.
func (h *RecommendHandlers) GetVenueMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/venues/"), "/")
	if len(pathParts) < 2 || pathParts[0] == "" || pathParts[1] != "match" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}
	venueID, err := strconv.ParseInt(pathParts[0], 10, 64)
	if err != nil || venueID <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Venue ID must be a positive integer")
		return
	}

	viewerID, err := strconv.ParseInt(r.URL.Query().Get("viewer_id"), 10, 64)
	if err != nil || viewerID <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "viewer_id must be a positive integer")
		return
	}

	viewerProfile, err := h.profiles.GetProfile(r.Context(), viewerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to retrieve viewer profile", "error", err, "viewer_id", viewerID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to compute venue match")
		return
	}

	signals, err := h.ranks.VenueSignals(r.Context(), venueID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to retrieve venue signals", "error", err, "venue_id", venueID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to compute venue match")
		return
	}

	reviewers, err := h.reviewerSignals(r, signals)
	if err != nil {
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to compute venue match")
		return
	}

	var viewerScores *taste.Vector
	if viewerProfile != nil {
		viewerScores = &viewerProfile.Scores
	}
	score, ok := recommend.VenueMatchScore(viewerScores, reviewers, h.scorer)
	if !ok {
		WriteError(w, r.Context(), http.StatusUnprocessableEntity, ErrCodeInsufficientSignal, "Not enough reviewer signal for a match estimate")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, VenueMatchResponse{
		VenueID:  venueID,
		ViewerID: viewerID,
		Score:    score,
	})
}

// reviewerSignals joins rank signals with the reviewers' taste profiles.
func (h *RecommendHandlers) reviewerSignals(r *http.Request, signals []ranking.Signal) ([]recommend.ReviewerSignal, error) {
	userIDs := make([]int64, 0, len(signals))
	for _, sig := range signals {
		userIDs = append(userIDs, sig.UserID)
	}

	profileByUser, err := h.profiles.GetProfiles(r.Context(), userIDs)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to retrieve reviewer profiles", "error", err)
		return nil, err
	}

	reviewers := make([]recommend.ReviewerSignal, 0, len(signals))
	for _, sig := range signals {
		reviewers = append(reviewers, recommend.SignalFromRanking(sig, profileByUser[sig.UserID]))
	}
	return reviewers, nil
}
