package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mimyapp/tasteranker/internal/ranking"
)

// RankEntryResponse is one venue in a user's ranked list.
type RankEntryResponse struct {
	VenueID int64  `json:"venue_id"`
	Tier    string `json:"tier"`
	Rank    int    `json:"rank"`
}

// RankingResponse represents the response for the user ranking endpoint.
// Entries are ordered for profile display: tier descending, rank ascending.
type RankingResponse struct {
	UserID  int64               `json:"user_id"`
	Total   int                 `json:"total"`
	Entries []RankEntryResponse `json:"entries"`
}

// RankingHandlers holds dependencies for ranking HTTP handlers.
type RankingHandlers struct {
	ranks ranking.Store
}

// NewRankingHandlers creates a new RankingHandlers instance.
func NewRankingHandlers(ranks ranking.Store) *RankingHandlers {
	return &RankingHandlers{ranks: ranks}
}

// GetUserRanking handles GET /ranking/{userId} - retrieves a user's ranked venue list.
// A user with no persisted entries gets an empty list, not a 404.
func (h *RankingHandlers) GetUserRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID, ok := parseIDSegment(w, r, "/ranking/", "User ID")
	if !ok {
		return
	}

	entries, err := h.ranks.ListUserRanking(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list user ranking", "error", err, "user_id", userID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve ranking")
		return
	}

	response := RankingResponse{
		UserID:  userID,
		Total:   len(entries),
		Entries: make([]RankEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		response.Entries = append(response.Entries, RankEntryResponse{
			VenueID: e.VenueID,
			Tier:    e.Tier.String(),
			Rank:    e.Rank,
		})
	}

	WriteJSON(w, r.Context(), http.StatusOK, response)
}

// parseIDSegment extracts a positive int64 id from the first path segment
// after the given prefix. Writes a 400 response and returns false when the
// segment is missing or not a valid id.
func parseIDSegment(w http.ResponseWriter, r *http.Request, prefix, what string) (int64, bool) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, what+" is required")
		return 0, false
	}

	id, err := strconv.ParseInt(pathParts[0], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, what+" must be a positive integer")
		return 0, false
	}
	return id, true
}
