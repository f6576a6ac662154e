package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mimyapp/tasteranker/internal/leaderboard"
)

// LeaderboardResponse represents the response for the leaderboard endpoint.
type LeaderboardResponse struct {
	Scope   string              `json:"scope"`
	Key     string              `json:"key,omitempty"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
	Entries []leaderboard.Entry `json:"entries"`
}

// ScopeKeysResponse represents the response for the scope keys endpoint.
type ScopeKeysResponse struct {
	Scope string   `json:"scope"`
	Keys  []string `json:"keys"`
}

// LeaderboardHandlers holds dependencies for leaderboard HTTP handlers.
type LeaderboardHandlers struct {
	aggregator *leaderboard.Aggregator
}

// NewLeaderboardHandlers creates a new LeaderboardHandlers instance.
func NewLeaderboardHandlers(aggregator *leaderboard.Aggregator) *LeaderboardHandlers {
	return &LeaderboardHandlers{aggregator: aggregator}
}

// GetLeaderboard handles GET /leaderboard?scope=&key=&page=&limit=.
// Scope defaults to OVERALL; scoped boards require a key.
func (h *LeaderboardHandlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	scopeParam := query.Get("scope")
	if scopeParam == "" {
		scopeParam = string(leaderboard.ScopeOverall)
	}
	scope, err := leaderboard.ParseScope(scopeParam)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidScope, "Unknown leaderboard scope")
		return
	}

	key := query.Get("key")
	if scope != leaderboard.ScopeOverall && key == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "key is required for scoped leaderboards")
		return
	}
	if scope == leaderboard.ScopeOverall && key != "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "key is not accepted for the overall leaderboard")
		return
	}

	page, ok := parsePositiveQueryInt(w, r, "page", 1)
	if !ok {
		return
	}
	limit, ok := parsePositiveQueryInt(w, r, "limit", leaderboard.DefaultPageSize)
	if !ok {
		return
	}
	if limit > leaderboard.MaxPageSize {
		limit = leaderboard.MaxPageSize
	}

	entries, err := h.aggregator.Get(r.Context(), scope, key, page, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to retrieve leaderboard", "error", err, "scope", scope, "key", key)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve leaderboard")
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, LeaderboardResponse{
		Scope:   string(scope),
		Key:     key,
		Page:    page,
		Limit:   limit,
		Entries: entries,
	})
}

// GetScopeKeys handles GET /leaderboard/keys?scope= - lists the keys that
// currently have a scoped board.
func (h *LeaderboardHandlers) GetScopeKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	scope, err := leaderboard.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidScope, "Unknown leaderboard scope")
		return
	}
	if scope == leaderboard.ScopeOverall {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "scope must be a scoped leaderboard")
		return
	}

	keys, err := h.aggregator.ListScopeKeys(r.Context(), scope)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list scope keys", "error", err, "scope", scope)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list scope keys")
		return
	}
	if keys == nil {
		keys = []string{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, ScopeKeysResponse{Scope: string(scope), Keys: keys})
}

// parsePositiveQueryInt parses an optional positive integer query parameter.
func parsePositiveQueryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, name+" must be a positive integer")
		return 0, false
	}
	return value, true
}
