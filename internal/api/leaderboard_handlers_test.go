package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mimyapp/tasteranker/internal/leaderboard"
)

type fixedStatsSource struct {
	users []leaderboard.UserStats
}

func (s *fixedStatsSource) AllUserStats(ctx context.Context) ([]leaderboard.UserStats, error) {
	return s.users, nil
}

func newLeaderboardHandler(t *testing.T) *LeaderboardHandlers {
	t.Helper()
	stats := &fixedStatsSource{users: []leaderboard.UserStats{
		{UserID: 1, ContentCount: 10, ReceivedLikes: 2, Affiliation: "acme"},
		{UserID: 2, ContentCount: 3, ReceivedLikes: 20, Affiliation: "acme", Neighborhood: "north"},
		{UserID: 3, ContentCount: 1, ReceivedLikes: 1, Neighborhood: "north"},
	}}
	agg := leaderboard.NewAggregator(stats, leaderboard.NewInMemoryStore(), nil, leaderboard.AggregatorConfig{})
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return NewLeaderboardHandlers(agg)
}

func TestGetLeaderboard_Overall(t *testing.T) {
	handler := newLeaderboardHandler(t)

	rec := httptest.NewRecorder()
	handler.GetLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp LeaderboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Scope != string(leaderboard.ScopeOverall) || resp.Page != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(resp.Entries))
	}
	// User 2: 3*5 + 20*3 = 75 beats user 1: 10*5 + 2*3 = 56.
	if resp.Entries[0].UserID != 2 || resp.Entries[0].Rank != 1 {
		t.Errorf("top entry = %+v, want user 2 at rank 1", resp.Entries[0])
	}
}

func TestGetLeaderboard_Scoped(t *testing.T) {
	handler := newLeaderboardHandler(t)

	rec := httptest.NewRecorder()
	handler.GetLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?scope=AFFILIATION&key=acme", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp LeaderboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Key != "acme" || len(resp.Entries) != 2 {
		t.Fatalf("resp = %+v, want 2 acme entries", resp)
	}
	if resp.Entries[0].UserID != 2 {
		t.Errorf("top acme entry = %+v", resp.Entries[0])
	}
}

func TestGetLeaderboard_Validation(t *testing.T) {
	handler := newLeaderboardHandler(t)

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"unknown scope", "?scope=GALAXY", ErrCodeInvalidScope},
		{"scoped without key", "?scope=AFFILIATION", ErrCodeValidation},
		{"overall with key", "?key=acme", ErrCodeValidation},
		{"bad page", "?page=0", ErrCodeValidation},
		{"bad limit", "?limit=-1", ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.GetLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/leaderboard"+tt.query, nil))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestGetLeaderboard_PastEndIsEmptyNotError(t *testing.T) {
	handler := newLeaderboardHandler(t)

	rec := httptest.NewRecorder()
	handler.GetLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?page=50", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp LeaderboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Errorf("entries = %+v, want empty page", resp.Entries)
	}
}

func TestGetScopeKeys(t *testing.T) {
	handler := newLeaderboardHandler(t)

	rec := httptest.NewRecorder()
	handler.GetScopeKeys(rec, httptest.NewRequest(http.MethodGet, "/leaderboard/keys?scope=NEIGHBORHOOD", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp ScopeKeysResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Keys) != 1 || resp.Keys[0] != "north" {
		t.Errorf("keys = %v, want [north]", resp.Keys)
	}
}

func TestGetScopeKeys_RejectsOverall(t *testing.T) {
	handler := newLeaderboardHandler(t)

	for _, query := range []string{"", "?scope=OVERALL"} {
		rec := httptest.NewRecorder()
		handler.GetScopeKeys(rec, httptest.NewRequest(http.MethodGet, "/leaderboard/keys"+query, nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", query, rec.Code)
		}
	}
}
