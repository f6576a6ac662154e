package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) HealthCheck(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	handler := NewHealthHandlers(HealthHandlersConfig{})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Checks["runtime"] != "ok" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		db, redis  error
		wantStatus int
		wantState  string
	}{
		{"all healthy", nil, nil, http.StatusOK, "healthy"},
		{"db down", errors.New("refused"), nil, http.StatusServiceUnavailable, "unhealthy"},
		{"redis down", nil, errors.New("refused"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandlers(HealthHandlersConfig{
				DBChecker:    &fakeChecker{err: tt.db},
				RedisChecker: &fakeChecker{err: tt.redis},
			})

			rec := httptest.NewRecorder()
			handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantState)
			}
		})
	}
}

func TestReady_UncheckedDependenciesPass(t *testing.T) {
	handler := NewHealthHandlers(HealthHandlersConfig{})

	rec := httptest.NewRecorder()
	handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no checkers configured", rec.Code)
	}
}
