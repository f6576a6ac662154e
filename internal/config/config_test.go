package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

// envKeys lists every environment variable Load consults, so tests can
// start from a clean slate.
var envKeys = []string{
	"DATABASE_URL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"RANK_POLICY",
	"RANK_CALIBRATION_FILE",
	"SIMILARITY_SIGMA",
	"CLUSTER_MATCH_FILE",
	"CLUSTER_METADATA_FILE",
	"RECENCY_WINDOW_DAYS",
	"LEADERBOARD_TTL",
	"RECOMPUTE_INTERVAL",
	"PORT",
	"ENV",
	"MIMY_ENV",
	"GO_ENV",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		os.Unsetenv(key)
	}
}

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for key, val := range vars {
		t.Setenv(key, val)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)

	_, errs := Load("")
	if len(errs) == 0 {
		t.Fatal("expected validation errors, got none")
	}

	found := false
	for _, err := range errs {
		if errors.Is(err, ErrMissingDatabaseURL) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ErrMissingDatabaseURL in %v", errs)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setEnv(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/mimy_test",
	})

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.Env != DefaultEnv {
		t.Errorf("Env = %q, want %q", cfg.Env, DefaultEnv)
	}
	if cfg.RedisAddr != DefaultRedisAddr {
		t.Errorf("RedisAddr = %q, want %q", cfg.RedisAddr, DefaultRedisAddr)
	}
	if cfg.RankPolicy != DefaultRankPolicy {
		t.Errorf("RankPolicy = %q, want %q", cfg.RankPolicy, DefaultRankPolicy)
	}
	if cfg.SimilaritySigma != DefaultSimilaritySigma {
		t.Errorf("SimilaritySigma = %f, want %f", cfg.SimilaritySigma, DefaultSimilaritySigma)
	}
	if cfg.RecencyWindowDays != DefaultRecencyWindowDays {
		t.Errorf("RecencyWindowDays = %d, want %d", cfg.RecencyWindowDays, DefaultRecencyWindowDays)
	}
	if cfg.LeaderboardTTL != DefaultLeaderboardTTL {
		t.Errorf("LeaderboardTTL = %s, want %s", cfg.LeaderboardTTL, DefaultLeaderboardTTL)
	}
	if cfg.RecomputeInterval != DefaultRecomputeInterval {
		t.Errorf("RecomputeInterval = %s, want %s", cfg.RecomputeInterval, DefaultRecomputeInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	setEnv(t, map[string]string{
		"DATABASE_URL":        "postgres://localhost/mimy_test",
		"PORT":                "9090",
		"MIMY_ENV":            "production",
		"REDIS_ADDR":          "redis.internal:6380",
		"RANK_POLICY":         "per_tier",
		"SIMILARITY_SIGMA":    "3.5",
		"RECENCY_WINDOW_DAYS": "14",
		"LEADERBOARD_TTL":     "30m",
	})

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if cfg.RedisAddr != "redis.internal:6380" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.RankPolicy != "per_tier" {
		t.Errorf("RankPolicy = %q, want per_tier", cfg.RankPolicy)
	}
	if cfg.SimilaritySigma != 3.5 {
		t.Errorf("SimilaritySigma = %f, want 3.5", cfg.SimilaritySigma)
	}
	if cfg.RecencyWindowDays != 14 {
		t.Errorf("RecencyWindowDays = %d, want 14", cfg.RecencyWindowDays)
	}
	if cfg.LeaderboardTTL != 30*time.Minute {
		t.Errorf("LeaderboardTTL = %s, want 30m", cfg.LeaderboardTTL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name: "bad rank policy",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://localhost/mimy_test",
				"RANK_POLICY":  "alphabetical",
			},
			wantErr: ErrInvalidRankPolicy,
		},
		{
			name: "negative sigma",
			envVars: map[string]string{
				"DATABASE_URL":     "postgres://localhost/mimy_test",
				"SIMILARITY_SIGMA": "-1",
			},
			wantErr: ErrInvalidSigma,
		},
		{
			name: "negative recency window",
			envVars: map[string]string{
				"DATABASE_URL":        "postgres://localhost/mimy_test",
				"RECENCY_WINDOW_DAYS": "-7",
			},
			wantErr: ErrInvalidWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setEnv(t, tt.envVars)

			_, errs := Load("")
			found := false
			for _, err := range errs {
				if errors.Is(err, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %v in %v", tt.wantErr, errs)
			}
		})
	}
}

func TestRecencyWindow(t *testing.T) {
	cfg := &Config{RecencyWindowDays: 30}
	if got, want := cfg.RecencyWindow(), 30*24*time.Hour; got != want {
		t.Errorf("RecencyWindow() = %s, want %s", got, want)
	}
}

func TestLoad_ConfigFileNotFound(t *testing.T) {
	clearEnv(t)

	_, errs := Load("/nonexistent/config.yaml")
	if len(errs) != 1 {
		t.Fatalf("expected a single load error, got %v", errs)
	}
}
