// Package config provides configuration loading and validation for the
// ranking services. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server and batch jobs.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis cache
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Ranking
	RankPolicy          string `koanf:"rank_policy"`           // "global" or "per_tier"
	RankCalibrationFile string `koanf:"rank_calibration_file"` // optional JSON override

	// Taste similarity
	SimilaritySigma float64 `koanf:"similarity_sigma"`

	// Cluster reference data (loaded once at startup)
	ClusterMatchFile    string `koanf:"cluster_match_file"`
	ClusterMetadataFile string `koanf:"cluster_metadata_file"`

	// Recommendations
	RecencyWindowDays int `koanf:"recency_window_days"`

	// Leaderboard
	LeaderboardTTL time.Duration `koanf:"leaderboard_ttl"`

	// Recompute job
	RecomputeInterval time.Duration `koanf:"recompute_interval"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidRankPolicy  = errors.New("RANK_POLICY must be \"global\" or \"per_tier\"")
	ErrInvalidSigma       = errors.New("SIMILARITY_SIGMA must be > 0")
	ErrInvalidWindow      = errors.New("RECENCY_WINDOW_DAYS must be > 0")
)

// Default values for non-secret configuration.
const (
	DefaultPort              = 8080
	DefaultEnv               = "development"
	DefaultRedisAddr         = "localhost:6379"
	DefaultRankPolicy        = "global"
	DefaultSimilaritySigma   = 5.0
	DefaultRecencyWindowDays = 30
	DefaultLeaderboardTTL    = time.Hour
	DefaultRecomputeInterval = 6 * time.Hour
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	redisDB, redisDBErr := getEnvIntOrDefault("REDIS_DB", k.Int("redis_db"), 0)
	if redisDBErr != nil {
		loadErrs = append(loadErrs, redisDBErr)
	}

	sigma, sigmaErr := getEnvFloatOrDefault("SIMILARITY_SIGMA", k.Float64("similarity_sigma"), DefaultSimilaritySigma)
	if sigmaErr != nil {
		loadErrs = append(loadErrs, sigmaErr)
	}

	windowDays, windowErr := getEnvIntOrDefault("RECENCY_WINDOW_DAYS", k.Int("recency_window_days"), DefaultRecencyWindowDays)
	if windowErr != nil {
		loadErrs = append(loadErrs, windowErr)
	}

	leaderboardTTL, ttlErr := getEnvDurationOrDefault("LEADERBOARD_TTL", k.Duration("leaderboard_ttl"), DefaultLeaderboardTTL)
	if ttlErr != nil {
		loadErrs = append(loadErrs, ttlErr)
	}

	recomputeInterval, intervalErr := getEnvDurationOrDefault("RECOMPUTE_INTERVAL", k.Duration("recompute_interval"), DefaultRecomputeInterval)
	if intervalErr != nil {
		loadErrs = append(loadErrs, intervalErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                port,
		Env:                 getEnvOrDefaultMulti([]string{"MIMY_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:         getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisAddr:           getEnvOrDefault("REDIS_ADDR", k.String("redis_addr"), DefaultRedisAddr),
		RedisPassword:       getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		RedisDB:             redisDB,
		RankPolicy:          getEnvOrDefault("RANK_POLICY", k.String("rank_policy"), DefaultRankPolicy),
		RankCalibrationFile: getEnvOrKoanf("RANK_CALIBRATION_FILE", k, "rank_calibration_file"),
		SimilaritySigma:     sigma,
		ClusterMatchFile:    getEnvOrKoanf("CLUSTER_MATCH_FILE", k, "cluster_match_file"),
		ClusterMetadataFile: getEnvOrKoanf("CLUSTER_METADATA_FILE", k, "cluster_metadata_file"),
		RecencyWindowDays:   windowDays,
		LeaderboardTTL:      leaderboardTTL,
		RecomputeInterval:   recomputeInterval,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// Validate checks that all required configuration values are present and sane.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.RankPolicy != "global" && c.RankPolicy != "per_tier" {
		errs = append(errs, ErrInvalidRankPolicy)
	}
	if c.SimilaritySigma <= 0 {
		errs = append(errs, ErrInvalidSigma)
	}
	if c.RecencyWindowDays <= 0 {
		errs = append(errs, ErrInvalidWindow)
	}

	return errs
}

// RecencyWindow returns the rolling recency window as a duration.
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowDays) * 24 * time.Hour
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvDurationOrDefault returns the environment variable as a duration if set,
// otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed.
func getEnvDurationOrDefault(envKey string, koanfVal time.Duration, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid duration: %w", envKey, err)
		}
		return d, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}
