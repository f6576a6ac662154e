package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Policy selects how dense ranks are numbered across satisfaction tiers.
type Policy string

const (
	// PolicyGlobal assigns one continuous dense permutation 1..N across all
	// tiers: only the single best entry overall holds rank 1.
	PolicyGlobal Policy = "global"

	// PolicyPerTier restarts numbering at 1 inside each tier, so every tier
	// has its own rank 1.
	PolicyPerTier Policy = "per_tier"
)

// ParsePolicy converts a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyGlobal, PolicyPerTier:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown rank policy %q", s)
	}
}

// Calibration holds deploy-time ranking tunables loaded from a JSON file.
// Missing fields keep their defaults, allowing partial override files.
type Calibration struct {
	Version string `json:"version"`
	Policy  string `json:"policy"`
}

// DefaultCalibration returns the default ranking calibration.
func DefaultCalibration() *Calibration {
	return &Calibration{Policy: string(PolicyGlobal)}
}

// LoadCalibration loads ranking calibration from a JSON file. If the path is
// empty, the file is unreadable, or malformed, defaults are returned (with
// the error, so callers can log it); the pipeline must keep working on
// defaults rather than refuse to start.
func LoadCalibration(filePath string) (*Calibration, error) {
	if filePath == "" {
		return DefaultCalibration(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read ranking calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	cal := DefaultCalibration()
	if err := json.Unmarshal(data, cal); err != nil {
		slog.Warn("failed to parse ranking calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	if _, err := ParsePolicy(cal.Policy); err != nil {
		slog.Warn("invalid policy in ranking calibration file, using default",
			"path", filePath,
			"policy", cal.Policy)
		cal.Policy = string(PolicyGlobal)
	}

	return cal, nil
}
