package ranking

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCalibration(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cal, err := LoadCalibration("")
		if err != nil {
			t.Fatalf("LoadCalibration(\"\") error = %v", err)
		}
		if cal.Policy != string(PolicyGlobal) {
			t.Errorf("default policy = %q, want %q", cal.Policy, PolicyGlobal)
		}
	})

	t.Run("valid file overrides policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		content := `{"version": "2026-03", "policy": "per_tier"}`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write calibration file: %v", err)
		}

		cal, err := LoadCalibration(path)
		if err != nil {
			t.Fatalf("LoadCalibration() error = %v", err)
		}
		if cal.Policy != string(PolicyPerTier) {
			t.Errorf("policy = %q, want %q", cal.Policy, PolicyPerTier)
		}
		if cal.Version != "2026-03" {
			t.Errorf("version = %q, want 2026-03", cal.Version)
		}
	})

	t.Run("missing file falls back to defaults with error", func(t *testing.T) {
		cal, err := LoadCalibration("/nonexistent/calibration.json")
		if err == nil {
			t.Error("expected error for missing file")
		}
		if cal == nil || cal.Policy != string(PolicyGlobal) {
			t.Errorf("expected default calibration, got %+v", cal)
		}
	})

	t.Run("malformed file falls back to defaults with error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("write calibration file: %v", err)
		}

		cal, err := LoadCalibration(path)
		if err == nil {
			t.Error("expected error for malformed file")
		}
		if cal.Policy != string(PolicyGlobal) {
			t.Errorf("policy = %q, want default %q", cal.Policy, PolicyGlobal)
		}
	})

	t.Run("invalid policy value resets to default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		if err := os.WriteFile(path, []byte(`{"policy": "tiered"}`), 0o600); err != nil {
			t.Fatalf("write calibration file: %v", err)
		}

		cal, err := LoadCalibration(path)
		if err != nil {
			t.Fatalf("LoadCalibration() error = %v", err)
		}
		if cal.Policy != string(PolicyGlobal) {
			t.Errorf("policy = %q, want default %q", cal.Policy, PolicyGlobal)
		}
	})
}
