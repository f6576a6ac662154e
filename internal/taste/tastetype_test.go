package taste

import (
	"math"
	"testing"
)

// Vector axis order: boldness, acidity, richness, experimental, spiciness,
// sweetness, umami.
func TestComputeType(t *testing.T) {
	tests := []struct {
		name      string
		vector    Vector
		wantFull  string
		stability float64
	}{
		{
			name:      "bold fresh sweet adventurous assertive",
			vector:    Vector{2, 2, -1, 2, 1, 1, -1},
			wantFull:  "HASP-A",
			stability: 1.43,
		},
		{
			name:      "mild deep savory familiar turbulent",
			vector:    Vector{-1, -1, 1, -1, -1, -1, 1},
			wantFull:  "LDUF-T",
			stability: 1.0,
		},
		{
			name:      "all zero defaults to LDUF-T",
			vector:    Vector{},
			wantFull:  "LDUF-T",
			stability: 0,
		},
		{
			name:      "boundary values stay low side",
			vector:    Vector{1, 1, 1, 0, -1, 1, 1},
			wantFull:  "LDUF-T",
			stability: 0.86,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeType(tt.vector)
			if got.String() != tt.wantFull {
				t.Errorf("ComputeType(%v) = %s, want %s", tt.vector, got.String(), tt.wantFull)
			}
			if math.Abs(got.Stability-tt.stability) > 0.005 {
				t.Errorf("stability = %v, want %v", got.Stability, tt.stability)
			}
		})
	}
}

func TestComputeType_SubtypeThreshold(t *testing.T) {
	// Mean absolute value exactly at the threshold counts as Assertive.
	// |values| sum to 8.4 is unreachable with integers; 9/7 ≈ 1.29 is the
	// nearest reachable point above, 8/7 ≈ 1.14 below.
	above := Vector{2, 2, 2, 1, 1, 1, 0} // 9/7
	below := Vector{2, 2, 1, 1, 1, 1, 0} // 8/7

	if got := ComputeType(above); got.Subtype != SubtypeAssertive {
		t.Errorf("stability %v should be assertive", got.Stability)
	}
	if got := ComputeType(below); got.Subtype != SubtypeTurbulent {
		t.Errorf("stability %v should be turbulent", got.Stability)
	}
}

func TestAllTypeCodes(t *testing.T) {
	codes := AllTypeCodes()
	if len(codes) != 32 {
		t.Fatalf("got %d codes, want 32", len(codes))
	}

	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if _, dup := seen[code]; dup {
			t.Errorf("duplicate code %s", code)
		}
		seen[code] = struct{}{}
		if !IsValidTypeCode(code) {
			t.Errorf("generated code %s fails validation", code)
		}
	}
}

func TestIsValidTypeCode(t *testing.T) {
	invalid := []string{"", "HASP", "HASP-X", "XASP-A", "HASPA", "hasp-a", "HASP-AT"}
	for _, code := range invalid {
		if IsValidTypeCode(code) {
			t.Errorf("IsValidTypeCode(%q) = true, want false", code)
		}
	}
}

func TestComputeType_AlwaysValid(t *testing.T) {
	vectors := []Vector{
		{2, 2, 2, 2, 2, 2, 2},
		{-2, -2, -2, -2, -2, -2, -2},
		{0, 2, -2, 1, 0, -1, 2},
	}
	for _, v := range vectors {
		code := ComputeType(v)
		if !IsValidTypeCode(code.String()) {
			t.Errorf("ComputeType(%v) produced invalid code %s", v, code.String())
		}
	}
}
