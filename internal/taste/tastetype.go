package taste

import (
	"fmt"
	"math"
)

// StabilityThreshold separates the Assertive subtype from Turbulent: a mean
// absolute axis value at or above this marks a pronounced, stable palate.
const StabilityThreshold = 1.2

// Axis letters of the four-letter base code.
const (
	IntensityHigh = 'H' // bold and spicy
	IntensityLow  = 'L'
	FlavorAcidic  = 'A' // fresh over deep
	FlavorDeep    = 'D'
	PleasureSweet = 'S' // sweet over savory
	PleasureUmami = 'U'
	ExploreProg   = 'P' // progressive over familiar
	ExploreFam    = 'F'

	SubtypeAssertive = 'A'
	SubtypeTurbulent = 'T'
)

// TypeCode is the 32-way taste classification derived from a vector: a
// four-letter base code plus an A/T subtype, e.g. "HASP-A".
type TypeCode struct {
	Base      string
	Subtype   byte
	Stability float64 // mean of |axis values|, rounded to 2 decimals
}

// String returns the full code, e.g. "HASP-A".
func (c TypeCode) String() string {
	return fmt.Sprintf("%s-%c", c.Base, c.Subtype)
}

// ComputeType derives the taste type code from a vector.
//
// Base code letters: intensity from mean(boldness, spiciness), flavor from
// acidity-richness, pleasure from sweetness-umami, exploration from
// experimental; each letter flips on the derived value being strictly
// positive. Subtype is Assertive when the mean absolute axis value reaches
// StabilityThreshold, Turbulent otherwise.
func ComputeType(v Vector) TypeCode {
	boldness := float64(v[0])
	acidity := float64(v[1])
	richness := float64(v[2])
	experimental := float64(v[3])
	spiciness := float64(v[4])
	sweetness := float64(v[5])
	umami := float64(v[6])

	base := make([]byte, 4)
	if (boldness+spiciness)/2 > 0 {
		base[0] = IntensityHigh
	} else {
		base[0] = IntensityLow
	}
	if acidity-richness > 0 {
		base[1] = FlavorAcidic
	} else {
		base[1] = FlavorDeep
	}
	if sweetness-umami > 0 {
		base[2] = PleasureSweet
	} else {
		base[2] = PleasureUmami
	}
	if experimental > 0 {
		base[3] = ExploreProg
	} else {
		base[3] = ExploreFam
	}

	stability := 0.0
	for _, val := range v {
		stability += math.Abs(float64(val))
	}
	stability /= NumAxes

	subtype := byte(SubtypeTurbulent)
	if stability >= StabilityThreshold {
		subtype = SubtypeAssertive
	}

	return TypeCode{
		Base:      string(base),
		Subtype:   subtype,
		Stability: math.Round(stability*100) / 100,
	}
}

// AllTypeCodes returns the 32 possible full type codes in a fixed order.
func AllTypeCodes() []string {
	intensity := []byte{IntensityLow, IntensityHigh}
	flavor := []byte{FlavorDeep, FlavorAcidic}
	pleasure := []byte{PleasureUmami, PleasureSweet}
	explore := []byte{ExploreFam, ExploreProg}
	subtypes := []byte{SubtypeAssertive, SubtypeTurbulent}

	codes := make([]string, 0, 32)
	for _, i := range intensity {
		for _, f := range flavor {
			for _, p := range pleasure {
				for _, e := range explore {
					for _, s := range subtypes {
						codes = append(codes, fmt.Sprintf("%c%c%c%c-%c", i, f, p, e, s))
					}
				}
			}
		}
	}
	return codes
}

// IsValidTypeCode reports whether s is one of the 32 full type codes.
func IsValidTypeCode(s string) bool {
	if len(s) != 6 || s[4] != '-' {
		return false
	}
	valid := func(c byte, a, b byte) bool { return c == a || c == b }
	return valid(s[0], IntensityLow, IntensityHigh) &&
		valid(s[1], FlavorDeep, FlavorAcidic) &&
		valid(s[2], PleasureUmami, PleasureSweet) &&
		valid(s[3], ExploreFam, ExploreProg) &&
		valid(s[5], SubtypeAssertive, SubtypeTurbulent)
}
