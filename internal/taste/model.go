// Package taste holds each user's discretized preference vector and the
// scoring function that turns two vectors into a bounded compatibility score.
// Cluster assignment is a static offline table lookup, never computed at
// request time.
package taste

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NumAxes is the fixed dimensionality of a preference vector.
const NumAxes = 7

// AxisNames lists the axes in canonical order. Vector positions, quiz
// question grouping, and the cluster lookup key all follow this order.
var AxisNames = [NumAxes]string{
	"boldness",
	"acidity",
	"richness",
	"experimental",
	"spiciness",
	"sweetness",
	"umami",
}

// Axis value bounds.
const (
	AxisMin = -2
	AxisMax = 2
)

// Vector is a user's discretized preference vector: one integer per axis,
// each in [AxisMin, AxisMax]. Set at onboarding, changed only by retaking
// the quiz.
type Vector [NumAxes]int

// Validate reports whether every axis value is within bounds.
func (v Vector) Validate() error {
	for i, val := range v {
		if val < AxisMin || val > AxisMax {
			return fmt.Errorf("axis %s value %d out of range [%d, %d]", AxisNames[i], val, AxisMin, AxisMax)
		}
	}
	return nil
}

// Key returns the comma-joined form used as the cluster lookup key,
// e.g. "-2,0,1,2,-1,0,1".
func (v Vector) Key() string {
	parts := make([]string, NumAxes)
	for i, val := range v {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the vector as an object keyed by axis name, the shape
// persisted in taste_profiles.scores.
func (v Vector) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, NumAxes)
	for i, val := range v {
		m[AxisNames[i]] = val
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an axis-name-keyed object. Missing axes default to
// zero; unknown keys are ignored.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Vector
	for i, name := range AxisNames {
		out[i] = m[name]
	}
	*v = out
	return nil
}

// ProfileVersion is the current persisted profile schema version.
const ProfileVersion = 1

// Profile is a user's stored taste profile: the vector plus its precomputed
// cluster assignment.
type Profile struct {
	UserID    int64     `json:"user_id"`
	Version   int       `json:"version"`
	Scores    Vector    `json:"scores"`
	ClusterID int       `json:"cluster_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
