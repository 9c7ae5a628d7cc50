// internal/curve/point.go
package curve

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status classifies how a point sample was produced.
type Status int

const (
	StatusNormal Status = iota
	StatusKeyframe
	StatusEndframe
	StatusTracked
	StatusInterpolated
)

var statusNames = map[Status]string{
	StatusNormal:       "NORMAL",
	StatusKeyframe:     "KEYFRAME",
	StatusEndframe:     "ENDFRAME",
	StatusTracked:      "TRACKED",
	StatusInterpolated: "INTERPOLATED",
}

// String returns the canonical name for the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus converts a canonical status name back to its enum value.
// Matching is case-insensitive.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for status, canonical := range statusNames {
		if canonical == upper {
			return status, nil
		}
	}
	return StatusNormal, fmt.Errorf("unknown point status %q", name)
}

// MarshalJSON encodes the status as its canonical name.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid status %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the canonical name form.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Point is a single tracked sample within a curve. Points are immutable
// values; derive a modified copy rather than mutating in place.
type Point struct {
	Frame  int     `json:"frame"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Status Status  `json:"status"`
}

// WithStatus returns a copy of the point with only the status replaced.
func (p Point) WithStatus(status Status) Point {
	p.Status = status
	return p
}
