package watcher

import (
	"encoding/json"
	"fmt"
	"os"

	"matchcurve/internal/curve"
)

// LoadTrackFile reads one track file: a JSON array of point samples
// ([{"frame":1,"x":..,"y":..,"status":"TRACKED"}, ...]). Rich interchange
// formats are handled by external importers; this loader only covers the
// hot-reload path.
func LoadTrackFile(path string) ([]curve.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track file: %w", err)
	}

	var points []curve.Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("parse track file %s: %w", path, err)
	}
	return points, nil
}
