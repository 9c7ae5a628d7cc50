// internal/store/curves.go
package store

import (
	"sort"

	"matchcurve/internal/curve"
)

// curveEntry is the store-internal record for one named trajectory. The
// selected set holds point-level selection indices, always within
// [0, len(points)).
type curveEntry struct {
	points   []curve.Point
	meta     curve.Metadata
	selected map[int]struct{}
}

// curveStore owns the curve map. It applies state changes and reports what
// changed; routing those changes into notifications is the facade's job,
// so every mutation stays usable inside a transaction.
type curveStore struct {
	curves map[string]*curveEntry
}

func newCurveStore() *curveStore {
	return &curveStore{
		curves: make(map[string]*curveEntry),
	}
}

func newCurveEntry() *curveEntry {
	return &curveEntry{
		meta:     curve.DefaultMetadata(),
		selected: make(map[int]struct{}),
	}
}

func (c *curveStore) has(name string) bool {
	_, ok := c.curves[name]
	return ok
}

// setCurveData replaces a curve wholesale, creating it when absent. The
// incoming slice is copied in. Point-level selection indices that no
// longer fit the new length are dropped; the returned flag reports whether
// that trimmed anything.
func (c *curveStore) setCurveData(name string, points []curve.Point, meta *curve.Metadata) (selectionTrimmed bool) {
	entry, ok := c.curves[name]
	if !ok {
		entry = newCurveEntry()
		c.curves[name] = entry
	}

	entry.points = make([]curve.Point, len(points))
	copy(entry.points, points)
	if meta != nil {
		entry.meta = *meta
	}

	for idx := range entry.selected {
		if idx >= len(entry.points) {
			delete(entry.selected, idx)
			selectionTrimmed = true
		}
	}
	return selectionTrimmed
}

// addPoint appends a point and returns its index. Absent curves are an
// ErrUnknownCurve unless autoCreate is set, in which case the curve is
// created with default metadata.
func (c *curveStore) addPoint(name string, p curve.Point, autoCreate bool) (int, error) {
	entry, ok := c.curves[name]
	if !ok {
		if !autoCreate {
			return -1, ErrUnknownCurve
		}
		entry = newCurveEntry()
		c.curves[name] = entry
	}
	entry.points = append(entry.points, p)
	return len(entry.points) - 1, nil
}

// removePoint deletes the point at index and renumbers the point-level
// selection: index itself is dropped, every selected index above it shifts
// down by one. A false result is the normal path for a stale index.
func (c *curveStore) removePoint(name string, index int) (ok, selectionChanged bool) {
	entry, exists := c.curves[name]
	if !exists || index < 0 || index >= len(entry.points) {
		return false, false
	}

	entry.points = append(entry.points[:index], entry.points[index+1:]...)

	shifted := make(map[int]struct{}, len(entry.selected))
	for idx := range entry.selected {
		switch {
		case idx == index:
			selectionChanged = true
		case idx > index:
			shifted[idx-1] = struct{}{}
			selectionChanged = true
		default:
			shifted[idx] = struct{}{}
		}
	}
	entry.selected = shifted
	return true, selectionChanged
}

// updatePoint replaces the whole point record at index.
func (c *curveStore) updatePoint(name string, index int, p curve.Point) error {
	entry, ok := c.curves[name]
	if !ok {
		return ErrUnknownCurve
	}
	if index < 0 || index >= len(entry.points) {
		return ErrInvalidIndex
	}
	entry.points[index] = p
	return nil
}

// setPointStatus replaces only the status field of one point.
func (c *curveStore) setPointStatus(name string, index int, status curve.Status) bool {
	entry, ok := c.curves[name]
	if !ok || index < 0 || index >= len(entry.points) {
		return false
	}
	entry.points[index] = entry.points[index].WithStatus(status)
	return true
}

// selectAll selects every index of the named curve.
func (c *curveStore) selectAll(name string) (ok, changed bool) {
	entry, exists := c.curves[name]
	if !exists {
		return false, false
	}
	if len(entry.selected) == len(entry.points) {
		return true, false
	}
	entry.selected = make(map[int]struct{}, len(entry.points))
	for i := range entry.points {
		entry.selected[i] = struct{}{}
	}
	return true, true
}

// selectRange replaces the point-level selection with the inclusive range
// [start, end]. Reversed bounds are swapped, both ends are clamped to the
// valid index range.
func (c *curveStore) selectRange(name string, start, end int) (ok, changed bool) {
	entry, exists := c.curves[name]
	if !exists || len(entry.points) == 0 {
		return false, false
	}

	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end > len(entry.points)-1 {
		end = len(entry.points) - 1
	}

	next := make(map[int]struct{}, end-start+1)
	for i := start; i <= end; i++ {
		next[i] = struct{}{}
	}
	if indexSetsEqual(entry.selected, next) {
		return true, false
	}
	entry.selected = next
	return true, true
}

// clearPointSelection empties the point-level selection of one curve.
func (c *curveStore) clearPointSelection(name string) (ok, changed bool) {
	entry, exists := c.curves[name]
	if !exists {
		return false, false
	}
	if len(entry.selected) == 0 {
		return true, false
	}
	entry.selected = make(map[int]struct{})
	return true, true
}

func (c *curveStore) removeCurve(name string) bool {
	if _, ok := c.curves[name]; !ok {
		return false
	}
	delete(c.curves, name)
	return true
}

func (c *curveStore) setVisible(name string, visible bool) (ok, changed bool) {
	entry, exists := c.curves[name]
	if !exists {
		return false, false
	}
	if entry.meta.Visible == visible {
		return true, false
	}
	entry.meta = entry.meta.WithVisible(visible)
	return true, true
}

func (c *curveStore) setColor(name, color string) (ok, changed bool) {
	entry, exists := c.curves[name]
	if !exists {
		return false, false
	}
	if entry.meta.Color == color {
		return true, false
	}
	entry.meta = entry.meta.WithColor(color)
	return true, true
}

// curveData returns a copy of the point sequence, nil when absent. Callers
// can never reach internal storage through the result.
func (c *curveStore) curveData(name string) []curve.Point {
	entry, ok := c.curves[name]
	if !ok {
		return nil
	}
	out := make([]curve.Point, len(entry.points))
	copy(out, entry.points)
	return out
}

// allCurves returns a copied map of copied point sequences.
func (c *curveStore) allCurves() map[string][]curve.Point {
	out := make(map[string][]curve.Point, len(c.curves))
	for name, entry := range c.curves {
		points := make([]curve.Point, len(entry.points))
		copy(points, entry.points)
		out[name] = points
	}
	return out
}

// selection returns the point-level selection of one curve, sorted
// ascending. Nil when the curve is absent, empty when nothing is selected.
func (c *curveStore) selection(name string) []int {
	entry, ok := c.curves[name]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(entry.selected))
	for idx := range entry.selected {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (c *curveStore) metadata(name string) (curve.Metadata, bool) {
	entry, ok := c.curves[name]
	if !ok {
		return curve.Metadata{}, false
	}
	return entry.meta, true
}

func (c *curveStore) names() []string {
	out := make([]string, 0, len(c.curves))
	for name := range c.curves {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (c *curveStore) length(name string) int {
	entry, ok := c.curves[name]
	if !ok {
		return 0
	}
	return len(entry.points)
}

func (c *curveStore) clear() {
	c.curves = make(map[string]*curveEntry)
}

func indexSetsEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if _, ok := b[idx]; !ok {
			return false
		}
	}
	return true
}
