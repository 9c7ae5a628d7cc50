// bindings.go
package main

import (
	"encoding/json"
	"fmt"

	"matchcurve/internal/curve"
)

// RPC surface exposed to UI surfaces through the websocket router. Every
// method marshals its work onto the store's owner loop with Call, so the
// confinement invariant holds no matter which connection goroutine the
// request arrived on.

// SetCurveData replaces a curve from JSON-decoded point records.
func (a *App) SetCurveData(name string, points []interface{}) error {
	parsed, err := decodePoints(points)
	if err != nil {
		return err
	}
	a.loop.Call(func() { a.store.SetCurveData(name, parsed) })
	return nil
}

// AddPoint appends one point to an existing curve.
func (a *App) AddPoint(name string, frame int, x, y float64, status string) (int, error) {
	st, err := curve.ParseStatus(status)
	if err != nil {
		return -1, err
	}
	var index int
	a.loop.Call(func() {
		index, err = a.store.AddPoint(name, curve.Point{Frame: frame, X: x, Y: y, Status: st})
	})
	return index, err
}

// RemovePoint deletes one point; false means the index was already stale.
func (a *App) RemovePoint(name string, index int) bool {
	var ok bool
	a.loop.Call(func() { ok = a.store.RemovePoint(name, index) })
	return ok
}

// UpdatePoint replaces the whole point record at index.
func (a *App) UpdatePoint(name string, index, frame int, x, y float64, status string) error {
	st, err := curve.ParseStatus(status)
	if err != nil {
		return err
	}
	a.loop.Call(func() {
		err = a.store.UpdatePoint(name, index, curve.Point{Frame: frame, X: x, Y: y, Status: st})
	})
	return err
}

// SetPointStatus updates one point's status by canonical name.
func (a *App) SetPointStatus(name string, index int, status string) bool {
	var ok bool
	a.loop.Call(func() { ok = a.store.SetPointStatusName(name, index, status) })
	return ok
}

// SelectAll selects every point of a curve; empty name targets the active
// curve.
func (a *App) SelectAll(name string) {
	a.loop.Call(func() { a.store.SelectAll(name) })
}

// SelectRange selects an inclusive point index range.
func (a *App) SelectRange(name string, start, end int) {
	a.loop.Call(func() { a.store.SelectRange(name, start, end) })
}

// SetSelectedCurves replaces the curve-level selection.
func (a *App) SetSelectedCurves(names []interface{}) error {
	parsed, err := decodeStrings(names)
	if err != nil {
		return err
	}
	a.loop.Call(func() { a.store.SetSelectedCurves(parsed) })
	return nil
}

// SetShowAll sets the show-all flag.
func (a *App) SetShowAll(flag bool) {
	a.loop.Call(func() { a.store.SetShowAll(flag) })
}

// SetActiveCurve designates the curve for direct editing.
func (a *App) SetActiveCurve(name string) error {
	var err error
	a.loop.Call(func() { err = a.store.SetActiveCurve(name) })
	return err
}

// SetFrame moves the scrub position.
func (a *App) SetFrame(frame int) {
	a.loop.Call(func() { a.store.SetFrame(frame) })
}

// SetCurveVisible toggles a curve's visibility metadata.
func (a *App) SetCurveVisible(name string, visible bool) bool {
	var ok bool
	a.loop.Call(func() { ok = a.store.SetCurveVisible(name, visible) })
	return ok
}

// RemoveCurve deletes a curve wholesale.
func (a *App) RemoveCurve(name string) bool {
	var ok bool
	a.loop.Call(func() { ok = a.store.RemoveCurve(name) })
	return ok
}

// Begin opens a notification batch for a multi-mutation gesture.
func (a *App) Begin() {
	a.loop.Call(a.store.Begin)
}

// End closes the batch and flushes coalesced notifications.
func (a *App) End() {
	a.loop.Call(a.store.End)
}

// SetViewTransform replaces the canvas zoom and pan.
func (a *App) SetViewTransform(zoomX, zoomY, panX, panY float64) {
	view := curve.ViewTransform{ZoomX: zoomX, ZoomY: zoomY, PanX: panX, PanY: panY}
	a.loop.Call(func() { a.store.SetViewTransform(view) })
}

// GetViewTransform returns the canvas zoom and pan.
func (a *App) GetViewTransform() curve.ViewTransform {
	var view curve.ViewTransform
	a.loop.Call(func() { view = a.store.ViewTransform() })
	return view
}

// GetCurveData returns a copy of one curve's points.
func (a *App) GetCurveData(name string) []curve.Point {
	var points []curve.Point
	a.loop.Call(func() { points = a.store.GetCurveData(name) })
	return points
}

// GetAllCurves returns copies of every curve.
func (a *App) GetAllCurves() map[string][]curve.Point {
	var curves map[string][]curve.Point
	a.loop.Call(func() { curves = a.store.GetAllCurves() })
	return curves
}

// GetSelection returns one curve's point-level selection.
func (a *App) GetSelection(name string) []int {
	var indices []int
	a.loop.Call(func() { indices = a.store.GetSelection(name) })
	return indices
}

// GetSelectedCurves returns the curve-level selection.
func (a *App) GetSelectedCurves() []string {
	var names []string
	a.loop.Call(func() { names = a.store.GetSelectedCurves() })
	return names
}

// GetShowAll returns the show-all flag.
func (a *App) GetShowAll() bool {
	var flag bool
	a.loop.Call(func() { flag = a.store.GetShowAll() })
	return flag
}

// DisplayMode returns the derived display mode, computed fresh.
func (a *App) DisplayMode() string {
	var mode string
	a.loop.Call(func() { mode = a.store.DisplayMode().String() })
	return mode
}

// ActiveCurve returns the active curve name, empty when none.
func (a *App) ActiveCurve() string {
	var name string
	a.loop.Call(func() { name = a.store.ActiveCurve() })
	return name
}

// CurrentFrame returns the scrub position.
func (a *App) CurrentFrame() int {
	var frame int
	a.loop.Call(func() { frame = a.store.CurrentFrame() })
	return frame
}

// VisibleCurves returns the curves a renderer should paint right now.
func (a *App) VisibleCurves() []string {
	var names []string
	a.loop.Call(func() { names = a.store.VisibleCurves() })
	return names
}

// decodePoints converts JSON-decoded RPC params into point records.
func decodePoints(raw []interface{}) ([]curve.Point, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode points: %w", err)
	}
	var points []curve.Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("decode points: %w", err)
	}
	return points, nil
}

func decodeStrings(raw []interface{}) ([]string, error) {
	out := make([]string, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("param element %d: expected string, got %T", i, v)
		}
		out = append(out, s)
	}
	return out, nil
}
