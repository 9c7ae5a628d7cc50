// internal/store/store.go
package store

import (
	"sync"

	"github.com/sirupsen/logrus"

	"matchcurve/internal/curve"
	"matchcurve/internal/dispatch"
)

// Store is the single authority for curve data, selection, and view state.
// Every UI surface reads and writes exclusively through it. All methods
// must run on the owner execution context (the dispatch.Loop passed to
// New); calls from any other goroutine panic with a ConfinementError.
//
// Mutations apply to live state immediately, even inside an open batch, so
// derived reads like DisplayMode are never stale. Only notifications are
// batched, coalesced, or pushed to the next loop turn.
type Store struct {
	log  *logrus.Entry
	loop *dispatch.Loop
	eng  *engine
	hub  *Hub

	curves *curveStore
	policy *selectionPolicy

	active string
	frame  int
	view   curve.ViewTransform
}

// New builds a store bound to the given owner loop.
func New(loop *dispatch.Loop) *Store {
	log := logrus.WithField("component", "store")
	curves := newCurveStore()
	return &Store{
		log:    log,
		loop:   loop,
		eng:    newEngine(loop, log),
		hub:    newHub(loop),
		curves: curves,
		policy: newSelectionPolicy(log, curves),
		frame:  1,
		view:   curve.DefaultViewTransform(),
	}
}

// Loop returns the owner execution context, for collaborators that need
// to post deferred work (the run-later primitive).
func (s *Store) Loop() *dispatch.Loop {
	return s.loop
}

// Events returns the notification hub.
func (s *Store) Events() *Hub {
	return s.hub
}

// Begin opens a notification batch. Mutations between Begin and End apply
// immediately but notify once, coalesced per channel and scope, when End
// flushes. Single-level: a nested Begin is a logged no-op.
func (s *Store) Begin() {
	s.loop.MustOwn("store.Begin")
	s.eng.begin()
}

// End closes the batch and flushes coalesced notifications.
func (s *Store) End() {
	s.loop.MustOwn("store.End")
	s.eng.end()
}

// Batching reports whether a batch is open.
func (s *Store) Batching() bool {
	s.loop.MustOwn("store.Batching")
	return s.eng.batching()
}

// --- curve mutations -----------------------------------------------------

// SetCurveData replaces the named curve wholesale, creating it when
// absent. Existing metadata is kept; see SetCurveDataWithMetadata.
func (s *Store) SetCurveData(name string, points []curve.Point) {
	s.loop.MustOwn("store.SetCurveData")
	if s.eng.deferWhileDelivering("SetCurveData", func() { s.SetCurveData(name, points) }) {
		return
	}
	s.applyCurveData(name, points, nil)
}

// SetCurveDataWithMetadata replaces points and metadata together.
func (s *Store) SetCurveDataWithMetadata(name string, points []curve.Point, meta curve.Metadata) {
	s.loop.MustOwn("store.SetCurveDataWithMetadata")
	if s.eng.deferWhileDelivering("SetCurveDataWithMetadata", func() { s.SetCurveDataWithMetadata(name, points, meta) }) {
		return
	}
	s.applyCurveData(name, points, &meta)
}

func (s *Store) applyCurveData(name string, points []curve.Point, meta *curve.Metadata) {
	trimmed := s.curves.setCurveData(name, points, meta)
	s.emitCurvesChanged(name)
	if trimmed {
		s.emitPointSelection(name)
	}
}

// RemoveCurve deletes a curve. Callers owning the active-curve pointer
// must clear it first; the store flags the dangling reference but does not
// auto-heal it, so the removal stays a single explicit mutation.
func (s *Store) RemoveCurve(name string) bool {
	s.loop.MustOwn("store.RemoveCurve")
	if !s.curves.removeCurve(name) {
		return false
	}
	if s.active == name {
		s.log.WithField("curve", name).Warn("removed curve is still the active curve")
	}
	s.emitCurvesChanged(name)
	return true
}

// AddPoint appends a point to an existing curve and returns its index.
// Fails with ErrUnknownCurve when the curve is absent.
func (s *Store) AddPoint(name string, p curve.Point) (int, error) {
	s.loop.MustOwn("store.AddPoint")
	return s.addPoint(name, p, false)
}

// AddPointAutoCreate appends a point, creating the curve with default
// metadata when absent. The auto-create policy is opt-in at the call site.
func (s *Store) AddPointAutoCreate(name string, p curve.Point) (int, error) {
	s.loop.MustOwn("store.AddPointAutoCreate")
	return s.addPoint(name, p, true)
}

func (s *Store) addPoint(name string, p curve.Point, autoCreate bool) (int, error) {
	index, err := s.curves.addPoint(name, p, autoCreate)
	if err != nil {
		return index, err
	}
	s.emitCurvesChanged(name)
	return index, nil
}

// RemovePoint deletes the point at index. False is the normal result for a
// stale index (the UI raced a deletion that already landed), not an error.
func (s *Store) RemovePoint(name string, index int) bool {
	s.loop.MustOwn("store.RemovePoint")
	ok, selectionChanged := s.curves.removePoint(name, index)
	if !ok {
		return false
	}
	s.emitCurvesChanged(name)
	if selectionChanged {
		s.emitPointSelection(name)
	}
	return true
}

// UpdatePoint replaces the whole point record at index, for drag edits
// that move a point's coordinates.
func (s *Store) UpdatePoint(name string, index int, p curve.Point) error {
	s.loop.MustOwn("store.UpdatePoint")
	if err := s.curves.updatePoint(name, index, p); err != nil {
		return err
	}
	s.emitCurvesChanged(name)
	return nil
}

// SetPointStatus replaces only the status field of one point.
func (s *Store) SetPointStatus(name string, index int, status curve.Status) bool {
	s.loop.MustOwn("store.SetPointStatus")
	if !status.Valid() {
		s.log.WithField("status", int(status)).Warn("ignoring invalid point status")
		return false
	}
	if !s.curves.setPointStatus(name, index, status) {
		return false
	}
	s.emitCurvesChanged(name)
	return true
}

// SetPointStatusName is SetPointStatus for the canonical string form of
// the status. Both forms produce an identical point record.
func (s *Store) SetPointStatusName(name string, index int, status string) bool {
	s.loop.MustOwn("store.SetPointStatusName")
	parsed, err := curve.ParseStatus(status)
	if err != nil {
		s.log.WithField("status", status).Warn("ignoring unknown point status name")
		return false
	}
	if !s.curves.setPointStatus(name, index, parsed) {
		return false
	}
	s.emitCurvesChanged(name)
	return true
}

// SetCurveVisible toggles per-curve visibility metadata.
func (s *Store) SetCurveVisible(name string, visible bool) bool {
	s.loop.MustOwn("store.SetCurveVisible")
	ok, changed := s.curves.setVisible(name, visible)
	if !ok {
		return false
	}
	if changed {
		ev := VisibilityChangedEvent{Curve: name, Visible: visible}
		s.eng.emit("visibility:"+name, func() { s.hub.visibility.publish(ev) })
	}
	return true
}

// SetCurveColor sets the display color metadata of one curve.
func (s *Store) SetCurveColor(name, color string) bool {
	s.loop.MustOwn("store.SetCurveColor")
	ok, changed := s.curves.setColor(name, color)
	if !ok {
		return false
	}
	if changed {
		s.emitCurvesChanged(name)
	}
	return true
}

// --- point-level selection -----------------------------------------------

// SelectAll selects every point of the named curve. An empty name targets
// the active curve. With nothing resolvable this is a documented no-op,
// logged rather than silently dropped.
func (s *Store) SelectAll(name string) {
	s.loop.MustOwn("store.SelectAll")
	if s.eng.deferWhileDelivering("SelectAll", func() { s.SelectAll(name) }) {
		return
	}
	if name == "" {
		name = s.active
	}
	if name == "" {
		s.log.Debug("select all skipped, no active curve")
		return
	}
	ok, changed := s.curves.selectAll(name)
	if !ok {
		s.log.WithField("curve", name).Debug("select all skipped, curve absent")
		return
	}
	if changed {
		s.emitPointSelection(name)
	}
}

// SelectRange replaces the point-level selection of a curve with the
// inclusive range [start, end]. Reversed bounds are swapped and both ends
// are clamped to the valid index range.
func (s *Store) SelectRange(name string, start, end int) {
	s.loop.MustOwn("store.SelectRange")
	if s.eng.deferWhileDelivering("SelectRange", func() { s.SelectRange(name, start, end) }) {
		return
	}
	ok, changed := s.curves.selectRange(name, start, end)
	if !ok {
		s.log.WithField("curve", name).Debug("select range skipped, curve absent or empty")
		return
	}
	if changed {
		s.emitPointSelection(name)
	}
}

// ClearPointSelection empties the point-level selection of one curve.
func (s *Store) ClearPointSelection(name string) {
	s.loop.MustOwn("store.ClearPointSelection")
	if s.eng.deferWhileDelivering("ClearPointSelection", func() { s.ClearPointSelection(name) }) {
		return
	}
	ok, changed := s.curves.clearPointSelection(name)
	if ok && changed {
		s.emitPointSelection(name)
	}
}

// --- curve-level selection -----------------------------------------------

// SetSelectedCurves replaces the curve-level selection set. Setting an
// equal set is a no-op without a notification. Names without data yet are
// accepted (session restore runs before curves load) and logged.
func (s *Store) SetSelectedCurves(names []string) {
	s.loop.MustOwn("store.SetSelectedCurves")
	if s.eng.deferWhileDelivering("SetSelectedCurves", func() { s.SetSelectedCurves(names) }) {
		return
	}
	if s.policy.setSelectedCurves(names) {
		s.emitSelectionState()
	}
}

// SetShowAll sets the show-all flag, no-op when redundant.
func (s *Store) SetShowAll(flag bool) {
	s.loop.MustOwn("store.SetShowAll")
	if s.eng.deferWhileDelivering("SetShowAll", func() { s.SetShowAll(flag) }) {
		return
	}
	if s.policy.setShowAll(flag) {
		s.emitSelectionState()
	}
}

// SetActiveCurve points direct editing at one curve; an empty name clears
// it. A non-empty name must reference an existing curve.
func (s *Store) SetActiveCurve(name string) error {
	s.loop.MustOwn("store.SetActiveCurve")
	if name != "" && !s.curves.has(name) {
		return ErrUnknownCurve
	}
	if s.active == name {
		return nil
	}
	s.active = name
	ev := ActiveCurveChangedEvent{Name: name}
	s.eng.emit("active", func() { s.hub.active.publish(ev) })
	return nil
}

// SetFrame moves the shared scrub position. Frames below 1 clamp to 1.
func (s *Store) SetFrame(frame int) {
	s.loop.MustOwn("store.SetFrame")
	if s.eng.deferWhileDelivering("SetFrame", func() { s.SetFrame(frame) }) {
		return
	}
	if frame < 1 {
		s.log.WithField("frame", frame).Debug("clamping frame to 1")
		frame = 1
	}
	if s.frame == frame {
		return
	}
	s.frame = frame
	ev := FrameChangedEvent{Frame: frame}
	s.eng.emit("frame", func() { s.hub.frame.publish(ev) })
}

// SetViewTransform replaces the canvas view transform.
func (s *Store) SetViewTransform(view curve.ViewTransform) {
	s.loop.MustOwn("store.SetViewTransform")
	if s.eng.deferWhileDelivering("SetViewTransform", func() { s.SetViewTransform(view) }) {
		return
	}
	if s.view == view {
		return
	}
	s.view = view
	ev := ViewChangedEvent{View: view}
	s.eng.emit("view", func() { s.hub.view.publish(ev) })
}

// --- queries ---------------------------------------------------------------

// GetCurveData returns a copy of the named curve's points, nil when absent.
func (s *Store) GetCurveData(name string) []curve.Point {
	s.loop.MustOwn("store.GetCurveData")
	return s.curves.curveData(name)
}

// GetAllCurves returns copies of every curve keyed by name.
func (s *Store) GetAllCurves() map[string][]curve.Point {
	s.loop.MustOwn("store.GetAllCurves")
	return s.curves.allCurves()
}

// GetSelection returns the point-level selection of one curve, sorted.
func (s *Store) GetSelection(name string) []int {
	s.loop.MustOwn("store.GetSelection")
	return s.curves.selection(name)
}

// GetMetadata returns the metadata of one curve.
func (s *Store) GetMetadata(name string) (curve.Metadata, bool) {
	s.loop.MustOwn("store.GetMetadata")
	return s.curves.metadata(name)
}

// CurveNames returns every curve name, sorted.
func (s *Store) CurveNames() []string {
	s.loop.MustOwn("store.CurveNames")
	return s.curves.names()
}

// HasCurve reports whether a curve exists.
func (s *Store) HasCurve(name string) bool {
	s.loop.MustOwn("store.HasCurve")
	return s.curves.has(name)
}

// GetSelectedCurves returns the curve-level selection, sorted.
func (s *Store) GetSelectedCurves() []string {
	s.loop.MustOwn("store.GetSelectedCurves")
	return s.policy.selectedCurves()
}

// GetShowAll returns the show-all flag.
func (s *Store) GetShowAll() bool {
	s.loop.MustOwn("store.GetShowAll")
	return s.policy.showAll
}

// DisplayMode computes the derived mode fresh from the current selection
// inputs. There is no setter and no cache; mid-batch reads already see
// every write applied so far in the batch.
func (s *Store) DisplayMode() DisplayMode {
	s.loop.MustOwn("store.DisplayMode")
	return s.policy.displayMode()
}

// ActiveCurve returns the active curve name, empty when none.
func (s *Store) ActiveCurve() string {
	s.loop.MustOwn("store.ActiveCurve")
	return s.active
}

// CurrentFrame returns the scrub position.
func (s *Store) CurrentFrame() int {
	s.loop.MustOwn("store.CurrentFrame")
	return s.frame
}

// ViewTransform returns the canvas view transform.
func (s *Store) ViewTransform() curve.ViewTransform {
	s.loop.MustOwn("store.ViewTransform")
	return s.view
}

// VisibleCurves resolves the renderer contract: which curves should paint,
// from the display mode plus per-curve visibility plus the selection
// inputs. Renderers call this every frame instead of caching the mode.
func (s *Store) VisibleCurves() []string {
	s.loop.MustOwn("store.VisibleCurves")

	visible := func(name string) bool {
		meta, ok := s.curves.metadata(name)
		return ok && meta.Visible
	}

	switch s.policy.displayMode() {
	case DisplayAllVisible:
		out := make([]string, 0)
		for _, name := range s.curves.names() {
			if visible(name) {
				out = append(out, name)
			}
		}
		return out
	case DisplaySelected:
		out := make([]string, 0)
		for _, name := range s.curves.names() {
			if s.policy.isSelected(name) && visible(name) {
				out = append(out, name)
			}
		}
		return out
	default:
		if s.active != "" && visible(s.active) {
			return []string{s.active}
		}
		return []string{}
	}
}

// --- notification helpers --------------------------------------------------

func (s *Store) emitCurvesChanged(name string) {
	ev := CurvesChangedEvent{Curve: name}
	s.eng.emit("curves:"+name, func() { s.hub.curves.publish(ev) })
}

func (s *Store) emitPointSelection(name string) {
	ev := PointSelectionChangedEvent{Curve: name, Indices: s.curves.selection(name)}
	s.eng.emit("points:"+name, func() { s.hub.points.publish(ev) })
}

func (s *Store) emitSelectionState() {
	ev := SelectionStateChangedEvent{
		SelectedCurves: s.policy.selectedCurves(),
		ShowAll:        s.policy.showAll,
	}
	s.eng.emit("selection", func() { s.hub.selection.publish(ev) })
}

// --- lifecycle ---------------------------------------------------------------

// Close releases every subscription and drops all state. The store is not
// usable afterwards.
func (s *Store) Close() {
	s.loop.MustOwn("store.Close")
	s.hub.Close()
	s.eng.reset()
	s.curves.clear()
	s.policy.clear()
	s.active = ""
	s.frame = 1
	s.view = curve.DefaultViewTransform()
}

// --- process singleton -------------------------------------------------------

// The application composition root passes a *Store explicitly; Get/Reset
// exist for hosts that need ambient access and for test isolation.
var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Get returns the process-wide store, building it lazily. The goroutine
// that triggers construction becomes the owner context.
func Get() *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore == nil {
		loop := dispatch.NewLoop()
		loop.Adopt()
		defaultStore = New(loop)
	}
	return defaultStore
}

// Reset tears the singleton down, releasing all subscriptions, and forces
// the next Get to rebuild from empty state. Must run on the owner context
// of the current instance.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore != nil {
		defaultStore.Close()
		defaultStore = nil
	}
}
