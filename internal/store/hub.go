// internal/store/hub.go
package store

import (
	"sync"

	"github.com/google/uuid"

	"matchcurve/internal/curve"
	"matchcurve/internal/dispatch"
)

// Event payloads pushed through the notification hub. Subscribers re-query
// the store for anything not carried in the payload; nothing here is meant
// to be cached across turns.

// CurvesChangedEvent announces that the point data or metadata of one
// curve changed (created, replaced, edited, or removed).
type CurvesChangedEvent struct {
	Curve string `json:"curve"`
}

// SelectionStateChangedEvent announces a change to either curve-level
// selection input. Both inputs travel together because display mode is a
// function of the pair.
type SelectionStateChangedEvent struct {
	SelectedCurves []string `json:"selected_curves"`
	ShowAll        bool     `json:"show_all"`
}

// ActiveCurveChangedEvent carries the new active curve name, empty when
// the active curve was cleared.
type ActiveCurveChangedEvent struct {
	Name string `json:"name"`
}

// FrameChangedEvent carries the new scrub position.
type FrameChangedEvent struct {
	Frame int `json:"frame"`
}

// PointSelectionChangedEvent carries the full point-level selection of one
// curve after a change, sorted ascending.
type PointSelectionChangedEvent struct {
	Curve   string `json:"curve"`
	Indices []int  `json:"indices"`
}

// VisibilityChangedEvent announces a per-curve visibility toggle.
type VisibilityChangedEvent struct {
	Curve   string `json:"curve"`
	Visible bool   `json:"visible"`
}

// ViewChangedEvent carries the new canvas view transform.
type ViewChangedEvent struct {
	View curve.ViewTransform `json:"view"`
}

// Subscription is the handle returned by every subscribe call. Unsubscribe
// is idempotent and releases the handler reference immediately.
type Subscription struct {
	id     string
	loop   *dispatch.Loop
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the handler from its feed. Confined to the owner
// context; the check runs before the once so a rejected call does not
// consume it.
func (s *Subscription) Unsubscribe() {
	s.loop.MustOwn("hub.Unsubscribe")
	s.once.Do(s.cancel)
}

// feed is an ordered subscriber list for one event kind. Delivery walks a
// snapshot of the list so handlers may unsubscribe (themselves or others)
// mid-round without corrupting the walk.
type feed[T any] struct {
	subs []*subscriber[T]
}

type subscriber[T any] struct {
	id string
	fn func(T)
}

func (f *feed[T]) subscribe(loop *dispatch.Loop, fn func(T)) *Subscription {
	s := &subscriber[T]{id: uuid.New().String(), fn: fn}
	f.subs = append(f.subs, s)
	return &Subscription{id: s.id, loop: loop, cancel: func() { f.remove(s.id) }}
}

func (f *feed[T]) remove(id string) {
	for i, s := range f.subs {
		if s.id == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *feed[T]) publish(ev T) {
	snapshot := make([]*subscriber[T], len(f.subs))
	copy(snapshot, f.subs)
	for _, s := range snapshot {
		s.fn(ev)
	}
}

func (f *feed[T]) clear() {
	f.subs = nil
}

// Hub fans store notifications out to subscribers, one typed feed per
// event kind. Handlers run synchronously on the owner context in
// first-registration order. The subscriber lists are store state like any
// other: Subscribe and Unsubscribe are confined to the owner context and
// panic with a ConfinementError from anywhere else.
type Hub struct {
	loop *dispatch.Loop

	curves     feed[CurvesChangedEvent]
	selection  feed[SelectionStateChangedEvent]
	active     feed[ActiveCurveChangedEvent]
	frame      feed[FrameChangedEvent]
	points     feed[PointSelectionChangedEvent]
	visibility feed[VisibilityChangedEvent]
	view       feed[ViewChangedEvent]
}

func newHub(loop *dispatch.Loop) *Hub {
	return &Hub{loop: loop}
}

func (h *Hub) SubscribeCurvesChanged(fn func(CurvesChangedEvent)) *Subscription {
	h.loop.MustOwn("hub.SubscribeCurvesChanged")
	return h.curves.subscribe(h.loop, fn)
}

func (h *Hub) SubscribeSelectionStateChanged(fn func(SelectionStateChangedEvent)) *Subscription {
	h.loop.MustOwn("hub.SubscribeSelectionStateChanged")
	return h.selection.subscribe(h.loop, fn)
}

func (h *Hub) SubscribeActiveCurveChanged(fn func(ActiveCurveChangedEvent)) *Subscription {
	h.loop.MustOwn("hub.SubscribeActiveCurveChanged")
	return h.active.subscribe(h.loop, fn)
}

func (h *Hub) SubscribeFrameChanged(fn func(FrameChangedEvent)) *Subscription {
	h.loop.MustOwn("hub.SubscribeFrameChanged")
	return h.frame.subscribe(h.loop, fn)
}

func (h *Hub) SubscribePointSelectionChanged(fn func(PointSelectionChangedEvent)) *Subscription {
	h.loop.MustOwn("hub.SubscribePointSelectionChanged")
	return h.points.subscribe(h.loop, fn)
}

func (h *Hub) SubscribeVisibilityChanged(fn func(VisibilityChangedEvent)) *Subscription {
	h.loop.MustOwn("hub.SubscribeVisibilityChanged")
	return h.visibility.subscribe(h.loop, fn)
}

func (h *Hub) SubscribeViewChanged(fn func(ViewChangedEvent)) *Subscription {
	h.loop.MustOwn("hub.SubscribeViewChanged")
	return h.view.subscribe(h.loop, fn)
}

// Close drops every subscriber so no handler can outlive a store reset.
func (h *Hub) Close() {
	h.loop.MustOwn("hub.Close")
	h.curves.clear()
	h.selection.clear()
	h.active.clear()
	h.frame.clear()
	h.points.clear()
	h.visibility.clear()
	h.view.clear()
}
