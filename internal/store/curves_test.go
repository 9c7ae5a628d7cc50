// internal/store/curves_test.go
package store

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Property: for any selection and any valid removal index, the selection
// afterwards never contains the removed index and every previously
// selected index above it is exactly one less.
func TestRemovePointSelectionShiftProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		s := newTestStore(t)
		length := rng.Intn(20) + 1
		s.SetCurveData("A", testPoints(length))

		selected := make(map[int]bool)
		for i := 0; i < length; i++ {
			if rng.Intn(2) == 0 {
				selected[i] = true
			}
		}
		// Arbitrary selection shapes are not reachable through the range
		// API alone, so seed the internal set directly.
		entry := s.curves.curves["A"]
		for idx := range selected {
			entry.selected[idx] = struct{}{}
		}

		removed := rng.Intn(length)
		require.True(t, s.RemovePoint("A", removed))

		want := make([]int, 0, len(selected))
		for idx := range selected {
			switch {
			case idx == removed:
			case idx > removed:
				want = append(want, idx-1)
			default:
				want = append(want, idx)
			}
		}
		got := s.GetSelection("A")
		assert.ElementsMatch(t, want, got, "trial %d: removed %d from %v", trial, removed, selected)

		for _, idx := range got {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, length-1)
		}
	}
}

func TestSetCurveDataTrimsStaleSelection(t *testing.T) {
	s := newTestStore(t)
	s.SetCurveData("A", testPoints(5))
	s.SelectAll("A")

	var pointEvents []PointSelectionChangedEvent
	s.Events().SubscribePointSelectionChanged(func(ev PointSelectionChangedEvent) {
		pointEvents = append(pointEvents, ev)
	})

	// Shrinking the curve drops selection indices that no longer fit.
	s.SetCurveData("A", testPoints(2))
	assert.Equal(t, []int{0, 1}, s.GetSelection("A"))
	require.Len(t, pointEvents, 1)
	assert.Equal(t, []int{0, 1}, pointEvents[0].Indices)
}

func TestClearPointSelection(t *testing.T) {
	s := newTestStore(t)
	s.SetCurveData("A", testPoints(3))
	s.SelectAll("A")
	require.Equal(t, []int{0, 1, 2}, s.GetSelection("A"))

	s.ClearPointSelection("A")
	assert.Empty(t, s.GetSelection("A"))

	// Clearing an empty selection emits nothing.
	var events int
	s.Events().SubscribePointSelectionChanged(func(PointSelectionChangedEvent) { events++ })
	s.ClearPointSelection("A")
	assert.Equal(t, 0, events)
}

func TestCurveMetadata(t *testing.T) {
	s := newTestStore(t)
	s.SetCurveData("A", testPoints(1))

	meta, ok := s.GetMetadata("A")
	require.True(t, ok)
	assert.True(t, meta.Visible)
	assert.Empty(t, meta.Color)

	var visEvents []VisibilityChangedEvent
	s.Events().SubscribeVisibilityChanged(func(ev VisibilityChangedEvent) {
		visEvents = append(visEvents, ev)
	})

	require.True(t, s.SetCurveVisible("A", false))
	require.True(t, s.SetCurveVisible("A", false)) // redundant, no event
	require.True(t, s.SetCurveColor("A", "#ff8800"))

	meta, _ = s.GetMetadata("A")
	assert.False(t, meta.Visible)
	assert.Equal(t, "#ff8800", meta.Color)
	require.Len(t, visEvents, 1)
	assert.False(t, visEvents[0].Visible)

	assert.False(t, s.SetCurveVisible("missing", true))
	_, ok = s.GetMetadata("missing")
	assert.False(t, ok)
}

func TestCurveNames(t *testing.T) {
	s := newTestStore(t)
	s.SetCurveData("Zulu", testPoints(1))
	s.SetCurveData("Alpha", testPoints(1))
	s.SetCurveData("Mike", testPoints(1))

	assert.Equal(t, []string{"Alpha", "Mike", "Zulu"}, s.CurveNames())
}
