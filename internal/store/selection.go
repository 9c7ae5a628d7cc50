// internal/store/selection.go
package store

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// DisplayMode describes which curves the canvas should render. It is
// derived from the selection inputs on every read and is never stored.
type DisplayMode int

const (
	DisplayAllVisible DisplayMode = iota
	DisplaySelected
	DisplayActiveOnly
)

func (m DisplayMode) String() string {
	switch m {
	case DisplayAllVisible:
		return "ALL_VISIBLE"
	case DisplaySelected:
		return "SELECTED"
	case DisplayActiveOnly:
		return "ACTIVE_ONLY"
	}
	return "UNKNOWN"
}

// selectionPolicy owns the two curve-level selection inputs. Selecting a
// curve name that has no data yet is allowed so a saved session can be
// restored before its curves load; the mismatch is logged, never rejected.
type selectionPolicy struct {
	log      *logrus.Entry
	curves   *curveStore
	selected map[string]struct{}
	showAll  bool
}

func newSelectionPolicy(log *logrus.Entry, curves *curveStore) *selectionPolicy {
	return &selectionPolicy{
		log:      log,
		curves:   curves,
		selected: make(map[string]struct{}),
	}
}

// setSelectedCurves replaces the selected-curve set. Returns false when
// the new set equals the current one, which suppresses the notification.
func (p *selectionPolicy) setSelectedCurves(names []string) (changed bool) {
	next := make(map[string]struct{}, len(names))
	for _, name := range names {
		next[name] = struct{}{}
		if !p.curves.has(name) {
			p.log.WithField("curve", name).Warn("selected curve has no data yet")
		}
	}
	if nameSetsEqual(p.selected, next) {
		return false
	}
	p.selected = next
	return true
}

// setShowAll replaces the show-all flag, false when redundant.
func (p *selectionPolicy) setShowAll(flag bool) (changed bool) {
	if p.showAll == flag {
		return false
	}
	p.showAll = flag
	return true
}

// displayMode computes the derived mode from the current inputs. It is
// correct at any instant, including between mutations of an open batch.
func (p *selectionPolicy) displayMode() DisplayMode {
	switch {
	case p.showAll:
		return DisplayAllVisible
	case len(p.selected) > 0:
		return DisplaySelected
	default:
		return DisplayActiveOnly
	}
}

// selectedCurves returns the selected set as a sorted copy.
func (p *selectionPolicy) selectedCurves() []string {
	out := make([]string, 0, len(p.selected))
	for name := range p.selected {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (p *selectionPolicy) isSelected(name string) bool {
	_, ok := p.selected[name]
	return ok
}

func (p *selectionPolicy) clear() {
	p.selected = make(map[string]struct{})
	p.showAll = false
}

func nameSetsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return true
}
