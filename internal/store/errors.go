// internal/store/errors.go
package store

import "errors"

var (
	// ErrUnknownCurve is returned by operations that require the named
	// curve to exist.
	ErrUnknownCurve = errors.New("unknown curve")

	// ErrInvalidIndex is returned when a point index is out of range for
	// the curve it targets. Expected index races (a UI acting on a point
	// that was just deleted) surface as a false result instead.
	ErrInvalidIndex = errors.New("point index out of range")
)
