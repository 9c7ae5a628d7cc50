package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcurve/internal/curve"
)

func TestNew(t *testing.T) {
	w, err := New(t.TempDir(), 100*time.Millisecond, func(e Event) {})
	require.NoError(t, err)
	defer w.Close()
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/that/does/not/exist", 100*time.Millisecond, func(e Event) {})
	assert.Error(t, err)
}

func TestWatcherReportsTrackFiles(t *testing.T) {
	tmpDir := t.TempDir()

	var mu sync.Mutex
	var events []Event
	w, err := New(tmpDir, 50*time.Millisecond, func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start())

	// Non-track files are ignored entirely.
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644))
	trackPath := filepath.Join(tmpDir, "GateL.track.json")
	require.NoError(t, os.WriteFile(trackPath, []byte("[]"), 0644))

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no event for track file")
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, e := range events {
		assert.Equal(t, trackPath, e.Path)
	}
}

func TestWatcherStartTwice(t *testing.T) {
	w, err := New(t.TempDir(), 50*time.Millisecond, func(Event) {})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start())
	assert.Error(t, w.Start())
}

func TestCurveName(t *testing.T) {
	assert.Equal(t, "GateL", CurveName("/data/GateL.track.json"))
	assert.Equal(t, "p.01", CurveName("p.01.track.json"))
	assert.True(t, IsTrackFile("/data/GateL.track.json"))
	assert.False(t, IsTrackFile("/data/GateL.json"))
}

func TestLoadTrackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GateL.track.json")
	content := `[
		{"frame": 1, "x": 100.5, "y": 200.0, "status": "KEYFRAME"},
		{"frame": 2, "x": 101.0, "y": 201.5, "status": "TRACKED"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	points, err := LoadTrackFile(path)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, curve.Point{Frame: 1, X: 100.5, Y: 200.0, Status: curve.StatusKeyframe}, points[0])
	assert.Equal(t, curve.StatusTracked, points[1].Status)
}

func TestLoadTrackFileErrors(t *testing.T) {
	_, err := LoadTrackFile(filepath.Join(t.TempDir(), "missing.track.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.track.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadTrackFile(bad)
	assert.Error(t, err)
}
