// internal/database/db_test.go
package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcurve/internal/curve"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_Open(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "session.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestDatabase_SessionStateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	// Unset fields come back as zero values, not errors.
	names, err := db.LoadSelectedCurves()
	require.NoError(t, err)
	assert.Nil(t, names)

	showAll, err := db.LoadShowAll()
	require.NoError(t, err)
	assert.False(t, showAll)

	frame, err := db.LoadCurrentFrame()
	require.NoError(t, err)
	assert.Equal(t, 1, frame)

	require.NoError(t, db.SaveSelectedCurves([]string{"GateL", "GateR"}))
	require.NoError(t, db.SaveShowAll(true))
	require.NoError(t, db.SaveActiveCurve("GateL"))
	require.NoError(t, db.SaveCurrentFrame(120))

	names, err = db.LoadSelectedCurves()
	require.NoError(t, err)
	assert.Equal(t, []string{"GateL", "GateR"}, names)

	showAll, err = db.LoadShowAll()
	require.NoError(t, err)
	assert.True(t, showAll)

	active, err := db.LoadActiveCurve()
	require.NoError(t, err)
	assert.Equal(t, "GateL", active)

	frame, err = db.LoadCurrentFrame()
	require.NoError(t, err)
	assert.Equal(t, 120, frame)

	// Overwrites replace, not append.
	require.NoError(t, db.SaveSelectedCurves([]string{"GateR"}))
	names, err = db.LoadSelectedCurves()
	require.NoError(t, err)
	assert.Equal(t, []string{"GateR"}, names)
}

func TestDatabase_SelectionBeforeCurveData(t *testing.T) {
	db := openTestDB(t)

	// A session can hold a selection for curves that were never saved.
	require.NoError(t, db.SaveSelectedCurves([]string{"Ghost"}))

	snapshots, err := db.LoadCurveSnapshots()
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	names, err := db.LoadSelectedCurves()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ghost"}, names)
}

func TestDatabase_CurveSnapshots(t *testing.T) {
	db := openTestDB(t)

	points := []curve.Point{
		{Frame: 1, X: 100.5, Y: 200.25, Status: curve.StatusKeyframe},
		{Frame: 2, X: 101.0, Y: 201.0, Status: curve.StatusTracked},
	}
	meta := curve.Metadata{Visible: true, Color: "#ff0000"}

	require.NoError(t, db.SaveCurveSnapshot("GateL", meta, points))

	snapshots, err := db.LoadCurveSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, meta, snapshots["GateL"].Metadata)
	assert.Equal(t, points, snapshots["GateL"].Points)

	// Upsert replaces the previous snapshot.
	require.NoError(t, db.SaveCurveSnapshot("GateL", meta.WithVisible(false), points[:1]))
	snapshots, err = db.LoadCurveSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.False(t, snapshots["GateL"].Metadata.Visible)
	assert.Len(t, snapshots["GateL"].Points, 1)

	require.NoError(t, db.DeleteCurveSnapshot("GateL"))
	snapshots, err = db.LoadCurveSnapshots()
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}
