// internal/database/db.go
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"matchcurve/internal/curve"
)

// Session state keys.
const (
	keySelectedCurves = "selected_curves"
	keyShowAll        = "show_all_curves"
	keyActiveCurve    = "active_curve"
	keyCurrentFrame   = "current_frame"
)

// Database persists session state and curve snapshots in SQLite. Point
// data is stored as zstd-compressed JSON blobs; session fields live in a
// key/value table so partial sessions (selection saved before any curve
// data) load cleanly.
type Database struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Snapshot is one persisted curve.
type Snapshot struct {
	Metadata curve.Metadata
	Points   []curve.Point
}

// Open creates or opens the session database at the given path.
func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	d := &Database{db: db, encoder: encoder, decoder: decoder}
	if err := d.init(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// init creates the database schema.
func (d *Database) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS curve_snapshots (
		name TEXT PRIMARY KEY,
		metadata TEXT NOT NULL,
		points BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// SaveSessionState saves or updates one session field.
func (d *Database) SaveSessionState(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

// GetSessionState retrieves one session field, empty when unset.
func (d *Database) GetSessionState(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SaveSelectedCurves persists the curve-level selection set.
func (d *Database) SaveSelectedCurves(names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return d.SaveSessionState(keySelectedCurves, string(data))
}

// LoadSelectedCurves returns the persisted selection, nil when unset.
func (d *Database) LoadSelectedCurves() ([]string, error) {
	raw, err := d.GetSessionState(keySelectedCurves)
	if err != nil || raw == "" {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("parse selected curves: %w", err)
	}
	return names, nil
}

// SaveShowAll persists the show-all flag.
func (d *Database) SaveShowAll(flag bool) error {
	return d.SaveSessionState(keyShowAll, strconv.FormatBool(flag))
}

// LoadShowAll returns the persisted show-all flag, false when unset.
func (d *Database) LoadShowAll() (bool, error) {
	raw, err := d.GetSessionState(keyShowAll)
	if err != nil || raw == "" {
		return false, err
	}
	return strconv.ParseBool(raw)
}

// SaveActiveCurve persists the active curve name.
func (d *Database) SaveActiveCurve(name string) error {
	return d.SaveSessionState(keyActiveCurve, name)
}

// LoadActiveCurve returns the persisted active curve, empty when unset.
func (d *Database) LoadActiveCurve() (string, error) {
	return d.GetSessionState(keyActiveCurve)
}

// SaveCurrentFrame persists the scrub position.
func (d *Database) SaveCurrentFrame(frame int) error {
	return d.SaveSessionState(keyCurrentFrame, strconv.Itoa(frame))
}

// LoadCurrentFrame returns the persisted scrub position, 1 when unset.
func (d *Database) LoadCurrentFrame() (int, error) {
	raw, err := d.GetSessionState(keyCurrentFrame)
	if err != nil || raw == "" {
		return 1, err
	}
	frame, err := strconv.Atoi(raw)
	if err != nil {
		return 1, fmt.Errorf("parse current frame: %w", err)
	}
	if frame < 1 {
		frame = 1
	}
	return frame, nil
}

// SaveCurveSnapshot upserts one curve's points and metadata.
func (d *Database) SaveCurveSnapshot(name string, meta curve.Metadata, points []curve.Point) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	pointsJSON, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}
	compressed := d.encoder.EncodeAll(pointsJSON, nil)

	_, err = d.db.Exec(`
		INSERT INTO curve_snapshots (name, metadata, points, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			metadata = excluded.metadata,
			points = excluded.points,
			updated_at = CURRENT_TIMESTAMP`,
		name, string(metaJSON), compressed)
	return err
}

// LoadCurveSnapshots returns every persisted curve keyed by name.
func (d *Database) LoadCurveSnapshots() (map[string]Snapshot, error) {
	rows, err := d.db.Query(`SELECT name, metadata, points FROM curve_snapshots`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Snapshot)
	for rows.Next() {
		var name, metaJSON string
		var blob []byte
		if err := rows.Scan(&name, &metaJSON, &blob); err != nil {
			return nil, err
		}

		var snap Snapshot
		if err := json.Unmarshal([]byte(metaJSON), &snap.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata for %q: %w", name, err)
		}
		pointsJSON, err := d.decoder.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress points for %q: %w", name, err)
		}
		if err := json.Unmarshal(pointsJSON, &snap.Points); err != nil {
			return nil, fmt.Errorf("parse points for %q: %w", name, err)
		}
		out[name] = snap
	}
	return out, rows.Err()
}

// DeleteCurveSnapshot removes one persisted curve.
func (d *Database) DeleteCurveSnapshot(name string) error {
	_, err := d.db.Exec(`DELETE FROM curve_snapshots WHERE name = ?`, name)
	return err
}

// Close closes the underlying database.
func (d *Database) Close() error {
	d.encoder.Close()
	d.decoder.Close()
	return d.db.Close()
}
