// Package sqlitesink stores corpus tables in a SQLite database. Every write
// is one run with its own id; the variable column set of a run is recorded
// next to its rows, which are kept as JSON objects.
package sqlitesink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eyelog/eyelog-go/pkg/eyelog"
	"github.com/eyelog/eyelog-go/pkg/eyelog/table"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source     TEXT NOT NULL,
	trials     INTEGER NOT NULL,
	stats_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS columns (
	run_id   TEXT NOT NULL REFERENCES runs(run_id),
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	kind     TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

-- trialid has no declared type so integer and text ids keep their type.
CREATE TABLE IF NOT EXISTS trials (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	row       INTEGER NOT NULL,
	trialid,
	path      TEXT NOT NULL,
	data_json TEXT NOT NULL,
	PRIMARY KEY (run_id, row)
);
CREATE INDEX IF NOT EXISTS idx_trials_path ON trials(run_id, path);
`

// Run describes one write.
type Run struct {
	// Source is the data folder or file list the table came from.
	Source string
	Stats  eyelog.Stats
}

// Row is one stored trial.
type Row struct {
	TrialID any
	Path    string
	Data    json.RawMessage
}

// Sink is an open database.
type Sink struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the database at path and its schema.
func Open(ctx context.Context, path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Sink{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *Sink) Path() string { return s.path }

// Close closes the database.
func (s *Sink) Close() error { return s.db.Close() }

// Write stores t as a new run and returns the run id. Nothing is stored if
// any row fails.
func (s *Sink) Write(ctx context.Context, t *table.Table, run Run) (runID string, err error) {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	runID = uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, source, trials, stats_json) VALUES (?, ?, ?, ?, ?)`,
		runID, s.now().UTC().Format(time.RFC3339Nano), run.Source, t.Len(), string(stats),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, c := range t.Columns() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO columns (run_id, position, name, kind) VALUES (?, ?, ?, ?)`,
			runID, i, c.Name, c.Kind.String(),
		); err != nil {
			return "", fmt.Errorf("failed to insert column %q: %w", c.Name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trials (run_id, row, trialid, path, data_json) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		data, err := t.MarshalRow(i)
		if err != nil {
			return "", fmt.Errorf("row %d: %w", i, err)
		}
		id, _ := t.Cell(i, eyelog.ColTrialID)
		path, _ := t.Cell(i, eyelog.ColPath)
		p, _ := path.(string)
		if _, err := stmt.ExecContext(ctx, runID, i, table.JSONValue(id), p, string(data)); err != nil {
			return "", fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return runID, nil
}

// ErrRunNotFound is returned by Columns and Rows for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Columns returns the columns of a run in table order.
func (s *Sink) Columns(ctx context.Context, runID string) ([]table.Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, kind FROM columns WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []table.Column
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, err
		}
		c := table.Column{Name: name, Kind: table.Scalar}
		if kind == table.Series.String() {
			c.Kind = table.Series
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cols == nil {
		if ok, err := s.hasRun(ctx, runID); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrRunNotFound
		}
	}
	return cols, nil
}

// Rows returns the stored trials of a run in table order.
func (s *Sink) Rows(ctx context.Context, runID string) ([]Row, error) {
	ok, err := s.hasRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT trialid, path, data_json FROM trials WHERE run_id = ? ORDER BY row`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var data string
		if err := rows.Scan(&r.TrialID, &r.Path, &data); err != nil {
			return nil, err
		}
		r.Data = json.RawMessage(data)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Sink) hasRun(ctx context.Context, runID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n)
	return n > 0, err
}
