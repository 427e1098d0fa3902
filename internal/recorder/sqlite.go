package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists render history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL: the API reads while renders are written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS renders (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			requested   TEXT,
			symbol      TEXT NOT NULL,
			points      INTEGER,
			days        INTEGER,
			segments    INTEGER,
			labels      INTEGER,
			direction   TEXT,
			last_close  REAL,
			ref_close   REAL,
			path        TEXT,
			duration_ms INTEGER,
			warning     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_renders_ts ON renders(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_renders_symbol ON renders(symbol)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT,
			stage     TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordRender(evt *RenderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO renders
		(timestamp, requested, symbol, points, days, segments, labels,
		 direction, last_close, ref_close, path, duration_ms, warning)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		unix(evt.Time), evt.Requested, evt.Symbol, evt.Points, evt.Days, evt.Segments, evt.Labels,
		evt.Direction, evt.LastClose, evt.RefClose, evt.Path, evt.Duration.Milliseconds(), evt.Warning,
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(evt *FailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO failures (timestamp, symbol, stage, error) VALUES (?,?,?,?)`,
		unix(evt.Time), evt.Symbol, evt.Stage, evt.Error,
	)
	return err
}

// Recent returns the latest renders, newest first.
func (r *SQLiteRecorder) Recent(limit int) ([]RenderEvent, error) {
	rows, err := r.db.Query(`SELECT timestamp, requested, symbol, points, days, segments, labels,
		direction, last_close, ref_close, path, duration_ms, warning
		FROM renders ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	var events []RenderEvent
	for rows.Next() {
		var (
			e      RenderEvent
			ts, ms int64
		)
		if err := rows.Scan(&ts, &e.Requested, &e.Symbol, &e.Points, &e.Days, &e.Segments, &e.Labels,
			&e.Direction, &e.LastClose, &e.RefClose, &e.Path, &ms, &e.Warning); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		e.Time = time.Unix(ts, 0)
		e.Duration = time.Duration(ms) * time.Millisecond
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
