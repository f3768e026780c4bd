// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"

	"github.com/karavela/qasweep/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Schema for the run history tables. Applied by Open.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL UNIQUE,
	website TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	pages INTEGER NOT NULL,
	tested INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	broken_links INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	raw BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_website ON runs(website);

CREATE TABLE IF NOT EXISTS run_pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	url TEXT NOT NULL,
	tested INTEGER NOT NULL,
	changed INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	nav_load_ms INTEGER NOT NULL,
	slow_load INTEGER NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(run_id)
);
CREATE INDEX IF NOT EXISTS idx_run_pages_run ON run_pages(run_id);
`

// RunRecord is a persisted run summary row.
type RunRecord struct {
	RunID       string
	Website     string
	StartedAt   time.Time
	Duration    time.Duration
	Pages       int
	Tested      int
	Failed      int
	Skipped     int
	BrokenLinks int
	Warnings    int
}

// PageRecord is a persisted per-page summary row.
type PageRecord struct {
	URL       string
	Tested    int
	Changed   int
	Failed    int
	NavLoadMs int64
	SlowLoad  bool
}

// Store persists sweep run summaries to an embedded SQLite database so that
// runs against the same site can be compared over time.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path and applies
// the schema. The parent directory is created on demand.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// SQLite handles one writer at a time; keep the pool honest about it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun records the run and its per-page summaries in one transaction. The
// full result is stored as JSON so reports can be regenerated later.
func (s *Store) SaveRun(ctx context.Context, run *schemas.SweepResult) error {
	summary := run.Summary()

	raw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("history: encode run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, website, started_at, duration_ms, pages, tested, failed, skipped, broken_links, warnings, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Website, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(),
		len(run.Pages), summary.TotalTested, summary.Failed, summary.Skipped,
		len(run.BrokenLinks), len(run.Warnings), raw)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_pages
		(run_id, url, tested, changed, failed, nav_load_ms, slow_load)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare page insert: %w", err)
	}
	defer stmt.Close()

	for i := range run.Pages {
		page := &run.Pages[i]
		slow := 0
		if page.SlowLoad {
			slow = 1
		}
		_, err := stmt.ExecContext(ctx, run.RunID, page.URL,
			page.Tested(), page.Changed(), page.Failed(), page.NavLoadMs, slow)
		if err != nil {
			return fmt.Errorf("history: insert page %s: %w", page.URL, err)
		}
	}

	return tx.Commit()
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, website, started_at, duration_ms, pages, tested, failed, skipped, broken_links, warnings
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedMs, durationMs int64
		if err := rows.Scan(&rec.RunID, &rec.Website, &startedMs, &durationMs,
			&rec.Pages, &rec.Tested, &rec.Failed, &rec.Skipped,
			&rec.BrokenLinks, &rec.Warnings); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMs).UTC()
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Run loads one stored run in full, for report regeneration. An empty runID
// loads the most recent run.
func (s *Store) Run(ctx context.Context, runID string) (*schemas.SweepResult, error) {
	var (
		raw []byte
		err error
	)
	if runID == "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT raw FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&raw)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT raw FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history: no run with id %q", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("history: load run: %w", err)
	}

	var run schemas.SweepResult
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("history: decode run %q: %w", runID, err)
	}
	return &run, nil
}

// PagesFor returns the per-page summaries stored for a run.
func (s *Store) PagesFor(ctx context.Context, runID string) ([]PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, tested, changed, failed, nav_load_ms, slow_load
		FROM run_pages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query pages: %w", err)
	}
	defer rows.Close()

	var records []PageRecord
	for rows.Next() {
		var rec PageRecord
		var slow int
		if err := rows.Scan(&rec.URL, &rec.Tested, &rec.Changed, &rec.Failed, &rec.NavLoadMs, &slow); err != nil {
			return nil, fmt.Errorf("history: scan page: %w", err)
		}
		rec.SlowLoad = slow != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}
