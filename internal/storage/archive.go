// Package storage is the durable audit trail for finished runs. The run
// registry stays authoritative and process-local; the archive only records
// terminal run records so they survive restarts for inspection.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	endpoint     TEXT NOT NULL,
	status       TEXT NOT NULL,
	submitted_at TEXT NOT NULL,
	record       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_endpoint ON runs(endpoint);
`

// Archive persists run records as JSON rows keyed by run id.
type Archive struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the archive database at path.
func Open(path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Save upserts a terminal run record.
func (a *Archive) Save(runID, endpoint, status, submittedAt string, record []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.db.Exec(
		`INSERT INTO runs (run_id, endpoint, status, submitted_at, record)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET status=excluded.status, record=excluded.record`,
		runID, endpoint, status, submittedAt, record,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}
	return nil
}

// Load returns the stored record for runID, or (nil, false) when absent.
func (a *Archive) Load(runID string) ([]byte, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var record []byte
	err := a.db.QueryRow(`SELECT record FROM runs WHERE run_id = ?`, runID).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load run %s: %w", runID, err)
	}
	return record, true, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}
