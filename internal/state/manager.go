package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DBFileName is the history database inside the state directory
const DBFileName = "treemirror.db"

// Run statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Manager handles execution history
type Manager struct {
	db *sql.DB
}

// ExecutionRecord represents one job within a run
// Jobs run by the same apply invocation share a RunID
type ExecutionRecord struct {
	ID        int64
	RunID     string
	JobName   string
	StartTime time.Time
	EndTime   time.Time
	Status    string
	Installed int
	Protected int
	Missing   int
	Backups   int
	Bytes     int64
	Error     string
}

// Duration returns how long the job took
func (r ExecutionRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// NewManager opens or creates the history database in dataDir
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids "database is locked"
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		job_name TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		installed INTEGER DEFAULT 0,
		protected INTEGER DEFAULT 0,
		missing INTEGER DEFAULT 0,
		backups INTEGER DEFAULT 0,
		bytes INTEGER DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_executions_job_time ON executions(job_name, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_executions_run ON executions(run_id);
	`

	_, err := m.db.Exec(schema)
	return err
}

const selectColumns = `SELECT id, run_id, job_name, start_time, end_time, status,
	installed, protected, missing, backups, bytes, error FROM executions`

// SaveExecution records one job execution and returns its row id
// An empty RunID is filled with a new one
func (m *Manager) SaveExecution(record *ExecutionRecord) error {
	switch record.Status {
	case StatusSuccess, StatusFailed, StatusSkipped:
	default:
		return fmt.Errorf("invalid status: %s (must be 'success', 'failed', or 'skipped')", record.Status)
	}
	if record.JobName == "" {
		return fmt.Errorf("job name cannot be empty")
	}
	if record.RunID == "" {
		record.RunID = NewRunID()
	}

	res, err := m.db.Exec(`
		INSERT INTO executions (run_id, job_name, start_time, end_time, status, installed, protected, missing, backups, bytes, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.JobName,
		record.StartTime,
		record.EndTime,
		record.Status,
		record.Installed,
		record.Protected,
		record.Missing,
		record.Backups,
		record.Bytes,
		record.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution record: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

// GetHistory retrieves the newest executions of one job
func (m *Manager) GetHistory(jobName string, limit int) ([]ExecutionRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(selectColumns+` WHERE job_name = ? ORDER BY start_time DESC, id DESC LIMIT ?`, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanRecords(rows)
}

// GetAllHistory retrieves the newest executions across all jobs
func (m *Manager) GetAllHistory(limit int) ([]ExecutionRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(selectColumns+` ORDER BY start_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query all history: %w", err)
	}
	return scanRecords(rows)
}

// GetRun returns every job record of one run in execution order
func (m *Manager) GetRun(runID string) ([]ExecutionRecord, error) {
	rows, err := m.db.Query(selectColumns+` WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return scanRecords(rows)
}

// GetLastSuccess retrieves the last successful execution of a job, or nil
func (m *Manager) GetLastSuccess(jobName string) (*ExecutionRecord, error) {
	row := m.db.QueryRow(selectColumns+` WHERE job_name = ? AND status = ? ORDER BY start_time DESC, id DESC LIMIT 1`, jobName, StatusSuccess)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last success: %w", err)
	}
	return &record, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (ExecutionRecord, error) {
	var r ExecutionRecord
	err := s.Scan(
		&r.ID,
		&r.RunID,
		&r.JobName,
		&r.StartTime,
		&r.EndTime,
		&r.Status,
		&r.Installed,
		&r.Protected,
		&r.Missing,
		&r.Backups,
		&r.Bytes,
		&r.Error,
	)
	return r, err
}

func scanRecords(rows *sql.Rows) ([]ExecutionRecord, error) {
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
