package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kellerith/rox-farm-go/internal/logging"
)

// Store wraps the SQLite run-history database
type Store struct {
	conn   *sql.DB
	path   string
	logger *logging.Logger

	runID int64
}

// Open opens or creates the history database and applies pending
// migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	// SQLite works best with a single connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	s := &Store{
		conn:   conn,
		path:   dbPath,
		logger: logging.NewLogger("history"),
	}
	if err := s.runMigrations(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// ExecTx executes a function within a transaction
func (s *Store) ExecTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Run is one engine session
type Run struct {
	ID        int64
	StartedAt time.Time
	StoppedAt *time.Time
	Mode      string
	Outcome   string
}

// TaskEvent is one recorded per-poll observation or action
type TaskEvent struct {
	ID         int64
	RunID      int64
	Task       string
	State      string
	Detail     string
	ObservedAt time.Time
}

// CaptchaSolve is one recorded CAPTCHA attempt
type CaptchaSolve struct {
	ID         int64
	RunID      int64
	Expression string
	Answer     int
	Solved     bool
	SolvedAt   time.Time
}

// StartRun opens a new run row; subsequent records attach to it
func (s *Store) StartRun(mode string) error {
	result, err := s.conn.Exec(`
		INSERT INTO runs (started_at, mode, outcome)
		VALUES (?, ?, 'running')
	`, time.Now(), mode)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	s.runID, err = result.LastInsertId()
	return err
}

// FinishRun closes the current run with an outcome
func (s *Store) FinishRun(outcome string) error {
	if s.runID == 0 {
		return nil
	}
	_, err := s.conn.Exec(`
		UPDATE runs SET stopped_at = ?, outcome = ? WHERE id = ?
	`, time.Now(), outcome, s.runID)
	return err
}

// RecordTaskEvent stores one task observation. Failures are logged and
// swallowed so history never stalls the loop.
func (s *Store) RecordTaskEvent(task, state, detail string) {
	_, err := s.conn.Exec(`
		INSERT INTO task_events (run_id, task, state, detail, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.runID, task, state, detail, time.Now())
	if err != nil {
		s.logger.WarnWithFields("Task event not recorded",
			map[string]interface{}{"task": task, "error": err.Error()})
	}
}

// RecordCaptcha stores one CAPTCHA attempt
func (s *Store) RecordCaptcha(expression string, answer int, solved bool) {
	_, err := s.conn.Exec(`
		INSERT INTO captcha_solves (run_id, expression, answer, solved, solved_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.runID, expression, answer, solved, time.Now())
	if err != nil {
		s.logger.WarnWithFields("Captcha solve not recorded",
			map[string]interface{}{"error": err.Error()})
	}
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.conn.Query(`
		SELECT id, started_at, stopped_at, mode, outcome
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.StoppedAt, &r.Mode, &r.Outcome); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecentTaskEvents returns the latest task events, newest first
func (s *Store) RecentTaskEvents(limit int) ([]TaskEvent, error) {
	rows, err := s.conn.Query(`
		SELECT id, run_id, task, state, detail, observed_at
		FROM task_events ORDER BY observed_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TaskEvent
	for rows.Next() {
		var e TaskEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Task, &e.State, &e.Detail, &e.ObservedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CaptchaStats returns total and solved counts for the current run
func (s *Store) CaptchaStats() (total, solved int, err error) {
	err = s.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(solved), 0)
		FROM captcha_solves WHERE run_id = ?
	`, s.runID).Scan(&total, &solved)
	return total, solved, err
}
