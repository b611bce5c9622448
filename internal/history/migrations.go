package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents one database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
}

// migrations is the ordered list of all schema migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
	},
	{
		Version:     2,
		Description: "Create runs table",
		Up:          migration002Up,
	},
	{
		Version:     3,
		Description: "Create task_events table",
		Up:          migration003Up,
	},
	{
		Version:     4,
		Description: "Create captcha_solves table",
		Up:          migration004Up,
	},
}

// runMigrations applies all pending migrations in order
func (s *Store) runMigrations() error {
	currentVersion, err := s.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		err := s.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}
			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())
			return err
		})
		if err != nil {
			return err
		}

		s.logger.InfoWithFields("Migration applied",
			map[string]interface{}{"version": migration.Version, "description": migration.Description})
	}
	return nil
}

// getCurrentVersion returns the applied schema version, 0 for a fresh file
func (s *Store) getCurrentVersion() (int, error) {
	var tableCount int
	err := s.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableCount)
	if err != nil {
		return 0, err
	}
	if tableCount == 0 {
		return 0, nil
	}

	var version sql.NullInt64
	err = s.conn.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP NOT NULL,
			stopped_at TIMESTAMP,
			mode TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT 'running'
		)
	`)
	return err
}

func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS task_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			task TEXT NOT NULL,
			state TEXT NOT NULL,
			detail TEXT,
			observed_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_task_events_observed
		ON task_events(observed_at)
	`)
	return err
}

func migration004Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS captcha_solves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			expression TEXT,
			answer INTEGER,
			solved BOOLEAN NOT NULL,
			solved_at TIMESTAMP NOT NULL
		)
	`)
	return err
}
