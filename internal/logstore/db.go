// Package logstore is the SQLite-backed structured-log, screenshot, and
// chain-yield store (§4.5, §6.3). One database lives at
// "<project_data>/skein.db" per project.
package logstore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var baseSchema string

//go:embed migrations/001_add_yields.sql
var migration001 string

// DB wraps the structured-log database for one project.
type DB struct {
	conn *sql.DB
}

// Open creates (if necessary) and migrates the database at path, matching
// the connection-pool and WAL settings of teacher internal/memory/db.go's
// NewMemoryDB, generalized from a single memory store to the log/
// screenshot/yield schema of §4.5.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open log store: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate log store: %w", err)
	}
	return db, nil
}

func (d *DB) migrate() error {
	if _, err := d.conn.Exec(baseSchema); err != nil {
		return fmt.Errorf("failed to execute base schema: %w", err)
	}

	var version int
	err := d.conn.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if version < 2 {
		log.Println("[MIGRATION] running migration to v2: add yields table")
		if _, err := d.conn.Exec(migration001); err != nil {
			return fmt.Errorf("failed to run migration 001: %w", err)
		}
		if _, err := d.conn.Exec("INSERT INTO schema_version (version) VALUES (2)"); err != nil {
			return fmt.Errorf("failed to record schema version 2: %w", err)
		}
		log.Println("[MIGRATION] successfully migrated to schema v2")
	}

	return nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
