package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var DBClient *sql.DB

// SetupDB opens the local database and creates the schema. The core
// session/queue/eligibility state is memory-only; the database holds
// operational settings, OAuth tokens and the winner history log.
func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WAL mode and a busy timeout keep concurrent readers from tripping
	// over the single writer.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)

	DBClient = db

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		id INTEGER PRIMARY KEY,
		access_token TEXT,
		refresh_token TEXT,
		scope TEXT,
		expires_at INTEGER
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		description TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO settings (key, value, description) VALUES
		('SPIN_ENABLED', 'true', 'Whether chat spin requests are accepted'),
		('SPIN_COMMAND', '!spin', 'Chat command that requests a spin')`)
	if err != nil {
		logger.Error("Failed to insert default settings", zap.Error(err))
		return nil, fmt.Errorf("failed to insert default settings: %w", err)
	}

	if err := SetupWinnerHistoryTable(db); err != nil {
		return nil, err
	}

	return db, nil
}

// GetDB returns the current database handle, or nil before SetupDB.
func GetDB() *sql.DB {
	return DBClient
}
