package localdb

import (
	"database/sql"
	"time"

	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"go.uber.org/zap"
)

// WinnerHistory is one archived spin result.
type WinnerHistory struct {
	ID         int64     `json:"id"`
	Hero       string    `json:"hero"`
	UserName   string    `json:"userName"`
	SessionID  string    `json:"sessionId"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// SetupWinnerHistoryTable creates the winner_history table.
func SetupWinnerHistoryTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS winner_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hero TEXT NOT NULL,
		user_name TEXT DEFAULT '',
		session_id TEXT DEFAULT '',
		received_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create winner_history table", zap.Error(err))
		return err
	}
	return nil
}

// SaveWinnerHistory appends one archived result.
func SaveWinnerHistory(entry WinnerHistory) error {
	db := GetDB()
	if db == nil {
		return sql.ErrConnDone
	}

	_, err := db.Exec(`INSERT INTO winner_history (hero, user_name, session_id, received_at)
		VALUES (?, ?, ?, ?)`,
		entry.Hero, entry.UserName, entry.SessionID, entry.ReceivedAt)
	if err != nil {
		logger.Error("Failed to save winner history",
			zap.String("hero", entry.Hero),
			zap.Error(err))
		return err
	}

	return nil
}

// GetWinnerHistory returns archived results, newest first. limit <= 0
// returns everything.
func GetWinnerHistory(limit int) ([]WinnerHistory, error) {
	db := GetDB()
	if db == nil {
		return nil, sql.ErrConnDone
	}

	query := `SELECT id, hero, user_name, session_id, received_at
		FROM winner_history ORDER BY received_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		logger.Error("Failed to query winner history", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := []WinnerHistory{}
	for rows.Next() {
		var entry WinnerHistory
		if err := rows.Scan(&entry.ID, &entry.Hero, &entry.UserName, &entry.SessionID, &entry.ReceivedAt); err != nil {
			logger.Error("Failed to scan winner history row", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
