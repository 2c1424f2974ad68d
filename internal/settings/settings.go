package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Setting is one persisted operational setting.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingsManager reads and writes operational settings in the local
// database. Settings survive restarts; core show state does not.
type SettingsManager struct {
	db *sql.DB
}

func NewSettingsManager(db *sql.DB) *SettingsManager {
	return &SettingsManager{db: db}
}

// GetSetting returns the stored value for key, or "" when unset.
func (m *SettingsManager) GetSetting(key string) (string, error) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key.
func (m *SettingsManager) SetSetting(key, value string) error {
	_, err := m.db.Exec(`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// GetBool parses the stored value as a boolean, returning fallback when
// the setting is unset or malformed.
func (m *SettingsManager) GetBool(key string, fallback bool) bool {
	value, err := m.GetSetting(key)
	if err != nil || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// SetBool stores a boolean under key.
func (m *SettingsManager) SetBool(key string, value bool) error {
	return m.SetSetting(key, strconv.FormatBool(value))
}
