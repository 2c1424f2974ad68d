package localdb

import (
	"database/sql"
	"fmt"
)

// Token is a stored Twitch OAuth token.
type Token struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    int64
}

// SaveToken replaces the stored token. Only one token row is kept.
func SaveToken(t Token) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`INSERT OR REPLACE INTO tokens (id, access_token, refresh_token, scope, expires_at)
		VALUES (1, ?, ?, ?, ?)`,
		t.AccessToken, t.RefreshToken, t.Scope, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetLatestToken returns the stored token. sql.ErrNoRows means no token
// has been saved yet.
func GetLatestToken() (Token, error) {
	db := GetDB()
	if db == nil {
		return Token{}, fmt.Errorf("database not initialized")
	}

	var t Token
	err := db.QueryRow(`SELECT access_token, refresh_token, scope, expires_at FROM tokens WHERE id = 1`).
		Scan(&t.AccessToken, &t.RefreshToken, &t.Scope, &t.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Token{}, err
		}
		return Token{}, fmt.Errorf("failed to load token: %w", err)
	}
	return t, nil
}

// DeleteAllTokens removes any stored token. Used when OAuth scopes change
// and re-authentication is required.
func DeleteAllTokens() error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if _, err := db.Exec(`DELETE FROM tokens`); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}
