package localdb

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	if DBClient != nil {
		_ = DBClient.Close()
		DBClient = nil
	}

	dbPath := filepath.Join(t.TempDir(), "local.db")
	db, err := SetupDB(dbPath)
	if err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		DBClient = nil
	})
}

func TestWinnerHistory_SaveAndQuery(t *testing.T) {
	setupTestDB(t)

	now := time.Now()
	if err := SaveWinnerHistory(WinnerHistory{
		Hero:       "IRON MAN",
		UserName:   "alice",
		SessionID:  "100",
		ReceivedAt: now.Add(-1 * time.Minute),
	}); err != nil {
		t.Fatalf("SaveWinnerHistory first failed: %v", err)
	}

	if err := SaveWinnerHistory(WinnerHistory{
		Hero:       "STORM",
		UserName:   "bob",
		SessionID:  "100",
		ReceivedAt: now,
	}); err != nil {
		t.Fatalf("SaveWinnerHistory second failed: %v", err)
	}

	latest, err := GetWinnerHistory(1)
	if err != nil {
		t.Fatalf("GetWinnerHistory(limit=1) failed: %v", err)
	}
	if len(latest) != 1 {
		t.Fatalf("unexpected history length for limit=1: got=%d want=1", len(latest))
	}
	if latest[0].Hero != "STORM" {
		t.Fatalf("history order mismatch: got=%q want=%q", latest[0].Hero, "STORM")
	}

	all, err := GetWinnerHistory(0)
	if err != nil {
		t.Fatalf("GetWinnerHistory(limit=0) failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unexpected full history length: got=%d want=2", len(all))
	}
	if all[1].UserName != "alice" {
		t.Fatalf("oldest entry mismatch: got=%q want=%q", all[1].UserName, "alice")
	}
}

func TestTokens_SaveAndLoad(t *testing.T) {
	setupTestDB(t)

	if _, err := GetLatestToken(); err == nil {
		t.Fatalf("expected error when no token is stored")
	}

	saved := Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Scope:        "user:read:chat",
		ExpiresAt:    time.Now().Unix() + 3600,
	}
	if err := SaveToken(saved); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	loaded, err := GetLatestToken()
	if err != nil {
		t.Fatalf("GetLatestToken failed: %v", err)
	}
	if loaded != saved {
		t.Fatalf("token roundtrip mismatch: got=%+v want=%+v", loaded, saved)
	}

	if err := DeleteAllTokens(); err != nil {
		t.Fatalf("DeleteAllTokens failed: %v", err)
	}
	if _, err := GetLatestToken(); err == nil {
		t.Fatalf("expected error after deleting tokens")
	}
}
