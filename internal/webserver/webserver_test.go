package webserver

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/nantokaworks/spinwheel/internal/env"
	"github.com/nantokaworks/spinwheel/internal/localdb"
	"github.com/nantokaworks/spinwheel/internal/show"
	"github.com/nantokaworks/spinwheel/internal/winnerhub"
)

// setupTestServer builds a fresh mux with its own state and database.
func setupTestServer(t *testing.T) *http.ServeMux {
	t.Helper()

	if localdb.DBClient != nil {
		localdb.DBClient.Close()
		localdb.DBClient = nil
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if _, err := localdb.SetupDB(dbPath); err != nil {
		t.Fatalf("failed to setup test db: %v", err)
	}
	t.Cleanup(func() {
		if localdb.DBClient != nil {
			localdb.DBClient.Close()
			localdb.DBClient = nil
		}
	})

	savedEnv := env.Value
	t.Cleanup(func() { env.Value = savedEnv })
	env.Value.APIToken = ""
	env.Value.CORSOrigin = "*"

	hub := winnerhub.NewHub()
	SetWinnerFeed(hub)
	SetShowManager(show.NewManager(hub, true))

	return newMux()
}
