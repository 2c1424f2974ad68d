package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"go.uber.org/zap"
)

// RegisterStreamRoutes は配信セッション関連のルートを登録
func RegisterStreamRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stream/state", corsMiddleware(handleStreamState))
	mux.HandleFunc("/api/stream/reset", corsMiddleware(requireToken(handleStreamReset)))
}

func handleStreamState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(showManager.StreamState())
}

// handleStreamReset starts a fresh session, wiping all eligibility state
func handleStreamReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := showManager.ResetSession()

	logger.Info("Session reset", zap.String("session_id", session.ID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}
