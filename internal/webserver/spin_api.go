package webserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nantokaworks/spinwheel/internal/localdb"
	"github.com/nantokaworks/spinwheel/internal/settings"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"go.uber.org/zap"
)

// RegisterSpinRoutes はスピン関連のルートを登録
func RegisterSpinRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/spin/enabled", corsMiddleware(handleSpinEnabled))
	mux.HandleFunc("/api/spin/eligibility", corsMiddleware(handleSpinEligibility))
	mux.HandleFunc("/api/spin/attempt", corsMiddleware(requireToken(handleSpinAttempt)))
	mux.HandleFunc("/api/spin/follow", corsMiddleware(requireToken(handleSpinFollow)))
}

// handleSpinEnabled reads (GET) or flips (POST) the feature flag
func handleSpinEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{
			"spinEnabled": showManager.SpinEnabled(),
		})

	case http.MethodPost:
		requireToken(handleSetSpinEnabled)(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleSetSpinEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SpinEnabled *bool `json:"spinEnabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SpinEnabled == nil {
		http.Error(w, "spinEnabled is required", http.StatusBadRequest)
		return
	}

	showManager.SetSpinEnabled(*req.SpinEnabled)

	// フラグは再起動をまたいで維持する
	if db := localdb.GetDB(); db != nil {
		settingsManager := settings.NewSettingsManager(db)
		if err := settingsManager.SetBool("SPIN_ENABLED", *req.SpinEnabled); err != nil {
			logger.Warn("Failed to persist spin flag", zap.Error(err))
		}
	}

	logger.Info("Spin flag changed", zap.Bool("spin_enabled", *req.SpinEnabled))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{
		"spinEnabled": *req.SpinEnabled,
	})
}

// handleSpinEligibility evaluates a user without consuming anything
func handleSpinEligibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userName := strings.TrimSpace(r.URL.Query().Get("userName"))

	result, session := showManager.Eligibility(userName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"allowed":   result.Allowed,
		"reason":    result.Reason,
		"sessionId": session.ID,
		"startedAt": session.StartedAt,
	})
}

func handleSpinAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserName string `json:"userName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := showManager.Attempt(req.UserName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func handleSpinFollow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserName string `json:"userName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserName) == "" {
		http.Error(w, "userName is required", http.StatusBadRequest)
		return
	}

	showManager.RegisterFollow(req.UserName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
