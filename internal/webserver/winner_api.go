package webserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/nantokaworks/spinwheel/internal/localdb"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/winnerhub"
	"go.uber.org/zap"
)

var winnerFeed *winnerhub.Hub

// SetWinnerFeed wires the broadcast hub into the push endpoints.
// Must be called before StartWebServer.
func SetWinnerFeed(h *winnerhub.Hub) {
	winnerFeed = h
}

// RegisterWinnerRoutes は当選者関連のルートを登録
func RegisterWinnerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/winner", corsMiddleware(handleWinner))
	mux.HandleFunc("/api/winner/stream", corsMiddleware(handleWinnerStream))
	mux.HandleFunc("/api/winner/history", corsMiddleware(handleWinnerHistory))
}

type reportWinnerRequest struct {
	Hero     string `json:"hero"`
	UserName string `json:"userName"`
}

// handleWinner returns the latest winner (GET) or reports a new one (POST)
func handleWinner(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		latest := showManager.LatestWinner()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"winner": latest,
		})

	case http.MethodPost:
		requireToken(handleReportWinner)(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleReportWinner(w http.ResponseWriter, r *http.Request) {
	var req reportWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Hero) == "" {
		http.Error(w, "hero is required", http.StatusBadRequest)
		return
	}

	record := showManager.ReportWinner(req.Hero, req.UserName)
	session := showManager.CurrentSession()

	// 履歴はあくまで監査ログ。保存失敗でもレスポンスは成功のまま
	if err := localdb.SaveWinnerHistory(localdb.WinnerHistory{
		Hero:       record.Hero,
		UserName:   record.UserName,
		SessionID:  session.ID,
		ReceivedAt: record.ReceivedAt,
	}); err != nil {
		logger.Warn("Failed to archive winner", zap.Error(err))
	}

	logger.Info("Winner reported",
		zap.String("hero", record.Hero),
		zap.String("user_name", record.UserName))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"winner": record,
	})
}

// handleWinnerStream streams winner updates over SSE. The latest winner
// (if any) is delivered on connect, then every publish while connected.
func handleWinnerStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := winnerFeed.Subscribe()
	defer winnerFeed.Unsubscribe(sub)

	// 接続確認コメント
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	logger.Debug("SSE subscriber connected", zap.String("remote", r.RemoteAddr))

	for {
		select {
		case record, ok := <-sub.C:
			if !ok {
				// Dropped by the hub as a slow consumer.
				return
			}
			data, err := json.Marshal(record)
			if err != nil {
				logger.Error("Failed to marshal winner for SSE", zap.Error(err))
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			logger.Debug("SSE subscriber disconnected", zap.String("remote", r.RemoteAddr))
			return
		}
	}
}

// handleWinnerHistory returns archived winners, newest first
func handleWinnerHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history, err := localdb.GetWinnerHistory(limit)
	if err != nil {
		logger.Error("Failed to load winner history", zap.Error(err))
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"history": history,
		"count":   len(history),
	})
}
