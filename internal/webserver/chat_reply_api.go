package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/twitchapi"
	"go.uber.org/zap"
)

// RegisterChatRoutes はチャット返信リレーのルートを登録
func RegisterChatRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/chat/reply", corsMiddleware(requireToken(handleChatReply)))
}

type chatReplyRequest struct {
	UserName string `json:"userName"`
	Hero     string `json:"hero"`
	Message  string `json:"message"`
	ReplyTo  string `json:"replyTo"`
}

// handleChatReply relays a notification message to chat. This is a
// notify-only sink: delivery failure never affects show state.
func handleChatReply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		// widgetは message を省略して hero/userName だけ送ってくる
		if strings.TrimSpace(req.Hero) == "" {
			http.Error(w, "message or hero is required", http.StatusBadRequest)
			return
		}
		message = fmt.Sprintf("🎉 %s さん、「%s」が当たりました！", req.UserName, req.Hero)
	}

	if err := twitchapi.SendChatMessage(message, req.ReplyTo); err != nil {
		logger.Warn("Failed to relay chat reply",
			zap.String("user_name", req.UserName),
			zap.Error(err))
		http.Error(w, "Failed to send chat message", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
