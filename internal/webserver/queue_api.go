package webserver

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RegisterQueueRoutes はスピン待機列のルートを登録
func RegisterQueueRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/queue/enqueue", corsMiddleware(requireToken(handleQueueEnqueue)))
	mux.HandleFunc("/api/queue/state", corsMiddleware(handleQueueState))
	mux.HandleFunc("/api/queue/next", corsMiddleware(requireToken(handleQueueNext)))
	mux.HandleFunc("/api/queue/complete", corsMiddleware(requireToken(handleQueueComplete)))
}

func handleQueueEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserName  string `json:"userName"`
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserName) == "" {
		http.Error(w, "userName is required", http.StatusBadRequest)
		return
	}

	result := showManager.Enqueue(req.UserName, req.MessageID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func handleQueueState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(showManager.QueueState())
}

// handleQueueNext promotes the head of the waiting line. Idempotent while
// an item is already active.
func handleQueueNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(showManager.PromoteNext())
}

func handleQueueComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	// Stale ids are ignored rather than treated as errors; the display's
	// view of the queue may lag the server's.
	cleared := showManager.Complete(req.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cleared": cleared,
		"state":   showManager.QueueState(),
	})
}
