package webserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nantokaworks/spinwheel/internal/env"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/show"
	"github.com/nantokaworks/spinwheel/internal/version"
	"go.uber.org/zap"
)

var (
	httpServer  *http.Server
	showManager *show.Manager
)

// SetShowManager wires the show state owner into the HTTP handlers.
// Must be called before StartWebServer.
func SetShowManager(m *show.Manager) {
	showManager = m
}

// corsMiddleware adds CORS headers to HTTP handlers
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := env.Value.CORSOrigin
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

// requireToken rejects requests whose X-Api-Token header does not match
// the configured secret. An empty secret leaves the endpoint open.
func requireToken(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := env.Value.APIToken
		if token == "" {
			handler(w, r)
			return
		}

		got := r.Header.Get("X-Api-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn("Rejected request with bad API token",
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		handler(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":      true,
		"version": version.String(),
	})
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", corsMiddleware(handleHealth))

	RegisterWinnerRoutes(mux)
	RegisterSpinRoutes(mux)
	RegisterQueueRoutes(mux)
	RegisterStreamRoutes(mux)
	RegisterChatRoutes(mux)
	RegisterWebSocketRoute(mux)

	// OAuth endpoints
	mux.HandleFunc("/auth", handleAuth)
	mux.HandleFunc("/callback", handleCallback)

	return mux
}

func StartWebServer(port int) error {
	mux := newMux()

	addr := fmt.Sprintf(":%d", port)

	// 起動メッセージを表示（logger出力の前に）
	fmt.Println("")
	fmt.Println("====================================================")
	fmt.Printf("🎡 スピンホイールサーバーが起動しました\n")
	fmt.Printf("📡 アクセスURL:\n")
	fmt.Printf("   API:        http://localhost:%d/api/\n", port)
	fmt.Printf("   Winner SSE: http://localhost:%d/api/winner/stream\n", port)
	fmt.Printf("   WebSocket:  ws://localhost:%d/ws\n", port)
	fmt.Printf("\n")
	fmt.Printf("🔧 環境変数 SERVER_PORT で変更可能\n")
	fmt.Println("====================================================")
	fmt.Println("")

	logger.Info("Starting web server", zap.String("address", addr))

	httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// SSEとWebSocketは長時間接続なのでWriteTimeoutは設定しない
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine and wait briefly to check for immediate errors
	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	// Wait briefly to catch immediate binding errors
	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("Failed to start web server", zap.Error(err))
			return fmt.Errorf("failed to start web server on port %d: %w", port, err)
		}
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	return nil
}

// Shutdown gracefully shuts down the web server
func Shutdown() {
	if httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown web server gracefully", zap.Error(err))
	} else {
		logger.Info("Web server shutdown complete")
	}
}
