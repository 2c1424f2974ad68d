package webserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/twitchtoken"
	"go.uber.org/zap"
)

// handleAuth redirects to the Twitch OAuth authorization page
func handleAuth(w http.ResponseWriter, r *http.Request) {
	authURL := twitchtoken.GetAuthURL()
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback handles OAuth callback
func handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "code not found", http.StatusBadRequest)
		return
	}

	// Get token from Twitch
	result, err := twitchtoken.GetTwitchToken(code)
	if err != nil {
		logger.Error("Failed to exchange OAuth code", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Process expires_in
	expiresInFloat, ok := result["expires_in"].(float64)
	if !ok {
		http.Error(w, "invalid expires_in", http.StatusInternalServerError)
		return
	}
	expiresAtNew := time.Now().Unix() + int64(expiresInFloat)
	newToken := twitchtoken.Token{
		AccessToken:  result["access_token"].(string),
		RefreshToken: result["refresh_token"].(string),
		Scope:        result["scope"].(string),
		ExpiresAt:    expiresAtNew,
	}
	if err := newToken.SaveToken(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Twitch OAuth token saved")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>認証成功 - Spin Wheel</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background-color: #0e0e10;
            color: #efeff1;
        }
        .container { text-align: center; }
        h1 { color: #9147ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✅ 認証成功</h1>
        <p>Twitchとの連携が完了しました。このウィンドウは閉じて構いません。</p>
    </div>
</body>
</html>`)
}
