package twitchapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nantokaworks/spinwheel/internal/env"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/twitchtoken"
	"go.uber.org/zap"
)

// makeAuthenticatedGetRequest performs a Helix GET with the stored token,
// refreshing it first when expired.
func makeAuthenticatedGetRequest(reqURL string) (*http.Response, error) {
	token, valid, err := twitchtoken.GetOrRefreshToken()
	if err != nil || !valid {
		return nil, fmt.Errorf("no valid token available: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Client-Id", env.Value.ClientID)

	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

// SendChatMessage posts a message to the broadcaster's chat. replyToID
// may be empty for a plain (non-reply) message.
func SendChatMessage(message, replyToID string) error {
	token, valid, err := twitchtoken.GetOrRefreshToken()
	if err != nil || !valid {
		return fmt.Errorf("no valid token available: %w", err)
	}

	body := map[string]interface{}{
		"broadcaster_id": env.Value.TwitchUserID,
		"sender_id":      env.Value.TwitchUserID,
		"message":        message,
	}
	if replyToID != "" {
		body["reply_parent_message_id"] = replyToID
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.twitch.tv/helix/chat/messages", bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Client-Id", env.Value.ClientID)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logger.Error("Twitch API returned error for chat message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(bodyBytes)))
		return fmt.Errorf("twitch API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	logger.Debug("Chat message sent", zap.String("reply_to", replyToID))
	return nil
}

// GetUserDisplayName resolves a user's display name from their login.
func GetUserDisplayName(login string) (string, error) {
	reqURL := fmt.Sprintf("https://api.twitch.tv/helix/users?login=%s", login)

	resp, err := makeAuthenticatedGetRequest(reqURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Data) == 0 {
		return "", fmt.Errorf("user not found")
	}

	return result.Data[0].DisplayName, nil
}
