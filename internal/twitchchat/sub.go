package twitchchat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/joeyak/go-twitch-eventsub/v3"
	"github.com/nantokaworks/spinwheel/internal/env"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/show"
	"github.com/nantokaworks/spinwheel/internal/twitchtoken"
	"go.uber.org/zap"
)

var (
	client      *twitch.Client
	showManager *show.Manager
	isRunning   bool
	isConnected bool
	lastError   error
)

// SetShowManager wires the show state owner into the chat intake.
// Must be called before Start.
func SetShowManager(m *show.Manager) {
	showManager = m
}

// Start starts the EventSub client
func Start() error {
	if isRunning {
		return nil
	}

	token, valid, err := twitchtoken.GetLatestToken()
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	if token.AccessToken == "" {
		return fmt.Errorf("no access token available")
	}

	// トークンの有効期限をチェック
	if !valid {
		logger.Info("Token expired or about to expire, refreshing...")
		if err := token.RefreshTwitchToken(); err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		token, _, err = twitchtoken.GetLatestToken()
		if err != nil {
			return fmt.Errorf("failed to get refreshed token: %w", err)
		}
		logger.Info("Token refreshed successfully")
	} else {
		// 期限が30分以内の場合も事前にリフレッシュ
		now := time.Now().Unix()
		timeUntilExpiry := token.ExpiresAt - now
		if timeUntilExpiry <= 30*60 {
			logger.Info("Token expires in less than 30 minutes, refreshing proactively...",
				zap.Int64("seconds_until_expiry", timeUntilExpiry))
			if err := token.RefreshTwitchToken(); err != nil {
				logger.Warn("Failed to refresh token proactively", zap.Error(err))
			} else if refreshed, _, err := twitchtoken.GetLatestToken(); err == nil {
				token = refreshed
				logger.Info("Token refreshed proactively")
			}
		}
	}

	SetupEventSub(&token)

	if client != nil {
		go func() {
			logger.Info("Connecting to EventSub...")
			if err := client.Connect(); err != nil {
				logger.Error("Failed to connect EventSub", zap.Error(err))
				lastError = err
				isConnected = false
			}
		}()
		isRunning = true
	}

	return nil
}

// Stop stops the EventSub client
func Stop() {
	if client != nil && isRunning {
		client.Close()
		isRunning = false
		isConnected = false
	}
}

// IsConnected returns whether EventSub is connected
func IsConnected() bool {
	return isConnected
}

// GetLastError returns the last EventSub error
func GetLastError() error {
	return lastError
}

func SetupEventSub(token *twitchtoken.Token) {
	client = twitch.NewClient()

	client.OnError(func(err error) {
		logger.Error("EventSub error", zap.Error(err))
		lastError = err
		isConnected = false
	})
	client.OnWelcome(func(message twitch.WelcomeMessage) {
		logger.Info("EventSub connected successfully")
		isConnected = true
		lastError = nil

		events := []twitch.EventSubscription{
			twitch.SubChannelChatMessage,
			twitch.SubChannelFollow,
		}

		for _, event := range events {
			logger.Info("Subscribing to EventSub event", zap.String("event", string(event)))

			_, err := twitch.SubscribeEvent(twitch.SubscribeRequest{
				SessionID:   message.Payload.Session.ID,
				ClientID:    env.Value.ClientID,
				AccessToken: token.AccessToken,
				Event:       event,
				Condition: map[string]string{
					"broadcaster_user_id": env.Value.TwitchUserID,
					"moderator_user_id":   env.Value.TwitchUserID,
					"user_id":             env.Value.TwitchUserID,
				},
			})
			if err != nil {
				logger.Error("Failed to subscribe to event",
					zap.String("event", string(event)),
					zap.Error(err))
				// エラーが発生しても他のイベントのサブスクリプションを続ける
				continue
			}
			logger.Info("Successfully subscribed to event", zap.String("event", string(event)))
		}
	})
	client.OnNotification(func(message twitch.NotificationMessage) {
		logger.Debug("Received EventSub notification",
			zap.String("type", string(message.Payload.Subscription.Type)))

		switch message.Payload.Subscription.Type {

		case twitch.SubChannelChatMessage:
			var evt twitch.EventChannelChatMessage
			if err := json.Unmarshal(*message.Payload.Event, &evt); err != nil {
				logger.Error("Failed to parse channel chat message event", zap.Error(err))
			} else {
				HandleChannelChatMessage(evt)
			}

		case twitch.SubChannelFollow:
			var evt twitch.EventChannelFollow
			if err := json.Unmarshal(*message.Payload.Event, &evt); err != nil {
				logger.Error("Failed to parse follow event", zap.Error(err))
			} else {
				HandleChannelFollow(evt)
			}
		}
	})
	client.OnKeepAlive(func(message twitch.KeepAliveMessage) {
		logger.Debug("EventSub keepalive")
	})
	client.OnRevoke(func(message twitch.RevokeMessage) {
		logger.Warn("EventSub subscription revoked",
			zap.String("type", string(message.Payload.Subscription.Type)))
	})
}
