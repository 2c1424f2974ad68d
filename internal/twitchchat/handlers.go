package twitchchat

import (
	"fmt"
	"strings"

	"github.com/joeyak/go-twitch-eventsub/v3"
	"github.com/nantokaworks/spinwheel/internal/env"
	"github.com/nantokaworks/spinwheel/internal/localdb"
	"github.com/nantokaworks/spinwheel/internal/settings"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/twitchapi"
	"go.uber.org/zap"
)

// spinCommand returns the chat trigger, preferring the settings table
// over the environment default.
func spinCommand() string {
	if db := localdb.GetDB(); db != nil {
		settingsManager := settings.NewSettingsManager(db)
		if cmd, err := settingsManager.GetSetting("SPIN_COMMAND"); err == nil && cmd != "" {
			return cmd
		}
	}
	if env.Value.SpinCommand != "" {
		return env.Value.SpinCommand
	}
	return "!spin"
}

// HandleChannelChatMessage parses chat for the spin trigger and feeds the
// request into the queue. Every outcome is answered in chat.
func HandleChannelChatMessage(message twitch.EventChannelChatMessage) {
	text := strings.TrimSpace(message.Message.Text)
	if !strings.EqualFold(text, spinCommand()) {
		return
	}

	userName := message.Chatter.ChatterUserName
	messageID := message.MessageId

	result := showManager.Enqueue(userName, messageID)

	logger.Info("Spin request from chat",
		zap.String("user_name", userName),
		zap.Bool("queued", result.Queued),
		zap.String("reason", result.Reason))

	reply := replyText(userName, result.Queued, result.Reason, result.QueuePosition)
	if reply == "" {
		return
	}
	if err := twitchapi.SendChatMessage(reply, messageID); err != nil {
		// 返信失敗はキュー状態に影響しない
		logger.Warn("Failed to reply in chat",
			zap.String("user_name", userName),
			zap.Error(err))
	}
}

// HandleChannelFollow records the follow so a spent first spin can unlock
// the bonus attempt.
func HandleChannelFollow(message twitch.EventChannelFollow) {
	userName := message.User.UserName

	showManager.RegisterFollow(userName)

	logger.Info("Follow registered", zap.String("user_name", userName))
}

func replyText(userName string, queued bool, reason string, position int) string {
	if queued {
		if position > 1 {
			return fmt.Sprintf("@%s スピン予約を受け付けました！順番は %d 番目です 🎡", userName, position)
		}
		return fmt.Sprintf("@%s スピンの順番が来ました！ルーレットに注目 🎡", userName)
	}

	switch reason {
	case "feature-disabled":
		return fmt.Sprintf("@%s いまはスピンの受付を停止しています 🙏", userName)
	case "already-queued", "already-active":
		return fmt.Sprintf("@%s すでにスピン待ちです、もう少々お待ちください！", userName)
	case "follow-required":
		return fmt.Sprintf("@%s スピンは1回までです。フォローするともう1回スピンできます ✨", userName)
	case "limit-reached":
		return fmt.Sprintf("@%s 今日のスピンは使い切りました。また次の配信で！", userName)
	default:
		return fmt.Sprintf("@%s スピンできませんでした (%s)", userName, reason)
	}
}
