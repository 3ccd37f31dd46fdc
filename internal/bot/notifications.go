package bot

import (
	"context"
	"fmt"

	"refpoints-bot/internal/ledger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) notifyReferrer(ctx context.Context, referrerID int64, firstName string) {
	text := fmt.Sprintf("🎉 You earned %d points for referring %s!", b.ledger.PointsPerRefer(), firstName)
	if _, err := b.api.Send(tgbotapi.NewMessage(referrerID, text)); err != nil {
		b.logger.Warn("Failed to notify referrer",
			zap.Int64("referrer_id", referrerID),
			zap.Error(err))
	}
}

// NotifyNewOrderToChannel posts a short order summary to the log channel.
func (b *Bot) NotifyNewOrderToChannel(ctx context.Context, userID int64, order ledger.Order) {
	if b.cfg.LogChannelID == 0 {
		b.logger.Warn("Channel notifications disabled - no channel ID configured")
		return
	}

	svc, _ := ledger.LookupService(order.Service)
	text := fmt.Sprintf(
		"🆕 New Free Service Order\n"+
			"👤 User: %d\n"+
			"🛠️ Service: %s\n"+
			"🔗 Link: %s",
		userID, svc.Name, order.Link,
	)

	msg := tgbotapi.NewMessage(b.cfg.LogChannelID, text)
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send channel notification",
			zap.String("order_id", order.ID),
			zap.Int64("channel_id", b.cfg.LogChannelID),
			zap.Error(err))
	}
}
