package bot

import (
	"context"
	"errors"
	"fmt"

	"refpoints-bot/internal/ledger"
	"refpoints-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleOrderCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, serviceKey string) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	if _, ok := ledger.LookupService(serviceKey); !ok {
		b.editMessage(chatID, messageID, msgUnknownService, nil, "")
		return
	}

	b.ledger.EnsureUser(userID)
	affordable, err := b.ledger.CanAfford(userID, serviceKey)
	if err != nil {
		b.logger.Error("Failed to check balance",
			zap.Int64("user_id", userID),
			zap.String("service", serviceKey),
			zap.Error(err))
		b.editMessage(chatID, messageID, msgUnknownService, nil, "")
		return
	}
	if !affordable {
		b.editMessage(chatID, messageID, msgNotEnoughPts, nil, "")
		return
	}

	state := storage.UserState{Step: StepAwaitingLink, Service: serviceKey}
	if err := b.state.Save(ctx, userID, state); err != nil {
		b.logger.Error("Failed to set awaiting link state",
			zap.Int64("user_id", userID),
			zap.Error(err))
		b.editMessage(chatID, messageID, "❌ Something went wrong, please try again.", nil, "")
		return
	}

	b.editMessage(chatID, messageID, msgSendLink, nil, "")
}

// handleLink completes a purchase started from the services menu.
func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message, state storage.UserState) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	link, ok := NormalizeLink(msg.Text)
	if !ok {
		b.sendError(chatID, "Please send a valid post link, for example https://t.me/channel/123")
		return
	}

	if err := b.state.Clear(ctx, userID); err != nil {
		b.logger.Error("Failed to clear user state",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}

	order, balance, err := b.ledger.Purchase(userID, state.Service, link)
	switch {
	case errors.Is(err, ledger.ErrInsufficientPoints):
		b.sendText(chatID, msgNotEnoughPts)
		return
	case errors.Is(err, ledger.ErrUnknownService):
		b.sendText(chatID, msgUnknownService)
		return
	case err != nil:
		b.logger.Error("Failed to place order",
			zap.Int64("user_id", userID),
			zap.String("service", state.Service),
			zap.Error(err))
		b.sendError(chatID, "Failed to place the order.")
		return
	}

	svc, _ := ledger.LookupService(order.Service)
	b.metrics.OrdersTotal.WithLabelValues(svc.Key).Inc()
	b.logger.Info("Order placed",
		zap.Int64("user_id", userID),
		zap.String("order_id", order.ID),
		zap.String("service", svc.Key),
		zap.Int("balance", balance))

	b.sendText(chatID, fmt.Sprintf("✅ Your order for %s has been received!", svc.Name))
	b.NotifyNewOrderToChannel(ctx, userID, order)
}
