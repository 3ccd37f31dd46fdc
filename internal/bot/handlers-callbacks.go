package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	if b.isBanned(userID) {
		b.editMessage(chatID, messageID, msgBannedShort, nil, "")
		return
	}

	data := callback.Data
	switch {
	case data == CallbackShowServices:
		markup := servicesKeyboard()
		b.editMessage(chatID, messageID, msgSelectService, &markup, "")

	case data == CallbackShowReferral:
		markup := backKeyboard()
		b.editMessage(chatID, messageID,
			fmt.Sprintf("🔗 Your Referral Link:\n%s", b.referralLink(userID)),
			&markup, "")

	case data == CallbackHelp:
		markup := backKeyboard()
		b.editMessage(chatID, messageID, b.helpText(userID), &markup, tgbotapi.ModeHTML)

	case data == CallbackBackToStart:
		markup := mainMenuKeyboard()
		text := b.welcomeText(callback.From.FirstName, b.ledger.Points(userID), userID)
		b.editMessage(chatID, messageID, text, &markup, "")

	case strings.HasPrefix(data, CallbackOrderPrefix):
		b.handleOrderCallback(ctx, callback, strings.TrimPrefix(data, CallbackOrderPrefix))

	default:
		b.editMessage(chatID, messageID, msgUnknownAction, nil, "")
	}
}
