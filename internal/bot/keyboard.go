package bot

import (
	"fmt"
	"strings"

	"refpoints-bot/internal/ledger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BOT KEYBOARDS

var serviceEmoji = map[string]string{
	ledger.ServiceViews:     "📌",
	ledger.ServiceReactions: "🎉",
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 Services", CallbackShowServices),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Referral Link", CallbackShowReferral),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", CallbackHelp),
		),
	)
}

func servicesKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(ledger.Services)+2)
	for _, svc := range ledger.Services {
		label := fmt.Sprintf("%s %s (Cost: %d %s)", serviceEmoji[svc.Key], svc.Name, svc.Cost, pluralPoints(svc.Cost))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(strings.TrimSpace(label), CallbackOrderPrefix+svc.Key),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", CallbackBackToStart)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❓ Help", CallbackHelp)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", CallbackBackToStart),
		),
	)
}

func (b *Bot) joinChannelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✅ Join Channel", ChannelURL(b.cfg.ChannelUsername)),
		),
	)
}
