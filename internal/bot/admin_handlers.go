package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"refpoints-bot/internal/export"
	"refpoints-bot/internal/ledger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message, cmd string, args []string) {
	chatID := msg.Chat.ID

	if !b.isAdmin(msg.From.ID) {
		// ban, unban and genredeem stay silent for regular users
		switch cmd {
		case "admin", "broadcast", "export":
			b.sendText(chatID, msgNotAdmin)
		}
		return
	}

	switch cmd {
	case "admin":
		b.handleAdminPanel(ctx, chatID)
	case "ban":
		b.handleBan(ctx, chatID, args)
	case "unban":
		b.handleUnban(ctx, chatID, args)
	case "genredeem":
		b.handleGenerateRedeem(ctx, chatID, args)
	case "broadcast":
		b.handleBroadcast(ctx, msg)
	case "export":
		b.handleExportOrders(ctx, chatID)
	}
}

func (b *Bot) handleAdminPanel(ctx context.Context, chatID int64) {
	stats := b.ledger.Stats()
	b.sendText(chatID, fmt.Sprintf(
		"🛠️ Admin Panel:\n"+
			"👤 Total Users: %d\n"+
			"🚫 Banned: %d\n"+
			"📦 Total Orders: %d\n"+
			"🎟️ Active Codes: %d",
		stats.TotalUsers,
		stats.Banned,
		stats.TotalOrders,
		stats.ActiveCodes,
	))
}

func (b *Bot) handleBan(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		b.sendText(chatID, "Use: /ban <user_id>")
		return
	}
	userID, err := ParseUserID(args[0])
	if err != nil {
		b.sendText(chatID, msgInvalidUserID)
		return
	}

	b.ledger.Ban(userID)
	if err := b.state.Clear(ctx, userID); err != nil {
		b.logger.Warn("Failed to clear state of banned user",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}

	b.logger.Info("User banned", zap.Int64("user_id", userID))
	b.sendText(chatID, fmt.Sprintf("✅ Banned user %d.", userID))
}

func (b *Bot) handleUnban(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		b.sendText(chatID, "Use: /unban <user_id>")
		return
	}
	userID, err := ParseUserID(args[0])
	if err != nil {
		b.sendText(chatID, msgInvalidUserID)
		return
	}

	b.ledger.Unban(userID)
	b.logger.Info("User unbanned", zap.Int64("user_id", userID))
	b.sendText(chatID, fmt.Sprintf("✅ Unbanned user %d.", userID))
}

// handleGenerateRedeem accepts "<code> <points>" or just "<points>" for a generated code.
func (b *Bot) handleGenerateRedeem(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 && len(args) != 2 {
		b.sendText(chatID, "Use: /genredeem <code> <points>")
		return
	}

	points, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		b.sendText(chatID, "Points must be a number.")
		return
	}

	var code string
	if len(args) == 2 {
		code = args[0]
		err = b.ledger.CreateCode(code, points)
	} else {
		code, err = b.ledger.GenerateCode(points)
	}
	if errors.Is(err, ledger.ErrInvalidPoints) {
		b.sendText(chatID, "Points must be a positive number.")
		return
	}
	if errors.Is(err, ledger.ErrPointsTooLarge) {
		b.sendText(chatID, fmt.Sprintf("Points must not exceed %d.", ledger.MaxCodePoints))
		return
	}
	if err != nil {
		b.logger.Error("Failed to create redeem code", zap.Error(err))
		b.sendError(chatID, "Failed to create redeem code.")
		return
	}

	b.logger.Info("Redeem code created",
		zap.String("code", code),
		zap.Int("points", points))
	b.sendText(chatID, fmt.Sprintf("✅ Redeem code %s for %d points created.", code, points))
}

func (b *Bot) handleExportOrders(ctx context.Context, chatID int64) {
	orders := b.ledger.AllOrders()
	if len(orders) == 0 {
		b.sendText(chatID, "📦 No orders yet.")
		return
	}

	data, err := export.OrdersWorkbook(orders)
	if err != nil {
		b.logger.Error("Failed to export orders", zap.Error(err))
		b.sendError(chatID, "Failed to export orders")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102_1504")),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("📊 Orders export (%d)", len(orders))

	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("Failed to send Excel file", zap.Error(err))
		b.sendError(chatID, "Failed to send exported file")
	}
}
