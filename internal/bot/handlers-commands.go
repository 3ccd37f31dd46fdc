package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"refpoints-bot/internal/ledger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var knownCommands = map[string]bool{
	"start": true, "services": true, "refer": true, "points": true,
	"myorders": true, "redeem": true, "help": true, "admin": true,
	"ban": true, "unban": true, "genredeem": true, "broadcast": true,
	"export": true,
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	args := strings.Fields(msg.CommandArguments())

	label := command
	if !knownCommands[command] {
		label = "unknown"
	}
	b.metrics.CommandsTotal.WithLabelValues(label).Inc()

	switch command {
	case "start":
		b.handleStart(ctx, msg, args)
	case "services":
		b.handleServices(ctx, msg.Chat.ID)
	case "refer":
		b.handleRefer(ctx, msg)
	case "points":
		b.handlePoints(ctx, msg)
	case "myorders":
		b.handleMyOrders(ctx, msg)
	case "redeem":
		b.handleRedeem(ctx, msg, args)
	case "help":
		b.handleHelp(ctx, msg)
	case "admin", "ban", "unban", "genredeem", "broadcast", "export":
		b.handleAdminCommand(ctx, msg, command, args)
	default:
		b.handleUnknownCommand(ctx, msg.Chat.ID)
	}
}

func (b *Bot) handleDefault(ctx context.Context, chatID int64) {
	b.sendText(chatID, "Use /services to pick a free service or /help to see all commands.")
}

func (b *Bot) handleUnknownCommand(ctx context.Context, chatID int64) {
	b.sendError(chatID, "Unknown command. Use /help to see what I can do.")
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, args []string) {
	user := msg.From
	chatID := msg.Chat.ID

	var referrerID *int64
	if len(args) > 0 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			referrerID = &id
		}
	}

	res := b.ledger.Register(user.ID, user.FirstName, referrerID)
	if res.Created {
		b.logger.Info("New user registered",
			zap.Int64("user_id", user.ID),
			zap.Bool("referred", res.Credited))
	}
	if res.Credited {
		b.metrics.ReferralsTotal.Inc()
		b.notifyReferrer(ctx, res.ReferrerID, user.FirstName)
	}

	if !b.hasJoinedChannel(user.ID) {
		prompt := tgbotapi.NewMessage(chatID, msgJoinChannel)
		prompt.ReplyMarkup = b.joinChannelKeyboard()
		b.sendMessage(prompt)
		return
	}

	reply := tgbotapi.NewMessage(chatID, b.welcomeText(user.FirstName, res.Points, user.ID))
	reply.ReplyMarkup = mainMenuKeyboard()
	b.sendMessage(reply)
}

// hasJoinedChannel checks the forced-join channel. Lookup failures let the user through.
func (b *Bot) hasJoinedChannel(userID int64) bool {
	if b.cfg.ChannelUsername == "" {
		return true
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: b.cfg.ChannelUsername,
			UserID:             userID,
		},
	})
	if err != nil {
		b.logger.Warn("Force join check failed",
			zap.Int64("user_id", userID),
			zap.String("channel", b.cfg.ChannelUsername),
			zap.Error(err))
		return true
	}

	return !member.HasLeft() && !member.WasKicked()
}

func (b *Bot) handleServices(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, msgSelectService)
	msg.ReplyMarkup = servicesKeyboard()
	b.sendMessage(msg)
}

func (b *Bot) handleRefer(ctx context.Context, msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, fmt.Sprintf(
		"🔗 Your Referral Link:\n%s\n\nEarn %d points per friend!",
		b.referralLink(msg.From.ID),
		b.ledger.PointsPerRefer(),
	))
}

func (b *Bot) handlePoints(ctx context.Context, msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, fmt.Sprintf("💰 You have %d points.", b.ledger.Points(msg.From.ID)))
}

func (b *Bot) handleMyOrders(ctx context.Context, msg *tgbotapi.Message) {
	orders := b.ledger.Orders(msg.From.ID)
	if len(orders) == 0 {
		b.sendText(msg.Chat.ID, msgNoOrders)
		return
	}
	b.sendText(msg.Chat.ID, FormatOrders(orders))
}

func (b *Bot) handleRedeem(ctx context.Context, msg *tgbotapi.Message, args []string) {
	chatID := msg.Chat.ID
	if len(args) == 0 {
		b.sendText(chatID, "Enter a redeem code. Example: /redeem CODE")
		return
	}

	points, err := b.ledger.Redeem(msg.From.ID, args[0])
	if err != nil {
		if !errors.Is(err, ledger.ErrInvalidCode) {
			b.logger.Error("Failed to redeem code",
				zap.Int64("user_id", msg.From.ID),
				zap.Error(err))
		}
		b.sendText(chatID, msgInvalidCode)
		return
	}

	b.metrics.RedemptionsTotal.Inc()
	b.logger.Info("Redeem code used",
		zap.Int64("user_id", msg.From.ID),
		zap.Int("points", points))
	b.sendText(chatID, fmt.Sprintf("🎁 You received %d points!", points))
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, b.helpText(msg.From.ID))
	reply.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(reply)
}

func (b *Bot) helpText(userID int64) string {
	if b.isAdmin(userID) {
		return adminHelpText
	}
	return userHelpText
}
