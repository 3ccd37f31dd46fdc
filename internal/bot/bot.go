package bot

import (
	"context"
	"sync"

	"refpoints-bot/internal/config"
	"refpoints-bot/internal/ledger"
	"refpoints-bot/internal/metrics"
	"refpoints-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the subset of *tgbotapi.BotAPI the bot relies on.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ API = (*tgbotapi.BotAPI)(nil)

type Bot struct {
	api      API
	username string
	logger   *zap.Logger
	ledger   *ledger.Ledger
	state    storage.StateStore
	metrics  *metrics.Metrics
	cfg      *config.Config
	drafts   *draftStore
	mu       sync.Mutex
}

func New(
	api API,
	username string,
	led *ledger.Ledger,
	state storage.StateStore,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) *Bot {
	return &Bot{
		api:      api,
		username: username,
		logger:   logger,
		ledger:   led,
		state:    state,
		metrics:  m,
		cfg:      cfg,
		drafts:   newDraftStore(),
	}
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot", zap.String("username", b.username))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.api.StopReceivingUpdates()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.logger.Info("Updates channel closed")
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update. Updates are handled one at a time.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case update.Message != nil:
		b.metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.processMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		b.processCallback(ctx, update.CallbackQuery)
	default:
		b.metrics.UpdatesTotal.WithLabelValues("other").Inc()
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("Processing message",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if b.isBanned(userID) {
		b.sendText(chatID, msgBanned)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	state, err := b.state.Get(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("user_id", userID),
			zap.Error(err))
		b.sendError(chatID, "Something went wrong, please try again.")
		return
	}

	switch {
	case state.Step == StepAwaitingLink:
		b.handleLink(ctx, msg, state)
	case b.isAdmin(userID):
		b.storeBroadcastDraft(ctx, msg)
	default:
		b.handleDefault(ctx, chatID)
	}
}

func (b *Bot) processCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	b.answerCallback(callback.ID)

	if callback.From == nil || callback.Message == nil || callback.Message.Chat == nil {
		return
	}

	b.logger.Debug("Processing callback",
		zap.Int64("user_id", callback.From.ID),
		zap.String("data", callback.Data))

	b.handleCallback(ctx, callback)
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.cfg.IsAdmin(userID)
}

// isBanned reports whether the user is locked out. Admins never are.
func (b *Bot) isBanned(userID int64) bool {
	return !b.isAdmin(userID) && b.ledger.IsBanned(userID)
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendText(chatID, "❌ "+text)
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = markup
	edit.ParseMode = parseMode

	if _, err := b.api.Request(edit); err != nil {
		b.logger.Error("Failed to edit message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
	}
}

func (b *Bot) answerCallback(callbackID string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.String("callback_id", callbackID),
			zap.Error(err))
	}
}
