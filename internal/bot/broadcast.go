package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type broadcastDraft struct {
	ChatID         int64
	MessageID      int
	ConfirmationID int
}

// matches reports whether a /broadcast reply targets this draft or the bot's confirmation of it.
func (d broadcastDraft) matches(messageID int) bool {
	return messageID == d.MessageID || (d.ConfirmationID != 0 && messageID == d.ConfirmationID)
}

type draftStore struct {
	mu     sync.Mutex
	drafts map[int64]broadcastDraft
}

func newDraftStore() *draftStore {
	return &draftStore{drafts: make(map[int64]broadcastDraft)}
}

func (s *draftStore) set(adminID int64, d broadcastDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[adminID] = d
}

func (s *draftStore) get(adminID int64) (broadcastDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[adminID]
	return d, ok
}

func (s *draftStore) delete(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, adminID)
}

func (b *Bot) storeBroadcastDraft(ctx context.Context, msg *tgbotapi.Message) {
	draft := broadcastDraft{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID,
		"✅ Broadcast message stored.\nNow reply to this message with /broadcast to send it to all users.")
	reply.ReplyToMessageID = msg.MessageID

	sent, err := b.api.Send(reply)
	if err != nil {
		b.logger.Error("Failed to confirm broadcast draft",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err))
	} else {
		draft.ConfirmationID = sent.MessageID
	}

	b.drafts.set(msg.From.ID, draft)
	b.logger.Info("Broadcast draft stored",
		zap.Int64("admin_id", msg.From.ID),
		zap.Int("message_id", msg.MessageID))
}

func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	adminID := msg.From.ID

	draft, ok := b.drafts.get(adminID)
	if !ok {
		b.sendText(chatID, "❌ No broadcast message stored. Send the message first.")
		return
	}
	if msg.ReplyToMessage == nil || !draft.matches(msg.ReplyToMessage.MessageID) {
		b.sendText(chatID, "❌ Please reply to the broadcast message with /broadcast command.")
		return
	}

	var sent, failed int
	for _, userID := range b.ledger.UserIDs() {
		if b.ledger.IsBanned(userID) {
			continue
		}
		select {
		case <-ctx.Done():
			b.logger.Warn("Broadcast interrupted",
				zap.Int("sent", sent),
				zap.Int("failed", failed))
			return
		default:
		}

		copyMsg := tgbotapi.NewCopyMessage(userID, draft.ChatID, draft.MessageID)
		if _, err := b.api.Request(copyMsg); err != nil {
			failed++
			b.logger.Debug("Broadcast delivery failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}
		sent++
	}

	b.metrics.BroadcastTotal.WithLabelValues("sent").Add(float64(sent))
	b.metrics.BroadcastTotal.WithLabelValues("failed").Add(float64(failed))
	b.drafts.delete(adminID)

	b.logger.Info("Broadcast complete",
		zap.Int64("admin_id", adminID),
		zap.Int("sent", sent),
		zap.Int("failed", failed))

	b.sendText(chatID, fmt.Sprintf(
		"📣 Broadcast complete!\n✅ Sent to %d users\n❌ Failed for %d users",
		sent, failed,
	))
}
