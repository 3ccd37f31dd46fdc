package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"refpoints-bot/internal/config"
	"refpoints-bot/internal/ledger"
	"refpoints-bot/internal/metrics"
	"refpoints-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	testAdminID   int64 = 1
	testChannelID int64 = -100500
)

// fakeAPI records everything the bot sends.
type fakeAPI struct {
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	log       []tgbotapi.Chattable
	member    tgbotapi.ChatMember
	memberErr error
	failCopy  map[int64]bool
	updates   chan tgbotapi.Update
	stopped   bool
	nextID    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		member:   tgbotapi.ChatMember{Status: "member"},
		failCopy: make(map[int64]bool),
		updates:  make(chan tgbotapi.Update, 10),
		nextID:   1000,
	}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.log = append(f.log, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	f.log = append(f.log, c)
	if cp, ok := c.(tgbotapi.CopyMessageConfig); ok && f.failCopy[cp.ChatID] {
		return nil, errors.New("Forbidden: bot was blocked by the user")
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMember(tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	return f.member, f.memberErr
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() { f.stopped = true }

// textsTo returns sent and edited texts addressed to chatID, in order.
func (f *fakeAPI) textsTo(chatID int64) []string {
	var out []string
	for _, c := range f.log {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		case tgbotapi.EditMessageTextConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		}
	}
	return out
}

func (f *fakeAPI) lastText(t *testing.T, chatID int64) string {
	t.Helper()
	texts := f.textsTo(chatID)
	if len(texts) == 0 {
		t.Fatalf("nothing sent to %d", chatID)
	}
	return texts[len(texts)-1]
}

func (f *fakeAPI) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if e, ok := f.requests[i].(tgbotapi.EditMessageTextConfig); ok {
			return e
		}
	}
	t.Fatal("no message edits recorded")
	return tgbotapi.EditMessageTextConfig{}
}

func (f *fakeAPI) copies() []tgbotapi.CopyMessageConfig {
	var out []tgbotapi.CopyMessageConfig
	for _, c := range f.requests {
		if cp, ok := c.(tgbotapi.CopyMessageConfig); ok {
			out = append(out, cp)
		}
	}
	return out
}

type testEnv struct {
	bot    *Bot
	api    *fakeAPI
	ledger *ledger.Ledger
	state  *storage.MemoryStateStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		AdminIDs:        []int64{testAdminID},
		ChannelUsername: "@updates",
		LogChannelID:    testChannelID,
		StartingPoints:  5,
		PointsPerRefer:  5,
		UpdateTimeout:   60,
	}
	api := newFakeAPI()
	led := ledger.New(cfg.StartingPoints, cfg.PointsPerRefer)
	state := storage.NewMemoryStateStore(time.Minute)
	b := New(api, "pointsbot", led, state, metrics.New(), zap.NewNop(), cfg)
	return &testEnv{bot: b, api: api, ledger: led, state: state}
}

func (e *testEnv) send(msg *tgbotapi.Message) {
	e.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (e *testEnv) press(userID int64, data string) {
	e.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: userID, FirstName: "User"},
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}})
}

var nextMessageID = 1

func textMessage(userID int64, text string) *tgbotapi.Message {
	nextMessageID++
	return &tgbotapi.Message{
		MessageID: nextMessageID,
		From:      &tgbotapi.User{ID: userID, FirstName: "User"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
}

func commandMessage(userID int64, text string) *tgbotapi.Message {
	msg := textMessage(userID, text)
	name := strings.Fields(text)[0]
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}}
	return msg
}

func TestStartStopsOnContextCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- env.bot.Start(ctx) }()

	env.api.updates <- tgbotapi.Update{Message: commandMessage(2, "/points")}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop")
	}
}

func TestStartReturnsWhenUpdatesClose(t *testing.T) {
	env := newTestEnv(t)
	close(env.api.updates)

	if err := env.bot.Start(context.Background()); err != nil {
		t.Fatalf("Start returned %v", err)
	}
}
