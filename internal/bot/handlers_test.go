package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"refpoints-bot/internal/ledger"
	"refpoints-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestStartRegistersAndCreditsReferrer(t *testing.T) {
	env := newTestEnv(t)

	env.send(commandMessage(100, "/start"))
	if got := env.api.lastText(t, 100); !strings.Contains(got, "💰 Your Points: 5") ||
		!strings.Contains(got, "https://t.me/pointsbot?start=100") {
		t.Errorf("unexpected welcome: %q", got)
	}

	env.send(commandMessage(200, "/start 100"))
	if got := env.ledger.Points(100); got != 10 {
		t.Errorf("referrer points = %d, want 10", got)
	}
	if got := env.api.lastText(t, 100); got != "🎉 You earned 5 points for referring User!" {
		t.Errorf("referrer notification = %q", got)
	}

	// repeating /start never credits twice
	env.send(commandMessage(200, "/start 100"))
	if got := env.ledger.Points(100); got != 10 {
		t.Errorf("referrer points after repeat = %d, want 10", got)
	}
}

func TestStartIgnoresBadReferrer(t *testing.T) {
	env := newTestEnv(t)

	env.send(commandMessage(300, "/start abc"))
	env.send(commandMessage(400, "/start 400"))

	if _, ok := env.ledger.User(300); !ok {
		t.Error("user 300 should be registered")
	}
	if got := env.ledger.Points(400); got != 5 {
		t.Errorf("self referral changed points to %d", got)
	}
}

func TestStartRequiresChannelMembership(t *testing.T) {
	env := newTestEnv(t)
	env.api.member = tgbotapi.ChatMember{Status: "left"}

	env.send(commandMessage(100, "/start"))

	msg, ok := env.api.sent[len(env.api.sent)-1].(tgbotapi.MessageConfig)
	if !ok || msg.Text != msgJoinChannel {
		t.Fatalf("expected join prompt, got %#v", env.api.sent[len(env.api.sent)-1])
	}
	markup := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if url := markup.InlineKeyboard[0][0].URL; url == nil || *url != "https://t.me/updates" {
		t.Errorf("unexpected join URL %v", url)
	}
	if _, ok := env.ledger.User(100); !ok {
		t.Error("user must be registered before the join check")
	}
}

func TestStartAllowsWhenMembershipCheckFails(t *testing.T) {
	env := newTestEnv(t)
	env.api.memberErr = errors.New("Bad Request: chat not found")

	env.send(commandMessage(100, "/start"))
	if got := env.api.lastText(t, 100); !strings.HasPrefix(got, "👋 Welcome User!") {
		t.Errorf("expected welcome, got %q", got)
	}
}

func TestBannedUserIsGated(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.Ban(100)

	env.send(commandMessage(100, "/start"))
	if got := env.api.lastText(t, 100); got != msgBanned {
		t.Errorf("got %q, want banned reply", got)
	}
	if _, ok := env.ledger.User(100); ok {
		t.Error("banned user must not be registered")
	}

	env.press(100, CallbackOrderPrefix+ledger.ServiceViews)
	if got := env.api.lastEdit(t).Text; got != msgBannedShort {
		t.Errorf("callback got %q, want %q", got, msgBannedShort)
	}
}

func TestOrderFlow(t *testing.T) {
	env := newTestEnv(t)
	env.send(commandMessage(100, "/start"))

	env.press(100, CallbackOrderPrefix+ledger.ServiceReactions)
	if got := env.api.lastEdit(t).Text; got != msgSendLink {
		t.Fatalf("got %q, want link prompt", got)
	}
	state, _ := env.state.Get(context.Background(), 100)
	if state.Step != StepAwaitingLink || state.Service != ledger.ServiceReactions {
		t.Fatalf("unexpected state %+v", state)
	}

	env.send(textMessage(100, "not a link"))
	if got := env.api.lastText(t, 100); !strings.Contains(got, "valid post link") {
		t.Errorf("expected re-prompt, got %q", got)
	}

	env.send(textMessage(100, "  t.me/somechannel/42 "))
	if got := env.api.lastText(t, 100); got != "✅ Your order for Free Reactions quantity = 10 only 2 points has been received!" {
		t.Errorf("unexpected confirmation %q", got)
	}
	if got := env.ledger.Points(100); got != 3 {
		t.Errorf("points = %d, want 3", got)
	}

	channel := env.api.lastText(t, testChannelID)
	if !strings.Contains(channel, "👤 User: 100") || !strings.Contains(channel, "🔗 Link: https://t.me/somechannel/42") {
		t.Errorf("unexpected channel notification %q", channel)
	}

	if state, _ := env.state.Get(context.Background(), 100); state.Step != "" {
		t.Errorf("state should be cleared, got %+v", state)
	}

	env.send(commandMessage(100, "/myorders"))
	if got := env.api.lastText(t, 100); got != "📦 Your Orders:\n• Reactions - https://t.me/somechannel/42" {
		t.Errorf("unexpected orders %q", got)
	}
}

func TestExpiredOrderStateFallsThrough(t *testing.T) {
	env := newTestEnv(t)
	env.bot.state = storage.NewMemoryStateStore(time.Nanosecond)
	env.send(commandMessage(100, "/start"))
	env.press(100, CallbackOrderPrefix+ledger.ServiceViews)

	time.Sleep(time.Millisecond)

	env.send(textMessage(100, "https://t.me/c/1"))
	if got := env.api.lastText(t, 100); !strings.Contains(got, "/services") {
		t.Errorf("expected services hint, got %q", got)
	}
	if got := env.ledger.Points(100); got != 5 {
		t.Errorf("points = %d, want 5", got)
	}
}

func TestOrderRejectedWithoutPoints(t *testing.T) {
	env := newTestEnv(t)
	env.send(commandMessage(100, "/start"))
	for i := 0; i < 5; i++ {
		env.ledger.Purchase(100, ledger.ServiceViews, "https://t.me/a/1")
	}

	env.press(100, CallbackOrderPrefix+ledger.ServiceViews)
	if got := env.api.lastEdit(t).Text; got != msgNotEnoughPts {
		t.Errorf("got %q, want not enough points", got)
	}
	if state, _ := env.state.Get(context.Background(), 100); state.Step != "" {
		t.Errorf("no state expected, got %+v", state)
	}
}

func TestBalanceRecheckedAtLinkTime(t *testing.T) {
	env := newTestEnv(t)
	env.send(commandMessage(100, "/start"))
	env.press(100, CallbackOrderPrefix+ledger.ServiceReactions)

	// points spent elsewhere between picking the service and sending the link
	for i := 0; i < 4; i++ {
		env.ledger.Purchase(100, ledger.ServiceViews, "https://t.me/a/1")
	}

	env.send(textMessage(100, "https://t.me/c/9"))
	if got := env.api.lastText(t, 100); got != msgNotEnoughPts {
		t.Errorf("got %q, want not enough points", got)
	}
	if got := env.ledger.Points(100); got != 1 {
		t.Errorf("points = %d, want 1", got)
	}
}

func TestCallbacks(t *testing.T) {
	env := newTestEnv(t)
	env.send(commandMessage(100, "/start"))

	tests := []struct {
		data string
		want string
	}{
		{CallbackShowServices, msgSelectService},
		{CallbackShowReferral, "🔗 Your Referral Link:\nhttps://t.me/pointsbot?start=100"},
		{CallbackHelp, userHelpText},
		{CallbackOrderPrefix + "likes", msgUnknownService},
		{"something_else", msgUnknownAction},
	}
	for _, tt := range tests {
		env.press(100, tt.data)
		if got := env.api.lastEdit(t).Text; got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.data, got, tt.want)
		}
	}

	env.press(100, CallbackBackToStart)
	edit := env.api.lastEdit(t)
	if !strings.HasPrefix(edit.Text, "👋 Welcome User!") || edit.ReplyMarkup == nil {
		t.Errorf("back_to_start did not restore the menu: %+v", edit)
	}

	answered := 0
	for _, r := range env.api.requests {
		if _, ok := r.(tgbotapi.CallbackConfig); ok {
			answered++
		}
	}
	if answered != len(tests)+1 {
		t.Errorf("answered %d callbacks, want %d", answered, len(tests)+1)
	}
}

func TestServicesKeyboard(t *testing.T) {
	markup := servicesKeyboard()
	if len(markup.InlineKeyboard) != 4 {
		t.Fatalf("rows = %d, want 4", len(markup.InlineKeyboard))
	}
	views := markup.InlineKeyboard[0][0]
	if views.Text != "📌 Free Post Views quantity = 50 only 1 point (Cost: 1 point)" {
		t.Errorf("views label = %q", views.Text)
	}
	if views.CallbackData == nil || *views.CallbackData != "order_views" {
		t.Errorf("views callback = %v", views.CallbackData)
	}
	if got := markup.InlineKeyboard[1][0].Text; !strings.HasSuffix(got, "(Cost: 2 points)") {
		t.Errorf("reactions label = %q", got)
	}
}

func TestPointsReferAndRedeem(t *testing.T) {
	env := newTestEnv(t)

	env.send(commandMessage(100, "/points"))
	if got := env.api.lastText(t, 100); got != "💰 You have 5 points." {
		t.Errorf("points reply %q", got)
	}

	env.send(commandMessage(100, "/refer"))
	if got := env.api.lastText(t, 100); !strings.HasSuffix(got, "Earn 5 points per friend!") {
		t.Errorf("refer reply %q", got)
	}

	env.send(commandMessage(100, "/redeem"))
	if got := env.api.lastText(t, 100); got != "Enter a redeem code. Example: /redeem CODE" {
		t.Errorf("redeem usage %q", got)
	}

	env.ledger.CreateCode("BONUS", 4)
	env.send(commandMessage(100, "/redeem BONUS"))
	if got := env.api.lastText(t, 100); got != "🎁 You received 4 points!" {
		t.Errorf("redeem reply %q", got)
	}
	env.send(commandMessage(200, "/redeem BONUS"))
	if got := env.api.lastText(t, 200); got != msgInvalidCode {
		t.Errorf("second redeem reply %q", got)
	}
	if got := env.ledger.Points(100); got != 9 {
		t.Errorf("points = %d, want 9", got)
	}
}

func TestMyOrdersEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.send(commandMessage(100, "/myorders"))
	if got := env.api.lastText(t, 100); got != msgNoOrders {
		t.Errorf("got %q", got)
	}
}

func TestHelpDependsOnRole(t *testing.T) {
	env := newTestEnv(t)

	env.send(commandMessage(100, "/help"))
	if got := env.api.lastText(t, 100); got != userHelpText {
		t.Errorf("user help = %q", got)
	}
	env.send(commandMessage(testAdminID, "/help"))
	if got := env.api.lastText(t, testAdminID); got != adminHelpText {
		t.Errorf("admin help = %q", got)
	}
}

func TestUnknownCommandAndPlainText(t *testing.T) {
	env := newTestEnv(t)

	env.send(commandMessage(100, "/dance"))
	if got := env.api.lastText(t, 100); !strings.Contains(got, "Unknown command") {
		t.Errorf("unknown command reply %q", got)
	}
	env.send(textMessage(100, "hello"))
	if got := env.api.lastText(t, 100); !strings.Contains(got, "/services") {
		t.Errorf("plain text reply %q", got)
	}
}
