package bot

import (
	"fmt"
	"strings"

	"refpoints-bot/internal/ledger"
)

const userHelpText = "❓ <b>User Help</b>\n\n" +
	"/start - Start bot\n" +
	"/services - Show services\n" +
	"/refer - Get referral link\n" +
	"/points - Check your points\n" +
	"/myorders - Show your orders\n" +
	"/redeem &lt;code&gt; - Redeem points\n"

const adminHelpText = "🛠️ <b>Admin Help</b>\n\n" +
	"/admin - Show admin panel\n" +
	"/ban &lt;user_id&gt; - Ban user\n" +
	"/unban &lt;user_id&gt; - Unban user\n" +
	"/genredeem &lt;code&gt; &lt;points&gt; - Create redeem code\n" +
	"/genredeem &lt;points&gt; - Create a random redeem code\n" +
	"/redeem &lt;code&gt; - Redeem points\n" +
	"/broadcast - Reply to stored message to broadcast\n" +
	"/export - Download all orders as Excel\n" +
	"/start - Start bot\n" +
	"/services - Show services\n" +
	"/points - Check your points\n" +
	"/myorders - Show your orders\n"

func (b *Bot) referralLink(userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", b.username, userID)
}

func (b *Bot) welcomeText(firstName string, points int, userID int64) string {
	return fmt.Sprintf(
		"👋 Welcome %s!\n\n"+
			"💰 Your Points: %d\n"+
			"🔗 Your Referral Link:\n%s\n\n"+
			"Use the buttons below to navigate.",
		firstName, points, b.referralLink(userID),
	)
}

func ChannelURL(username string) string {
	return "https://t.me/" + strings.TrimPrefix(username, "@")
}

func FormatOrders(orders []ledger.Order) string {
	var sb strings.Builder
	sb.WriteString("📦 Your Orders:")
	for _, o := range orders {
		fmt.Fprintf(&sb, "\n• %s - %s", Capitalize(o.Service), o.Link)
	}
	return sb.String()
}

func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func pluralPoints(n int) string {
	if n == 1 {
		return "point"
	}
	return "points"
}
