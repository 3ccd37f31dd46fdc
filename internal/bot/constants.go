package bot

const (
	StepAwaitingLink = "awaiting_link"
)

// Callback data
const (
	CallbackShowServices = "show_services"
	CallbackShowReferral = "show_referral"
	CallbackHelp         = "help"
	CallbackBackToStart  = "back_to_start"
	CallbackOrderPrefix  = "order_"
)

const (
	msgBanned         = "🚫 You are banned from using this bot."
	msgBannedShort    = "🚫 You are banned."
	msgNotAdmin       = "⛔ You are not an admin."
	msgNotEnoughPts   = "❌ Not enough points. Refer friends to earn more!"
	msgUnknownService = "❌ Unknown service."
	msgUnknownAction  = "❌ Unknown action."
	msgSendLink       = "Send the Telegram post link you want to use for this service:"
	msgSelectService  = "Select a free service:"
	msgJoinChannel    = "📢 Please join the update channel to use the bot."
	msgNoOrders       = "📦 You haven't placed any orders yet."
	msgInvalidCode    = "❌ Invalid or used code."
	msgInvalidUserID  = "❌ Invalid user ID."
)
