package webhook

// Log field name constants
const (
	LogFieldUpdateID  = "update_id"
	LogFieldChatID    = "chat_id"
	LogFieldContactID = "contact_id"
	LogFieldMatchedBy = "matched_by"
	LogFieldStatus    = "status"
)

// Update processing statuses, also used as metric labels.
const (
	StatusStart     = "start"
	StatusLinked    = "linked"
	StatusUnmatched = "unmatched"
	StatusError     = "error"
	StatusIgnored   = "ignored"
)

// Match strategies reported in results.
const (
	MatchMobileExact    = "mobile_exact"
	MatchMobileDigits   = "mobile_digits"
	MatchMobileNational = "mobile_national"
	MatchNameExact      = "name_exact"
	MatchNameFirst      = "name_first"
	MatchNameReversed   = "name_reversed"
	MatchNameSubstring  = "name_substring"
)

const (
	commandStart = "start"

	minPhoneDigits    = 7
	nationalDigits    = 10
	minSubstringRunes = 3
	lookupLimit       = 2

	maxBodyBytes = 1 << 20

	secretQueryParam  = "secret"
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json; charset=utf-8"
)

// Replies sent to the chat. They never carry internal error details.
const (
	msgOnboarding = "Welcome to %s job alerts! Reply with the mobile number or the full name you registered with and we will link this chat to your profile."
	msgUnmatched  = "We could not match you to a registered profile. Please reply with your registered name or mobile number."
	msgLinked     = "You're all set, %s! New roles matching your profile will arrive in this chat."
	msgError      = "Something went wrong on our side. Please try again later."
)
