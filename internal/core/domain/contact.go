package domain

import (
	"strings"
	"time"
)

// Contact is a marketing subscriber. Email is normalized (trimmed, lowercased)
// and unique within a single fetch.
type Contact struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	MobileNo       string    `json:"mobileNo,omitempty"`
	Branch         string    `json:"branch,omitempty"`
	Experience     string    `json:"experience,omitempty"`
	TelegramChatID string    `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HasTelegram reports whether the contact linked a Telegram chat.
func (c Contact) HasTelegram() bool {
	return strings.TrimSpace(c.TelegramChatID) != ""
}

// FirstName returns the first token of FullName, or "" when there is none.
func (c Contact) FirstName() string {
	fields := strings.Fields(c.FullName)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// NormalizeEmail trims and lowercases an address for deduplication.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
