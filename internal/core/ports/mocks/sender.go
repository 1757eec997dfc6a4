package mocks

import (
	"context"
	"strconv"
	"sync"

	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

// SentMessage is a message captured by MessageSender.
type SentMessage struct {
	ChatID string
	Text   string
}

// MessageSender records outgoing Telegram messages.
type MessageSender struct {
	mu   sync.Mutex
	sent []SentMessage

	// SendMessageFn allows overriding SendMessage behavior.
	SendMessageFn func(ctx context.Context, chatID, text string) (string, error)
}

var _ ports.MessageSender = (*MessageSender)(nil)

// NewMessageSender creates a recording sender.
func NewMessageSender() *MessageSender {
	return &MessageSender{}
}

// SendMessage records the message and returns a sequential message id.
func (s *MessageSender) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	if s.SendMessageFn != nil {
		return s.SendMessageFn(ctx, chatID, text)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, SentMessage{ChatID: chatID, Text: text})

	return strconv.Itoa(len(s.sent)), nil
}

// Sent returns a copy of every captured message.
func (s *MessageSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SentMessage, len(s.sent))
	copy(out, s.sent)

	return out
}
