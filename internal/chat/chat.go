// Package chat defines the message types exchanged with the chat transport.
package chat

import "context"

// Message is an inbound chat message.
type Message struct {
	ID         string // Transport message ID (used for replies)
	SenderID   string
	SenderName string
	GroupID    string // Group / channel the message was posted in
	Private    bool   // Direct message to the bot
	Text       string
}

// Outgoing is a message to post into a group.
type Outgoing struct {
	GroupID string
	ReplyTo string // Message ID to reply to (optional)
	Text    string
}

// Sender posts messages to the chat transport.
type Sender interface {
	Send(ctx context.Context, msg Outgoing) error
}

// Handler processes inbound messages.
type Handler interface {
	Handle(ctx context.Context, msg Message)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message)

// Handle calls f(ctx, msg).
func (f HandlerFunc) Handle(ctx context.Context, msg Message) {
	f(ctx, msg)
}
