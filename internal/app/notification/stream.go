package notification

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/chat"
)

var (
	// ErrStreamClosed is returned by Send after Close.
	ErrStreamClosed = errors.New("stream closed")
	// ErrStreamFull is returned by Send when the delivery backlog is full.
	ErrStreamFull = errors.New("stream backlog full")
)

const chatBacklog = 64

// ChatStream posts notifications into a chat group.
// Send only queues the text; a single goroutine posts them in order.
type ChatStream struct {
	sender  chat.Sender
	groupID string
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

// NewChatStream creates a stream that sends to groupID.
// The stream must be closed with Close.
func NewChatStream(sender chat.Sender, groupID string, timeout time.Duration) *ChatStream {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &ChatStream{
		sender:  sender,
		groupID: groupID,
		timeout: timeout,
		queue:   make(chan string, chatBacklog),
		done:    make(chan struct{}),
	}
	go s.deliver()
	return s
}

func (s *ChatStream) Send(n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	select {
	case s.queue <- n.Text:
		return nil
	default:
		return ErrStreamFull
	}
}

// Close stops accepting notifications and waits for queued ones to be posted.
func (s *ChatStream) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *ChatStream) deliver() {
	defer close(s.done)
	for text := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.sender.Send(ctx, chat.Outgoing{GroupID: s.groupID, Text: text}); err != nil {
			zlog.Warn().Err(err).Msgf("notification: post to group %s failed", s.groupID)
		}
		cancel()
	}
}

// History keeps the most recent notifications in memory.
type History struct {
	mu    sync.RWMutex
	limit int
	items []Notification
}

// NewHistory creates a history holding up to limit notifications.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 20
	}
	return &History{limit: limit, items: make([]Notification, 0, limit)}
}

func (h *History) Send(n *Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == h.limit {
		copy(h.items, h.items[1:])
		h.items = h.items[:len(h.items)-1]
	}
	h.items = append(h.items, *n)
	return nil
}

// Recent returns the stored notifications, oldest first.
func (h *History) Recent() []Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Notification, len(h.items))
	copy(out, h.items)
	return out
}
