package notification

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19tube/internal/app/playback"
	"github.com/osa030/19tube/internal/chat"
	"github.com/osa030/19tube/internal/domain/video"
)

type recordingSender struct {
	mu         sync.Mutex
	sent       []chat.Outgoing
	calls      int
	firstDelay time.Duration // Stalls the first send, like a rate-limited API call
}

func (s *recordingSender) Send(ctx context.Context, msg chat.Outgoing) error {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if first && s.firstDelay > 0 {
		time.Sleep(s.firstDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []chat.Outgoing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Outgoing(nil), s.sent...)
}

func item(title, name string) *video.QueueItem {
	return &video.QueueItem{
		Video:     video.Video{Handle: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Title: title},
		Submitter: video.Submitter{ID: "1", Name: name},
	}
}

func TestAnnouncement(t *testing.T) {
	tests := []struct {
		name  string
		event playback.Event
		text  string
		ok    bool
	}{
		{
			name:  "started with submitter",
			event: playback.Event{Type: playback.EventStarted, Item: item("Song", "alice")},
			text:  "Now playing Song (https://www.youtube.com/watch?v=dQw4w9WgXcQ) (requested by alice)",
			ok:    true,
		},
		{
			name:  "started without title",
			event: playback.Event{Type: playback.EventStarted, Item: item("", "")},
			text:  "Now playing https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			ok:    true,
		},
		{
			name:  "skipped",
			event: playback.Event{Type: playback.EventSkipped, Item: item("Song", "alice")},
			text:  "Skipped Song (https://www.youtube.com/watch?v=dQw4w9WgXcQ)",
			ok:    true,
		},
		{
			name:  "launch failed",
			event: playback.Event{Type: playback.EventLaunchFailed, Item: item("", ""), Err: errors.New("exec")},
			text:  "Could not play https://www.youtube.com/watch?v=dQw4w9WgXcQ, moving on.",
			ok:    true,
		},
		{
			name:  "queue empty",
			event: playback.Event{Type: playback.EventQueueEmpty},
			text:  "The queue is empty. Post a link to keep the videos coming!",
			ok:    true,
		},
		{
			name:  "ended is silent",
			event: playback.Event{Type: playback.EventEnded, Item: item("Song", "alice")},
		},
		{
			name:  "started without item",
			event: playback.Event{Type: playback.EventStarted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Announcement(tt.event)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.text, n.Text)
			assert.Equal(t, tt.event.Type.String(), n.Type)
		})
	}
}

func TestAnnouncer_Run(t *testing.T) {
	sender := &recordingSender{}
	history := NewHistory(10)
	m := NewManager(time.Second)
	stream := NewChatStream(sender, "group-1", time.Second)
	m.Subscribe(stream)
	m.Subscribe(history)

	events := make(chan playback.Event, 4)
	events <- playback.Event{Type: playback.EventStarted, Item: item("Song", "")}
	events <- playback.Event{Type: playback.EventEnded, Item: item("Song", "")}
	events <- playback.Event{Type: playback.EventQueueEmpty}
	close(events)

	done := make(chan struct{})
	go func() {
		NewAnnouncer(m).Run(context.Background(), events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("announcer did not stop after the event channel closed")
	}
	stream.Close()

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "group-1", sent[0].GroupID)
	assert.Equal(t, "Now playing Song (https://www.youtube.com/watch?v=dQw4w9WgXcQ)", sent[0].Text)
	assert.Contains(t, sent[1].Text, "queue is empty")

	recent := history.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(1), recent[0].SequenceNo)
	assert.Equal(t, "queue_empty", recent[1].Type)
}

func TestAnnouncer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewAnnouncer(NewManager(0)).Run(ctx, make(chan playback.Event))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("announcer did not stop on cancel")
	}
}

func TestAnnouncer_SlowChatKeepsOrder(t *testing.T) {
	sender := &recordingSender{firstDelay: 700 * time.Millisecond}
	m := NewManager(0)
	stream := NewChatStream(sender, "group-1", 5*time.Second)
	m.Subscribe(stream)

	events := make(chan playback.Event, 3)
	events <- playback.Event{Type: playback.EventSkipped, Item: item("A", "")}
	events <- playback.Event{Type: playback.EventStarted, Item: item("B", "")}
	events <- playback.Event{Type: playback.EventQueueEmpty}
	close(events)

	NewAnnouncer(m).Run(context.Background(), events)
	stream.Close()

	sent := sender.messages()
	require.Len(t, sent, 3)
	assert.True(t, strings.HasPrefix(sent[0].Text, "Skipped A"), sent[0].Text)
	assert.True(t, strings.HasPrefix(sent[1].Text, "Now playing B"), sent[1].Text)
	assert.Contains(t, sent[2].Text, "queue is empty")
}
