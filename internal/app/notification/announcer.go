package notification

import (
	"context"
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/app/playback"
)

// Announcer turns playback events into notifications.
type Announcer struct {
	manager *Manager
}

// NewAnnouncer creates a new announcer broadcasting through manager.
func NewAnnouncer(manager *Manager) *Announcer {
	return &Announcer{manager: manager}
}

// Run consumes events until the channel is closed or ctx is cancelled.
func (a *Announcer) Run(ctx context.Context, events <-chan playback.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			n, ok := Announcement(e)
			if !ok {
				continue
			}
			zlog.Debug().Msgf("announcer: %s", n.Text)
			a.manager.Broadcast(n)
		}
	}
}

// Announcement builds the notification for e. Events that are not announced
// report false.
func Announcement(e playback.Event) (*Notification, bool) {
	n := &Notification{Type: e.Type.String(), Item: e.Item, At: time.Now()}

	switch e.Type {
	case playback.EventStarted:
		if e.Item == nil {
			return nil, false
		}
		n.Text = "Now playing " + e.Item.Video.Label()
		if e.Item.Submitter.Name != "" {
			n.Text += fmt.Sprintf(" (requested by %s)", e.Item.Submitter.Name)
		}
	case playback.EventSkipped:
		if e.Item == nil {
			return nil, false
		}
		n.Text = "Skipped " + e.Item.Video.Label()
	case playback.EventLaunchFailed:
		if e.Item == nil {
			return nil, false
		}
		n.Text = fmt.Sprintf("Could not play %s, moving on.", e.Item.Video.Label())
	case playback.EventQueueEmpty:
		n.Text = "The queue is empty. Post a link to keep the videos coming!"
	default:
		return nil, false
	}
	return n, true
}
