package playback

import "github.com/osa030/19tube/internal/domain/video"

// EventType represents a playback event type.
type EventType int

const (
	EventStarted      EventType = iota // Item started playing
	EventEnded                         // Item finished playing on its own
	EventSkipped                       // Item was skipped by the maintainer
	EventLaunchFailed                  // Player could not be started for an item
	EventQueueEmpty                    // Queue ran out, controller is idle
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventEnded:
		return "ended"
	case EventSkipped:
		return "skipped"
	case EventLaunchFailed:
		return "launch_failed"
	case EventQueueEmpty:
		return "queue_empty"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Item     *video.QueueItem // Affected item (nil for EventQueueEmpty)
	ExitCode int              // Player exit code (EventEnded only)
	Err      error            // Launch or exit error, if any
	Pending  int              // Pending items after the transition
}
