// Package video provides the Video and QueueItem domain entities.
package video

import (
	"fmt"
	"time"
)

// Source identifies where a video reference came from.
type Source string

const (
	SourceYouTube Source = "youtube"
	SourceGeneric Source = "generic"
)

// Video represents a resolved, playable video reference.
type Video struct {
	ID       string        // Source-specific ID (YouTube video ID, or the URL for generic links)
	Handle   string        // Playable handle passed to the player (stream or page URL)
	Title    string        // Title (empty unless probed)
	Duration time.Duration // Duration (zero when unknown)
	Source   Source        // Link source
}

// Submitter represents the chat member who submitted a video.
type Submitter struct {
	ID   string // Chat user ID
	Name string // Display name
}

// QueueItem represents a video in the playback queue.
type QueueItem struct {
	ID        string    // UUID
	Video     Video     // Resolved video
	Submitter Submitter // Who submitted it
	Seq       uint64    // Submission order index, assigned on enqueue
	AddedAt   time.Time // Time when added to queue
}

// Label returns a short human-readable description of the video.
func (v Video) Label() string {
	if v.Title != "" {
		return fmt.Sprintf("%s (%s)", v.Title, v.Handle)
	}
	return v.Handle
}

// HasDuration reports whether the duration of the video is known.
func (v Video) HasDuration() bool {
	return v.Duration > 0
}
