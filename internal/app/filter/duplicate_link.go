package filter

import (
	"context"

	"github.com/osa030/19tube/internal/domain/video"
)

// DuplicateLinkFilter rejects videos that are already playing or pending.
type DuplicateLinkFilter struct {
	queue QueueView
}

// NewDuplicateLinkFilter creates a new duplicate link filter.
func NewDuplicateLinkFilter(queue QueueView) *DuplicateLinkFilter {
	return &DuplicateLinkFilter{queue: queue}
}

func (f *DuplicateLinkFilter) Name() string {
	return "duplicate_link_filter"
}

func (f *DuplicateLinkFilter) Description() string {
	return "Rejects videos that are already playing or waiting in the queue"
}

func (f *DuplicateLinkFilter) ReturnCodes() []string {
	return []string{"duplicate_link"}
}

func (f *DuplicateLinkFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

func (f *DuplicateLinkFilter) AppliesTo(role Role) bool {
	return true
}

func (f *DuplicateLinkFilter) Check(ctx context.Context, req Request) Result {
	snap := f.queue.ListPending()

	if snap.Current != nil && sameVideo(snap.Current.Video, req.Video) {
		return Reject("duplicate_link")
	}
	for _, it := range snap.Pending {
		if sameVideo(it.Video, req.Video) {
			return Reject("duplicate_link")
		}
	}
	return Accept()
}

// sameVideo matches on source ID, falling back to the handle.
func sameVideo(a, b video.Video) bool {
	if a.Source == b.Source && a.ID != "" && a.ID == b.ID {
		return true
	}
	return a.Handle == b.Handle
}

func init() {
	Register("duplicate_link_filter", func(q QueueView) Filter {
		return NewDuplicateLinkFilter(q)
	})
}
