// Package filter provides the filter chain for submission validation.
package filter

import (
	"context"

	"github.com/osa030/19tube/internal/app/playback"
	"github.com/osa030/19tube/internal/domain/video"
)

// Role represents the role of the submitter.
type Role string

const (
	RoleMember     Role = "MEMBER"
	RoleMaintainer Role = "MAINTAINER"
)

// Request represents a submission to be validated.
type Request struct {
	Video     video.Video
	Submitter video.Submitter
	Role      Role
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duplicate_link", "user_pending"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// QueueView gives filters read access to the queue.
type QueueView interface {
	ListPending() playback.Snapshot
}

// Filter is the interface for submission filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to the given role.
	AppliesTo(role Role) bool
	// Check performs the filter check.
	Check(ctx context.Context, req Request) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func(q QueueView) Filter)

// Register registers a filter factory.
func Register(name string, factory func(q QueueView) Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func(q QueueView) Filter {
	return registry
}
