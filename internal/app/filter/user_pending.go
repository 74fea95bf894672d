package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// UserPendingConfig represents the configuration for UserPendingFilter.
type UserPendingConfig struct {
	MaxPending int `yaml:"max_pending" mapstructure:"max_pending" default:"3" validate:"gte=1"`
}

// UserPendingFilter limits how many queued videos one member may hold.
// The currently playing video counts towards the limit.
type UserPendingFilter struct {
	queue  QueueView
	config UserPendingConfig
}

// NewUserPendingFilter creates a new user pending filter with default settings.
func NewUserPendingFilter(queue QueueView) *UserPendingFilter {
	f := &UserPendingFilter{queue: queue}
	_ = defaults.Set(&f.config)
	return f
}

func (f *UserPendingFilter) Name() string {
	return "user_pending_filter"
}

func (f *UserPendingFilter) Description() string {
	return "Limits how many videos a member can have waiting in the queue"
}

func (f *UserPendingFilter) ReturnCodes() []string {
	return []string{"user_pending"}
}

func (f *UserPendingFilter) ValidateConfig(settings map[string]any) error {
	var config UserPendingConfig

	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = config
	zlog.Info().Msgf("user pending filter config: %+v", config)
	return nil
}

func (f *UserPendingFilter) AppliesTo(role Role) bool {
	// The maintainer is never limited
	return role == RoleMember
}

func (f *UserPendingFilter) Check(ctx context.Context, req Request) Result {
	snap := f.queue.ListPending()

	count := 0
	if snap.Current != nil && snap.Current.Submitter.ID == req.Submitter.ID {
		count++
	}
	for _, it := range snap.Pending {
		if it.Submitter.ID == req.Submitter.ID {
			count++
		}
	}

	if count >= f.config.MaxPending {
		return Reject("user_pending")
	}
	return Accept()
}

func init() {
	Register("user_pending_filter", func(q QueueView) Filter {
		return NewUserPendingFilter(q)
	})
}
