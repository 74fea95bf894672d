// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Bot      BotConfig               `yaml:"bot"`
	Player   PlayerConfig            `yaml:"player"`
	Resolver ResolverConfig          `yaml:"resolver"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Messages MessagesConfig          `yaml:"messages"`
}

// ServerConfig represents status server configuration.
// An empty Addr disables the status server.
type ServerConfig struct {
	Addr  string      `yaml:"addr"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// BotConfig represents the chat bot identity configuration.
type BotConfig struct {
	Token          string `yaml:"token" validate:"required"`
	MaintainerID   string `yaml:"maintainer_id" validate:"required"`
	ControlGroupID string `yaml:"control_group_id" validate:"required"`
}

// PlayerConfig represents the external media player configuration.
// Args may contain "{url}"; otherwise the video URL is appended.
type PlayerConfig struct {
	Command     string   `yaml:"command" default:"mpv" validate:"required"`
	Args        []string `yaml:"args"`
	StopGraceMs int      `yaml:"stop_grace_ms" default:"3000" validate:"gte=0,lte=60000"`
}

// StopGrace returns the SIGTERM to SIGKILL delay.
func (p PlayerConfig) StopGrace() time.Duration {
	return time.Duration(p.StopGraceMs) * time.Millisecond
}

// ResolverConfig represents link resolution configuration.
type ResolverConfig struct {
	Probe           bool `yaml:"probe"` // Runs inside the ordered message handler
	AutoInstall     bool `yaml:"auto_install"`
	ProbeTimeoutSec int  `yaml:"probe_timeout_sec" default:"20" validate:"gte=0,lte=300"`
}

// ProbeTimeout returns the per-link probe timeout.
func (r ResolverConfig) ProbeTimeout() time.Duration {
	return time.Duration(r.ProbeTimeoutSec) * time.Second
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	DefaultError          string `yaml:"default_error" default:"Something went wrong. Please try again later."`
	NotPlayable           string `yaml:"not_playable" default:"Sorry, that link can't be played."`
	DuplicateLink         string `yaml:"duplicate_link" default:"That video is already in the queue."`
	UserPending           string `yaml:"user_pending" default:"You already have enough videos waiting in the queue."`
	DurationLimitExceeded string `yaml:"duration_limit_exceeded" default:"That video is too long."`
	Unauthorized          string `yaml:"unauthorized" default:"Only the maintainer can do that."`
	NothingPlaying        string `yaml:"nothing_playing" default:"Nothing is playing."`
	PrivateDenied         string `yaml:"private_denied" default:"I'm sorry, but you're not authorized to interact with this bot privately."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes, applies environment overrides,
// defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("BOT_MAINTAINER_ID"); v != "" {
		c.Bot.MaintainerID = v
	}
	if v := os.Getenv("BOT_CONTROL_GROUP_ID"); v != "" {
		c.Bot.ControlGroupID = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "not_playable":
		return c.Messages.NotPlayable
	case "duplicate_link":
		return c.Messages.DuplicateLink
	case "user_pending":
		return c.Messages.UserPending
	case "duration_limit_exceeded":
		return c.Messages.DurationLimitExceeded
	case "unauthorized":
		return c.Messages.Unauthorized
	case "nothing_playing":
		return c.Messages.NothingPlaying
	case "private_denied":
		return c.Messages.PrivateDenied
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Bot.MaintainerID != "" && strings.TrimSpace(c.Bot.MaintainerID) != c.Bot.MaintainerID {
		return errors.Newf("maintainer_id (%q) must not contain surrounding spaces", c.Bot.MaintainerID)
	}
	if c.Bot.ControlGroupID != "" && strings.TrimSpace(c.Bot.ControlGroupID) != c.Bot.ControlGroupID {
		return errors.Newf("control_group_id (%q) must not contain surrounding spaces", c.Bot.ControlGroupID)
	}

	return nil
}
