package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBot() BotConfig {
	return BotConfig{
		Token:          "test-token",
		MaintainerID:   "1001",
		ControlGroupID: "2002",
	}
}

func TestConfig_Validate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				Bot:    validBot(),
				Player: PlayerConfig{Command: "mpv", StopGraceMs: 3000},
			},
			wantErr: false,
		},
		{
			name: "missing token",
			config: Config{
				Bot:    BotConfig{MaintainerID: "1001", ControlGroupID: "2002"},
				Player: PlayerConfig{Command: "mpv"},
			},
			wantErr: true,
			errMsg:  "Token",
		},
		{
			name: "missing maintainer",
			config: Config{
				Bot:    BotConfig{Token: "t", ControlGroupID: "2002"},
				Player: PlayerConfig{Command: "mpv"},
			},
			wantErr: true,
			errMsg:  "MaintainerID",
		},
		{
			name: "missing control group",
			config: Config{
				Bot:    BotConfig{Token: "t", MaintainerID: "1001"},
				Player: PlayerConfig{Command: "mpv"},
			},
			wantErr: true,
			errMsg:  "ControlGroupID",
		},
		{
			name: "missing player command",
			config: Config{
				Bot: validBot(),
			},
			wantErr: true,
			errMsg:  "Command",
		},
		{
			name: "stop grace out of range",
			config: Config{
				Bot:    validBot(),
				Player: PlayerConfig{Command: "mpv", StopGraceMs: 120000},
			},
			wantErr: true,
			errMsg:  "StopGraceMs",
		},
		{
			name: "maintainer with spaces",
			config: Config{
				Bot:    BotConfig{Token: "t", MaintainerID: " 1001", ControlGroupID: "2002"},
				Player: PlayerConfig{Command: "mpv"},
			},
			wantErr: true,
			errMsg:  "maintainer_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestParse_DefaultsAndFilters(t *testing.T) {
	data := []byte(`
bot:
  token: abc
  maintainer_id: "1001"
  control_group_id: "2002"
player:
  args: ["--fs", "{url}"]
filters:
  user_pending_filter:
    enabled: true
    settings:
      max_pending: 2
  duration_limit_filter:
    enabled: false
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Server.Addr, "status server is disabled unless configured")
	assert.Equal(t, "mpv", cfg.Player.Command)
	assert.Equal(t, []string{"--fs", "{url}"}, cfg.Player.Args)
	assert.Equal(t, 3*time.Second, cfg.Player.StopGrace())
	assert.Equal(t, 20*time.Second, cfg.Resolver.ProbeTimeout())
	assert.False(t, cfg.Resolver.Probe)

	assert.True(t, cfg.Filters["user_pending_filter"].Enabled)
	assert.False(t, cfg.Filters["duration_limit_filter"].Enabled)
	assert.NotContains(t, cfg.Filters, "unknown_filter")
	assert.Equal(t, 2, cfg.Filters["user_pending_filter"].Settings["max_pending"])

	assert.Equal(t, "Nothing is playing.", cfg.Messages.NothingPlaying)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("BOT_MAINTAINER_ID", "42")
	t.Setenv("BOT_CONTROL_GROUP_ID", "77")

	cfg, err := Parse([]byte("player:\n  command: vlc\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, "42", cfg.Bot.MaintainerID)
	assert.Equal(t, "77", cfg.Bot.ControlGroupID)
	assert.Equal(t, "vlc", cfg.Player.Command)
}

func TestParse_Errors(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("BOT_MAINTAINER_ID", "")
	t.Setenv("BOT_CONTROL_GROUP_ID", "")

	_, err := Parse([]byte("bot: [unclosed"))
	assert.Error(t, err)

	_, err = Parse([]byte("bot:\n  token: abc\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
bot:
  token: file-token
  maintainer_id: "1"
  control_group_id: "2"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "file-token", cfg.Bot.Token)
}

func TestConfig_GetMessage(t *testing.T) {
	cfg := &Config{}
	cfg.Messages = MessagesConfig{
		DefaultError:          "default",
		NotPlayable:           "not playable",
		DuplicateLink:         "duplicate",
		UserPending:           "pending",
		DurationLimitExceeded: "too long",
		Unauthorized:          "unauthorized",
		NothingPlaying:        "nothing",
		PrivateDenied:         "private",
	}

	tests := map[string]string{
		"not_playable":            "not playable",
		"duplicate_link":          "duplicate",
		"user_pending":            "pending",
		"duration_limit_exceeded": "too long",
		"unauthorized":            "unauthorized",
		"nothing_playing":         "nothing",
		"private_denied":          "private",
		"something_else":          "default",
	}
	for code, want := range tests {
		assert.Equal(t, want, cfg.GetMessage(code), code)
	}
}
