package ytdlp

import (
	"testing"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFromExtracted(t *testing.T) {
	tests := []struct {
		name     string
		input    *goytdlp.ExtractedInfo
		expected *Info
	}{
		{
			name:     "nil",
			input:    nil,
			expected: nil,
		},
		{
			name: "single video",
			input: &goytdlp.ExtractedInfo{
				ID:         "dQw4w9WgXcQ",
				Title:      ptr("Never Gonna Give You Up"),
				WebpageURL: ptr("https://www.youtube.com/watch?v=dQw4w9WgXcQ"),
				Duration:   ptr(212.5),
			},
			expected: &Info{
				ID:         "dQw4w9WgXcQ",
				Title:      "Never Gonna Give You Up",
				WebpageURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
				Duration:   212500 * time.Millisecond,
			},
		},
		{
			name: "live stream without duration",
			input: &goytdlp.ExtractedInfo{
				ID:     "live1",
				IsLive: ptr(true),
			},
			expected: &Info{ID: "live1", IsLive: true},
		},
		{
			name: "playlist uses first entry",
			input: &goytdlp.ExtractedInfo{
				ID: "PL123",
				Entries: []*goytdlp.ExtractedInfo{
					nil,
					{ID: "first", Title: ptr("First")},
					{ID: "second", Title: ptr("Second")},
				},
			},
			expected: &Info{ID: "first", Title: "First"},
		},
		{
			name: "playlist with only nil entries",
			input: &goytdlp.ExtractedInfo{
				ID:      "PL0",
				Entries: []*goytdlp.ExtractedInfo{nil},
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromExtracted(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.expected, *got)
		})
	}
}
