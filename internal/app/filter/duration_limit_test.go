package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/19tube/internal/domain/video"
)

func TestDurationLimitFilter_Check(t *testing.T) {
	tests := []struct {
		name          string
		minMinutes    float64
		maxMinutes    float64
		videoDuration time.Duration
		shouldReject  bool
		description   string
	}{
		{
			name:          "Within limits",
			minMinutes:    2.0,
			maxMinutes:    5.0,
			videoDuration: 3 * time.Minute,
			shouldReject:  false,
			description:   "Should accept video within min/max limits",
		},
		{
			name:          "Too short",
			minMinutes:    3.0,
			maxMinutes:    0,
			videoDuration: 2 * time.Minute,
			shouldReject:  true,
			description:   "Should reject video shorter than min",
		},
		{
			name:          "Too long",
			minMinutes:    0,
			maxMinutes:    5.0,
			videoDuration: 6 * time.Minute,
			shouldReject:  true,
			description:   "Should reject video longer than max",
		},
		{
			name:          "Exact max",
			minMinutes:    1.0,
			maxMinutes:    5.0,
			videoDuration: 5 * time.Minute,
			shouldReject:  false,
			description:   "Should accept video exactly at max",
		},
		{
			name:          "No upper limit",
			minMinutes:    0,
			maxMinutes:    0,
			videoDuration: 3 * time.Hour,
			shouldReject:  false,
			description:   "Should accept long video when max is 0",
		},
		{
			name:          "Unknown duration",
			minMinutes:    1.0,
			maxMinutes:    5.0,
			videoDuration: 0,
			shouldReject:  false,
			description:   "Should accept video without known duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			f.config = &DurationLimitConfig{
				MinMinutes: tt.minMinutes,
				MaxMinutes: tt.maxMinutes,
			}

			result := f.Check(context.Background(), Request{
				Video: video.Video{Handle: "h", Duration: tt.videoDuration},
				Role:  RoleMember,
			})

			if tt.shouldReject {
				assert.False(t, result.Accepted, tt.description)
				assert.Equal(t, "duration_limit_exceeded", result.Code)
			} else {
				assert.True(t, result.Accepted, tt.description)
			}
		})
	}
}

func TestDurationLimitFilter_Unconfigured(t *testing.T) {
	f := NewDurationLimitFilter()
	result := f.Check(context.Background(), Request{Video: video.Video{Duration: 10 * time.Hour}})
	assert.True(t, result.Accepted)
}

func TestDurationLimitFilter_AppliesTo(t *testing.T) {
	f := NewDurationLimitFilter()
	assert.True(t, f.AppliesTo(RoleMember))
	assert.False(t, f.AppliesTo(RoleMaintainer))
}

func TestDurationLimitFilter_MaintainerBypassInChain(t *testing.T) {
	f := NewDurationLimitFilter()
	assert.NoError(t, f.ValidateConfig(map[string]any{"max_minutes": 5}))
	chain := NewChain()
	chain.Add(f)

	long := video.Video{Handle: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Duration: time.Hour}

	member := chain.Execute(context.Background(), Request{Video: long, Role: RoleMember})
	assert.False(t, member.Accepted)
	assert.Equal(t, "duration_limit_exceeded", member.Code)

	maintainer := chain.Execute(context.Background(), Request{Video: long, Role: RoleMaintainer})
	assert.True(t, maintainer.Accepted)
}

func TestDurationLimitFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]interface{}
		wantErr  bool
	}{
		{
			name: "Valid config",
			settings: map[string]interface{}{
				"min_minutes": 0.5,
				"max_minutes": 10.0,
			},
			wantErr: false,
		},
		{
			name: "Valid integers",
			settings: map[string]interface{}{
				"min_minutes": 1,
				"max_minutes": 10,
			},
			wantErr: false,
		},
		{
			name: "Invalid min > max",
			settings: map[string]interface{}{
				"min_minutes": 10.0,
				"max_minutes": 5.0,
			},
			wantErr: true,
		},
		{
			name: "Invalid negative min",
			settings: map[string]interface{}{
				"min_minutes": -1.0,
			},
			wantErr: true,
		},
		{
			name: "Zero max (allowed, means no limit)",
			settings: map[string]interface{}{
				"min_minutes": 3.0,
				"max_minutes": 0.0,
			},
			wantErr: false,
		},
		{
			name: "Invalid negative max",
			settings: map[string]interface{}{
				"max_minutes": -1.0,
			},
			wantErr: true,
		},
		{
			name: "Invalid type",
			settings: map[string]interface{}{
				"max_minutes": "ten",
			},
			wantErr: true,
		},
		{
			name:     "Empty settings",
			settings: map[string]interface{}{},
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			err := f.ValidateConfig(tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
