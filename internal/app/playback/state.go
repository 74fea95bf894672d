// Package playback provides playback control with integrated queue management.
package playback

import (
	"github.com/osa030/19tube/internal/app/player"
	"github.com/osa030/19tube/internal/domain/video"
)

// State represents the playback state. It is exactly one of Idle, Playing or Advancing.
type State interface {
	// Name returns the string representation of the state.
	Name() string
	isState()
}

// Idle means no item is playing.
type Idle struct{}

// Playing means Item is the active playback target, rendered by Process.
type Playing struct {
	Item     video.QueueItem
	Process  player.Process
	Stopping bool // ForceStop requested, waiting for the exit
}

// Advancing is entered while the next item is selected and dispatched.
type Advancing struct{}

// State names
const (
	StateIdle      = "idle"
	StatePlaying   = "playing"
	StateAdvancing = "advancing"
)

func (Idle) Name() string      { return StateIdle }
func (Playing) Name() string   { return StatePlaying }
func (Advancing) Name() string { return StateAdvancing }

func (Idle) isState()      {}
func (Playing) isState()   {}
func (Advancing) isState() {}
