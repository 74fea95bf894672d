// Package player provides the driver for the external media player process.
package player

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/domain/video"
)

// Errors
var (
	ErrBusy         = errors.New("player process already running")
	ErrLaunchFailed = errors.New("player launch failed")
)

// URLPlaceholder is replaced by the playable handle in Config.Args.
const URLPlaceholder = "{url}"

// Cause describes why a player process ended.
type Cause int

const (
	CauseNatural Cause = iota // Process exited on its own
	CauseForced               // Process was terminated by ForceStop
)

// String returns the string representation of the cause.
func (c Cause) String() string {
	switch c {
	case CauseNatural:
		return "natural"
	case CauseForced:
		return "forced"
	default:
		return "unknown"
	}
}

// Process is a handle to a started player process.
type Process struct {
	ID        uint64 // Driver-local sequence, unique per process
	PID       int
	Video     video.Video
	StartedAt time.Time
}

// Completion is delivered exactly once per started process.
type Completion struct {
	Process  Process
	Cause    Cause
	ExitCode int
	Err      error // Wait error (non-nil on non-zero exit or signal)
}

// Success reports whether the process exited cleanly.
func (c Completion) Success() bool {
	return c.Err == nil && c.ExitCode == 0
}

// Driver starts and stops the external player.
type Driver interface {
	// Start spawns a player for v. Only one process may be tracked at a time.
	Start(ctx context.Context, v video.Video) (Process, error)
	// ForceStop terminates the tracked process. No-op when nothing is running.
	ForceStop()
	// Completions delivers one Completion per started process.
	Completions() <-chan Completion
}

// Config holds driver configuration.
type Config struct {
	Command   string        // Player executable
	Args      []string      // Arguments; URLPlaceholder is substituted, otherwise the handle is appended
	StopGrace time.Duration // Time between SIGTERM and SIGKILL on ForceStop
	Output    io.Writer     // Receives player stdout/stderr (nil discards)
}

type running struct {
	process Process
	cmd     *exec.Cmd
	forced  atomic.Bool
	done    chan struct{}
}

// ProcessDriver runs the player as an OS process.
type ProcessDriver struct {
	mu      sync.Mutex
	config  Config
	current *running
	nextID  uint64

	completions chan Completion
	quit        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

// NewProcessDriver creates a new process driver.
func NewProcessDriver(config Config) *ProcessDriver {
	if config.StopGrace <= 0 {
		config.StopGrace = 3 * time.Second
	}
	return &ProcessDriver{
		config:      config,
		completions: make(chan Completion, 4),
		quit:        make(chan struct{}),
	}
}

// Completions returns the completion channel.
func (d *ProcessDriver) Completions() <-chan Completion {
	return d.completions
}

// Start spawns the player for the given video.
func (d *ProcessDriver) Start(ctx context.Context, v video.Video) (Process, error) {
	if err := ctx.Err(); err != nil {
		return Process{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		return Process{}, ErrBusy
	}

	args := buildArgs(d.config.Args, v.Handle)
	cmd := exec.Command(d.config.Command, args...)
	cmd.Stdout = d.config.Output
	cmd.Stderr = d.config.Output
	// Children left holding the output pipe must not keep Wait blocked
	cmd.WaitDelay = d.config.StopGrace
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return Process{}, errors.Mark(errors.Wrapf(err, "failed to start %s", d.config.Command), ErrLaunchFailed)
	}

	d.nextID++
	r := &running{
		process: Process{
			ID:        d.nextID,
			PID:       cmd.Process.Pid,
			Video:     v,
			StartedAt: time.Now(),
		},
		cmd:  cmd,
		done: make(chan struct{}),
	}
	d.current = r

	zlog.Debug().Msgf("player: started pid=%d id=%d handle=%s", r.process.PID, r.process.ID, v.Handle)

	d.wg.Add(1)
	go d.wait(r)

	return r.process, nil
}

// ForceStop terminates the running process, if any.
// The exit is reported on Completions with CauseForced.
func (d *ProcessDriver) ForceStop() {
	d.mu.Lock()
	r := d.current
	d.mu.Unlock()

	if r == nil {
		return
	}
	if r.forced.Swap(true) {
		// Already stopping
		return
	}

	d.wg.Add(1)
	go d.terminate(r)
}

// Close stops any running process and waits for its goroutines to finish.
func (d *ProcessDriver) Close() {
	d.ForceStop()
	d.closeOnce.Do(func() { close(d.quit) })
	d.wg.Wait()
}

// wait blocks until the process exits and publishes its completion.
func (d *ProcessDriver) wait(r *running) {
	defer d.wg.Done()

	err := r.cmd.Wait()
	if errors.Is(err, exec.ErrWaitDelay) {
		zlog.Debug().Msgf("player: pid=%d exited with output still held open", r.process.PID)
		err = nil
	}

	d.mu.Lock()
	if d.current == r {
		d.current = nil
	}
	d.mu.Unlock()
	close(r.done)

	c := Completion{
		Process:  r.process,
		Cause:    CauseNatural,
		ExitCode: r.cmd.ProcessState.ExitCode(),
		Err:      err,
	}
	if r.forced.Load() {
		c.Cause = CauseForced
	}

	zlog.Debug().Msgf("player: exited pid=%d id=%d cause=%s code=%d", r.process.PID, r.process.ID, c.Cause, c.ExitCode)

	select {
	case d.completions <- c:
	case <-d.quit:
	}
}

// terminate sends SIGTERM to the process group and escalates to SIGKILL after the grace period.
func (d *ProcessDriver) terminate(r *running) {
	defer d.wg.Done()

	select {
	case <-r.done:
		return
	default:
	}

	if err := signalProcess(r.cmd, false); err != nil {
		zlog.Debug().Msgf("player: terminate pid=%d: %v", r.process.PID, err)
	}

	timer := time.NewTimer(d.config.StopGrace)
	defer timer.Stop()

	select {
	case <-r.done:
		return
	case <-timer.C:
	}

	zlog.Warn().Msgf("player: pid=%d did not exit within %v, killing", r.process.PID, d.config.StopGrace)
	if err := signalProcess(r.cmd, true); err != nil {
		zlog.Debug().Msgf("player: kill pid=%d: %v", r.process.PID, err)
	}
}

// buildArgs substitutes the handle into args, appending it when no placeholder is present.
func buildArgs(args []string, handle string) []string {
	out := make([]string, 0, len(args)+1)
	substituted := false
	for _, a := range args {
		if strings.Contains(a, URLPlaceholder) {
			a = strings.ReplaceAll(a, URLPlaceholder, handle)
			substituted = true
		}
		out = append(out, a)
	}
	if !substituted {
		out = append(out, handle)
	}
	return out
}
