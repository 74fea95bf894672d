package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/app/player"
	"github.com/osa030/19tube/internal/domain/video"
	"github.com/osa030/19tube/internal/infra/metrics"
)

// Errors
var (
	ErrClosed         = errors.New("playback controller is not running")
	ErrAlreadyRunning = errors.New("playback controller is already running")
	ErrUnauthorized   = errors.New("sender is not the maintainer")
	ErrNothingPlaying = errors.New("nothing is playing")
)

// Authorizer decides who may force-advance the queue.
type Authorizer interface {
	IsMaintainer(senderID string) bool
}

// Config holds controller configuration.
type Config struct {
	EventBuffer int // Capacity of the event channel
}

// Snapshot is a consistent, read-only view of the queue.
type Snapshot struct {
	State    string            // Name of the playback state
	Current  *video.QueueItem  // Now playing (nil unless playing)
	Stopping bool              // Skip requested for Current
	Pending  []video.QueueItem // Waiting items in play order
}

// IsPlaying reports whether an item is playing.
func (s Snapshot) IsPlaying() bool {
	return s.Current != nil
}

type requestKind int

const (
	requestEnqueue requestKind = iota
	requestNext
)

type request struct {
	kind     requestKind
	item     video.QueueItem
	senderID string
	reply    chan response
}

type response struct {
	item video.QueueItem
	err  error
}

// Controller owns the queue and the playback state.
// All mutations run on the goroutine executing Run; other methods post requests to it.
type Controller struct {
	driver player.Driver
	auth   Authorizer
	config Config

	requests chan request
	eventCh  chan Event
	done     chan struct{}

	started   atomic.Bool
	closeOnce sync.Once

	// Owned by the Run goroutine
	queue []video.QueueItem
	state State
	seq   uint64

	// Published view for concurrent readers
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewController creates a new playback controller.
func NewController(config Config, driver player.Driver, auth Authorizer) *Controller {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 32
	}
	c := &Controller{
		driver:   driver,
		auth:     auth,
		config:   config,
		requests: make(chan request),
		eventCh:  make(chan Event, config.EventBuffer),
		done:     make(chan struct{}),
		queue:    make([]video.QueueItem, 0),
		state:    Idle{},
	}
	c.publish()
	return c
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Run processes requests and player completions until ctx is cancelled.
// A live player process is force-stopped on return.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)
	defer c.shutdown()

	zlog.Debug().Msg("playback: controller loop started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-c.requests:
			req.reply <- c.handleRequest(ctx, req)
		case comp := <-c.driver.Completions():
			c.handleCompletion(ctx, comp)
		}
	}
}

// Close closes the event channel. It waits for Run to return if it was started.
func (c *Controller) Close() {
	if c.started.Load() {
		<-c.done
	}
	c.closeOnce.Do(func() { close(c.eventCh) })
}

// Enqueue appends an item to the queue and starts playback when idle.
// It returns the item as stored, with its sequence number assigned.
func (c *Controller) Enqueue(ctx context.Context, item video.QueueItem) (video.QueueItem, error) {
	resp, err := c.submit(ctx, request{kind: requestEnqueue, item: item})
	if err != nil {
		return video.QueueItem{}, err
	}
	return resp.item, resp.err
}

// RequestNext stops the current item so that the next one starts.
// Only the maintainer may call it; anyone else gets ErrUnauthorized and nothing changes.
func (c *Controller) RequestNext(ctx context.Context, senderID string) error {
	resp, err := c.submit(ctx, request{kind: requestNext, senderID: senderID})
	if err != nil {
		return err
	}
	return resp.err
}

// ListPending returns the current snapshot. It never blocks on the controller loop.
func (c *Controller) ListPending() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.snapshot
	s.Pending = make([]video.QueueItem, len(c.snapshot.Pending))
	copy(s.Pending, c.snapshot.Pending)
	if c.snapshot.Current != nil {
		cur := *c.snapshot.Current
		s.Current = &cur
	}
	return s
}

// submit hands a request to the Run goroutine and waits for the reply.
func (c *Controller) submit(ctx context.Context, req request) (response, error) {
	req.reply = make(chan response, 1)

	select {
	case c.requests <- req:
	case <-c.done:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func (c *Controller) handleRequest(ctx context.Context, req request) response {
	switch req.kind {
	case requestEnqueue:
		return c.enqueue(ctx, req.item)
	case requestNext:
		return response{err: c.requestNext(req.senderID)}
	default:
		return response{err: errors.Newf("unknown request kind %d", req.kind)}
	}
}

func (c *Controller) enqueue(ctx context.Context, item video.QueueItem) response {
	c.seq++
	item.Seq = c.seq
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}

	c.queue = append(c.queue, item)
	zlog.Info().Msgf("playback: enqueued seq=%d handle=%s submitter=%s pending=%d",
		item.Seq, item.Video.Handle, item.Submitter.Name, len(c.queue))

	if _, idle := c.state.(Idle); idle {
		c.advance(ctx)
	} else {
		c.publish()
	}

	return response{item: item}
}

func (c *Controller) requestNext(senderID string) error {
	if c.auth == nil || !c.auth.IsMaintainer(senderID) {
		zlog.Info().Msgf("playback: next refused for sender=%s", senderID)
		return ErrUnauthorized
	}

	p, ok := c.state.(Playing)
	if !ok {
		return ErrNothingPlaying
	}
	if p.Stopping {
		return nil
	}

	zlog.Info().Msgf("playback: skipping seq=%d handle=%s", p.Item.Seq, p.Item.Video.Handle)
	p.Stopping = true
	c.state = p
	c.publish()
	c.driver.ForceStop()
	return nil
}

func (c *Controller) handleCompletion(ctx context.Context, comp player.Completion) {
	p, ok := c.state.(Playing)
	if !ok || p.Process.ID != comp.Process.ID {
		zlog.Debug().Msgf("playback: ignoring stale completion for process id=%d", comp.Process.ID)
		return
	}

	item := p.Item
	forced := comp.Cause == player.CauseForced || p.Stopping
	if forced {
		metrics.RecordPlaybackEnd(player.CauseForced.String())
		c.sendEvent(Event{Type: EventSkipped, Item: &item, Pending: len(c.queue)})
	} else {
		metrics.RecordPlaybackEnd(player.CauseNatural.String())
		if !comp.Success() {
			zlog.Warn().Msgf("playback: player exited with code=%d for handle=%s: %v",
				comp.ExitCode, item.Video.Handle, comp.Err)
		}
		c.sendEvent(Event{Type: EventEnded, Item: &item, ExitCode: comp.ExitCode, Err: comp.Err, Pending: len(c.queue)})
	}

	c.advance(ctx)
}

// advance dispatches the next playable item, discarding items whose launch fails.
func (c *Controller) advance(ctx context.Context) {
	c.state = Advancing{}
	c.publish()

	for len(c.queue) > 0 {
		item := c.queue[0]
		c.queue = c.queue[1:]

		proc, err := c.driver.Start(ctx, item.Video)
		if err != nil {
			zlog.Error().Err(err).Msgf("playback: failed to start seq=%d handle=%s", item.Seq, item.Video.Handle)
			metrics.LaunchFailuresTotal.Inc()
			failed := item
			c.sendEvent(Event{Type: EventLaunchFailed, Item: &failed, Err: err, Pending: len(c.queue)})
			continue
		}

		metrics.PlaybackStartsTotal.Inc()
		c.state = Playing{Item: item, Process: proc}
		c.publish()

		zlog.Info().Msgf("playback: now playing seq=%d handle=%s pid=%d", item.Seq, item.Video.Handle, proc.PID)
		started := item
		c.sendEvent(Event{Type: EventStarted, Item: &started, Pending: len(c.queue)})
		return
	}

	c.state = Idle{}
	c.publish()
	zlog.Info().Msg("playback: queue empty, idle")
	c.sendEvent(Event{Type: EventQueueEmpty})
}

// shutdown stops a live process when the loop exits.
func (c *Controller) shutdown() {
	if p, ok := c.state.(Playing); ok {
		zlog.Info().Msgf("playback: stopping seq=%d on shutdown", p.Item.Seq)
		c.driver.ForceStop()
	}
	c.state = Idle{}
	c.publish()
}

// publish stores a snapshot of the loop-owned state for concurrent readers.
// Must be called from the Run goroutine (or before it starts).
func (c *Controller) publish() {
	pending := make([]video.QueueItem, len(c.queue))
	copy(pending, c.queue)

	s := Snapshot{
		State:   c.state.Name(),
		Pending: pending,
	}
	if p, ok := c.state.(Playing); ok {
		cur := p.Item
		s.Current = &cur
		s.Stopping = p.Stopping
	}

	c.mu.Lock()
	c.snapshot = s
	c.mu.Unlock()

	metrics.SetQueueState(len(pending), s.Current != nil)
}

// sendEvent sends an event without blocking.
func (c *Controller) sendEvent(e Event) {
	select {
	case c.eventCh <- e:
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping %s", e.Type)
	}
}
