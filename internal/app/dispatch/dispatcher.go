// Package dispatch routes chat messages to queue operations.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/app/authz"
	"github.com/osa030/19tube/internal/app/filter"
	"github.com/osa030/19tube/internal/app/playback"
	"github.com/osa030/19tube/internal/app/resolver"
	"github.com/osa030/19tube/internal/chat"
	"github.com/osa030/19tube/internal/domain/video"
	"github.com/osa030/19tube/internal/infra/metrics"
)

// Engine is the queue surface used by the dispatcher.
type Engine interface {
	Enqueue(ctx context.Context, item video.QueueItem) (video.QueueItem, error)
	RequestNext(ctx context.Context, senderID string) error
	ListPending() playback.Snapshot
}

// Resolver turns message text into videos.
type Resolver interface {
	Resolve(ctx context.Context, text string) resolver.Result
}

// Messages provides user-facing texts by code.
type Messages interface {
	GetMessage(code string) string
}

// Command names.
const (
	CommandHelp  = "help"
	CommandQueue = "queue"
	CommandNext  = "next"
)

const helpText = "You can use the following commands:\n" +
	"/help - display this help.\n" +
	"/queue - show the current queue.\n" +
	"/next - skip the current video (maintainer only).\n\n" +
	"Post a video link to add it to the queue."

// Dispatcher handles inbound chat messages.
type Dispatcher struct {
	engine   Engine
	resolver Resolver
	chain    *filter.Chain
	policy   authz.Policy
	sender   chat.Sender
	messages Messages
}

// New creates a new dispatcher. chain may be nil to accept every resolved video.
func New(engine Engine, res Resolver, chain *filter.Chain, policy authz.Policy, sender chat.Sender, messages Messages) *Dispatcher {
	if chain == nil {
		chain = filter.NewChain()
	}
	return &Dispatcher{
		engine:   engine,
		resolver: res,
		chain:    chain,
		policy:   policy,
		sender:   sender,
		messages: messages,
	}
}

// Handle processes one inbound message. Messages from outside the control
// group are dropped without a reply.
func (d *Dispatcher) Handle(ctx context.Context, msg chat.Message) {
	if msg.Private {
		d.handlePrivate(ctx, msg)
		return
	}

	if !d.policy.IsFromControlGroup(msg.GroupID) {
		zlog.Debug().Msgf("dispatch: dropping message from foreign group %s", msg.GroupID)
		return
	}

	if cmd, ok := ParseCommand(msg.Text); ok {
		switch cmd {
		case CommandHelp, CommandQueue, CommandNext:
			d.handleCommand(ctx, msg, cmd)
			return
		}
	}

	d.handleLinks(ctx, msg)
}

// handlePrivate only lets the maintainer run commands in direct messages.
func (d *Dispatcher) handlePrivate(ctx context.Context, msg chat.Message) {
	if !d.policy.IsMaintainer(msg.SenderID) {
		zlog.Info().Msgf("dispatch: refusing private message from %s", msg.SenderID)
		d.reply(ctx, msg, d.messages.GetMessage("private_denied"))
		return
	}

	cmd, ok := ParseCommand(msg.Text)
	if !ok {
		return
	}
	switch cmd {
	case CommandHelp, CommandQueue, CommandNext:
		d.handleCommand(ctx, msg, cmd)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg chat.Message, cmd string) {
	switch cmd {
	case CommandHelp:
		metrics.RecordCommand(cmd, "ok")
		d.send(ctx, chat.Outgoing{GroupID: msg.GroupID, Text: helpText})

	case CommandQueue:
		metrics.RecordCommand(cmd, "ok")
		d.reply(ctx, msg, FormatQueue(d.engine.ListPending()))

	case CommandNext:
		err := d.engine.RequestNext(ctx, msg.SenderID)
		switch {
		case err == nil:
			metrics.RecordCommand(cmd, "ok")
		case errors.Is(err, playback.ErrUnauthorized):
			metrics.RecordCommand(cmd, "unauthorized")
			d.reply(ctx, msg, d.messages.GetMessage("unauthorized"))
		case errors.Is(err, playback.ErrNothingPlaying):
			metrics.RecordCommand(cmd, "idle")
			d.reply(ctx, msg, d.messages.GetMessage("nothing_playing"))
		default:
			metrics.RecordCommand(cmd, "error")
			zlog.Error().Err(err).Msg("dispatch: next failed")
			d.reply(ctx, msg, d.messages.GetMessage("default_error"))
		}
	}
}

// handleLinks resolves, filters and enqueues the videos referenced by msg.
// Text without links is ignored.
func (d *Dispatcher) handleLinks(ctx context.Context, msg chat.Message) {
	res := d.resolver.Resolve(ctx, msg.Text)
	if res.Empty() {
		return
	}

	var problems []string
	for _, rej := range res.Rejections {
		metrics.RecordSubmission(rej.Reason)
		problems = append(problems, fmt.Sprintf("%s (%s)", d.messages.GetMessage(rej.Reason), rej.Link))
	}

	role := filter.RoleMember
	if d.policy.IsMaintainer(msg.SenderID) {
		role = filter.RoleMaintainer
	}
	submitter := video.Submitter{ID: msg.SenderID, Name: msg.SenderName}

	added := 0
	for _, v := range res.Videos {
		result := d.chain.Execute(ctx, filter.Request{Video: v, Submitter: submitter, Role: role})
		if !result.Accepted {
			zlog.Info().Msgf("dispatch: %s rejected %s (%s)", submitter.Name, v.Handle, result.Code)
			metrics.RecordSubmission(result.Code)
			problems = append(problems, fmt.Sprintf("%s (%s)", d.messages.GetMessage(result.Code), v.Label()))
			continue
		}

		if _, err := d.engine.Enqueue(ctx, video.QueueItem{Video: v, Submitter: submitter}); err != nil {
			zlog.Error().Err(err).Msgf("dispatch: enqueue %s failed", v.Handle)
			metrics.RecordSubmission("error")
			problems = append(problems, fmt.Sprintf("%s (%s)", d.messages.GetMessage("default_error"), v.Label()))
			continue
		}
		metrics.RecordSubmission("accepted")
		added++
	}

	var lines []string
	if added > 0 {
		lines = append(lines, AddedText(added))
	}
	lines = append(lines, problems...)
	d.reply(ctx, msg, strings.Join(lines, "\n"))
}

func (d *Dispatcher) reply(ctx context.Context, msg chat.Message, text string) {
	d.send(ctx, chat.Outgoing{GroupID: msg.GroupID, ReplyTo: msg.ID, Text: text})
}

func (d *Dispatcher) send(ctx context.Context, out chat.Outgoing) {
	if out.Text == "" {
		return
	}
	if err := d.sender.Send(ctx, out); err != nil {
		zlog.Warn().Err(err).Msgf("dispatch: failed to send to %s", out.GroupID)
	}
}

// ParseCommand extracts the lowercased command name from text such as
// "/Queue@mybot extra". It reports false for text that is not a command.
func ParseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	if cmd == "" {
		return "", false
	}
	return strings.ToLower(cmd), true
}

// AddedText is the confirmation sent after videos were queued.
func AddedText(n int) string {
	if n == 1 {
		return "Added 1 video to queue!"
	}
	return fmt.Sprintf("Added %d videos to queue!", n)
}

// FormatQueue renders a queue snapshot for chat.
func FormatQueue(snap playback.Snapshot) string {
	var b strings.Builder
	b.WriteString("The current queue:\n\n")

	if snap.Current != nil {
		fmt.Fprintf(&b, "> %s", snap.Current.Video.Label())
		if snap.Stopping {
			b.WriteString(" (skipping)")
		}
		b.WriteString("\n")
	}
	for _, it := range snap.Pending {
		fmt.Fprintf(&b, "- %s\n", it.Video.Label())
	}

	status := "Not Playing"
	if snap.IsPlaying() {
		status = "Playing"
	}
	fmt.Fprintf(&b, "**Status:** %s", status)
	return b.String()
}
