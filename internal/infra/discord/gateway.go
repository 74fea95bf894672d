// Package discord connects the chat layer to Discord.
package discord

import (
	"context"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/chat"
	"github.com/osa030/19tube/internal/infra/metrics"
)

// MaxMessageLength is the Discord limit for message content.
const MaxMessageLength = 2000

// messageAPI is the part of discordgo.Session used for sending.
type messageAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Gateway receives messages from Discord and posts replies.
// Inbound messages are handled one at a time in arrival order.
type Gateway struct {
	session *discordgo.Session
	api     messageAPI
	inbox   chan chat.Message

	mu      sync.Mutex
	running bool
}

// New creates a gateway for the bot token. The connection is opened by Run.
func New(token string) (*Gateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	return &Gateway{
		session: s,
		api:     s,
		inbox:   make(chan chat.Message, 64),
	}, nil
}

// Run opens the connection and delivers messages to handler until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context, handler chat.Handler) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return errors.New("discord gateway is already running")
	}
	g.running = true
	g.mu.Unlock()

	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		zlog.Info().Msgf("discord: connected as %s", r.User.Username)
	})
	g.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		msg, ok := ToMessage(m.Message)
		if !ok {
			return
		}
		g.enqueue(msg)
	})

	if err := g.session.Open(); err != nil {
		return errors.Wrap(err, "failed to open discord session")
	}
	defer func() {
		if err := g.session.Close(); err != nil {
			zlog.Warn().Err(err).Msg("discord: close failed")
		}
	}()

	g.consume(ctx, handler)
	return nil
}

// enqueue hands a message to the consumer without blocking the event reader.
func (g *Gateway) enqueue(msg chat.Message) {
	select {
	case g.inbox <- msg:
	default:
		metrics.InboundDroppedTotal.Inc()
		zlog.Error().Msgf("discord: inbox full, dropping message %s from %s in %s", msg.ID, msg.SenderID, msg.GroupID)
	}
}

func (g *Gateway) consume(ctx context.Context, handler chat.Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-g.inbox:
			handler.Handle(ctx, msg)
		}
	}
}

// Send posts a message, splitting it when it exceeds the Discord limit.
// Only the first part replies to the original message.
func (g *Gateway) Send(ctx context.Context, out chat.Outgoing) error {
	for i, part := range SplitMessage(out.Text, MaxMessageLength) {
		data := &discordgo.MessageSend{
			Content: part,
			Flags:   discordgo.MessageFlagsSuppressEmbeds,
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
			},
		}
		if i == 0 && out.ReplyTo != "" {
			failIfNotExists := false
			data.Reference = &discordgo.MessageReference{
				MessageID:       out.ReplyTo,
				ChannelID:       out.GroupID,
				FailIfNotExists: &failIfNotExists,
			}
		}

		if _, err := g.api.ChannelMessageSendComplex(out.GroupID, data, discordgo.WithContext(ctx)); err != nil {
			return errors.Wrapf(err, "failed to send message to channel %s", out.GroupID)
		}
	}
	return nil
}

// ToMessage converts a Discord message. Messages from bots, including this
// one, are rejected.
func ToMessage(m *discordgo.Message) (chat.Message, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return chat.Message{}, false
	}

	name := m.Author.DisplayName()
	if m.Member != nil && m.Member.Nick != "" {
		name = m.Member.Nick
	}

	return chat.Message{
		ID:         m.ID,
		SenderID:   m.Author.ID,
		SenderName: name,
		GroupID:    m.ChannelID,
		Private:    m.GuildID == "",
		Text:       m.Content,
	}, true
}

// SplitMessage splits text into parts of at most limit bytes, preferring line
// boundaries.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	flush := func() {
		if part := strings.Trim(cur.String(), "\n"); part != "" {
			parts = append(parts, part)
		}
		cur.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			// Do not cut inside a UTF-8 sequence
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				// No rune boundary within the limit (invalid UTF-8)
				cut = limit
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			flush()
		}
		cur.WriteString(line)
	}
	flush()
	return parts
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
