package bot

import (
	"context"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/i474232898/weather-bot/internal/weather"
)

// Session is the part of *discordgo.Session the handlers use.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// FollowUpScheduler runs a task once after a delay.
type FollowUpScheduler interface {
	After(delay time.Duration, name string, task func()) (cancel func(), err error)
}

// Options configures a Bot.
type Options struct {
	Prefix         string
	CommandTimeout time.Duration
	FollowUpDelay  time.Duration
}

// Bot connects the Dispatcher to Discord events.
type Bot struct {
	dispatcher *Dispatcher
	followUps  FollowUpScheduler
	opts       Options

	mu      sync.Mutex
	pending map[uint64]func()
	nextID  uint64
}

// New creates a new Bot.
func New(dispatcher *Dispatcher, followUps FollowUpScheduler, opts Options) *Bot {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 15 * time.Second
	}
	return &Bot{
		dispatcher: dispatcher,
		followUps:  followUps,
		opts:       opts,
		pending:    make(map[uint64]func()),
	}
}

// Close cancels follow-ups that have not been sent yet. Call before closing
// the Discord session.
func (b *Bot) Close() {
	b.mu.Lock()
	cancels := make([]func(), 0, len(b.pending))
	for id, cancel := range b.pending {
		cancels = append(cancels, cancel)
		delete(b.pending, id)
	}
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Attach registers the bot's handlers and gateway intents on s. Call before
// s.Open.
func (b *Bot) Attach(s *discordgo.Session) {
	s.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Printf("INFO: Logged in as %s#%s", r.User.Username, r.User.Discriminator)
	})
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.HandleInteraction(s, i)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.HandleMessage(s, m)
	})
}

func recoverHandler(kind string) {
	if r := recover(); r != nil {
		log.Printf("ERROR: %s handler panicked: %v", kind, r)
	}
}

// HandleInteraction answers a slash command. Commands that do I/O are
// deferred first and then edited with the result.
func (b *Bot) HandleInteraction(s Session, i *discordgo.InteractionCreate) {
	defer recoverHandler("interaction")

	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	req := Request{Command: data.Name, Prefix: SlashPrefix}
	for _, opt := range data.Options {
		if opt.Name == "location" {
			req.Location = opt.StringValue()
		}
	}
	if !Known(req.Command) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.CommandTimeout)
	defer cancel()

	if Validate(req) != "" || req.Command == CmdHelp {
		reply := b.dispatcher.Handle(ctx, req)
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: reply.Content,
				Embeds:  toEmbeds(reply.Panels),
			},
		})
		if err != nil {
			log.Printf("ERROR: responding to /%s: %v", req.Command, err)
		}
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("ERROR: deferring /%s: %v", req.Command, err)
		return
	}

	reply := b.dispatcher.Handle(ctx, req)
	content := reply.Content
	embeds := toEmbeds(reply.Panels)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}); err != nil {
		log.Printf("ERROR: editing reply to /%s: %v", req.Command, err)
		return
	}

	b.scheduleFollowUp(s, i.ChannelID, reply)
}

// HandleMessage answers a prefix command such as "!forecast Paris".
func (b *Bot) HandleMessage(s Session, m *discordgo.MessageCreate) {
	defer recoverHandler("message")

	if m.Author == nil || m.Author.Bot {
		return
	}
	req, ok := ParsePrefix(b.opts.Prefix, m.Content)
	if !ok || !Known(req.Command) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.CommandTimeout)
	defer cancel()

	loading := LoadingText(req)
	if loading == "" || Validate(req) != "" {
		reply := b.dispatcher.Handle(ctx, req)
		if reply.Empty() {
			return
		}
		if _, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Content:   reply.Content,
			Embeds:    toEmbeds(reply.Panels),
			Reference: m.Reference(),
		}); err != nil {
			log.Printf("ERROR: replying to %s%s: %v", req.Prefix, req.Command, err)
			return
		}
		b.scheduleFollowUp(s, m.ChannelID, reply)
		return
	}

	placeholder, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:   loading,
		Reference: m.Reference(),
	})
	if err != nil {
		log.Printf("ERROR: replying to %s%s: %v", req.Prefix, req.Command, err)
		return
	}

	reply := b.dispatcher.Handle(ctx, req)
	content := reply.Content
	embeds := toEmbeds(reply.Panels)
	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:      placeholder.ID,
		Channel: placeholder.ChannelID,
		Content: &content,
		Embeds:  &embeds,
	}); err != nil {
		log.Printf("ERROR: editing reply to %s%s: %v", req.Prefix, req.Command, err)
		return
	}

	b.scheduleFollowUp(s, m.ChannelID, reply)
}

// scheduleFollowUp sends reply.FollowUp as its own message after a delay.
// Its failure never touches the primary reply.
func (b *Bot) scheduleFollowUp(s Session, channelID string, reply Reply) {
	if reply.FollowUp == "" || b.followUps == nil {
		return
	}
	followUp := truncate(reply.FollowUp, 2000)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	cancel, err := b.followUps.After(b.opts.FollowUpDelay, "follow-up:"+channelID, func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()

		if _, err := s.ChannelMessageSend(channelID, followUp); err != nil {
			log.Printf("ERROR: sending hourly breakdown: %v", err)
		}
	})
	if err != nil {
		log.Printf("ERROR: scheduling hourly breakdown: %v", err)
		return
	}
	b.pending[id] = cancel
}

// Platform limits for embeds.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFields      = 25
)

func toEmbeds(panels []weather.Panel) []*discordgo.MessageEmbed {
	embeds := make([]*discordgo.MessageEmbed, 0, len(panels))
	for _, p := range panels {
		e := &discordgo.MessageEmbed{
			Title:       truncate(p.Title, maxTitle),
			Description: truncate(p.Description, maxDescription),
			Color:       p.Color,
		}
		if p.ThumbnailURL != "" {
			e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: p.ThumbnailURL}
		}
		if p.Footer != "" {
			e.Footer = &discordgo.MessageEmbedFooter{Text: p.Footer}
		}
		if !p.Timestamp.IsZero() {
			e.Timestamp = p.Timestamp.Format(time.RFC3339)
		}
		for i, f := range p.Fields {
			if i == maxFields {
				break
			}
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
				Name:   truncate(f.Name, maxFieldName),
				Value:  truncate(f.Value, maxFieldValue),
				Inline: f.Inline,
			})
		}
		embeds = append(embeds, e)
	}
	return embeds
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
