// Package discord connects the command dispatcher to a Discord gateway
// session.
package discord

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/entrhq/pagelens/pkg/bot"
	"github.com/entrhq/pagelens/pkg/logging"
)

// Intents are the gateway intents the bot needs to read commands.
const Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

// Dispatcher runs one parsed command.
type Dispatcher interface {
	Dispatch(inv bot.Invocation) bot.Reply
}

// sender posts replies; sessionSender is the only production implementation.
type sender interface {
	sendText(channelID, text string) error
	sendFile(channelID, text string, file *bot.File) error
}

// Config configures the adapter.
type Config struct {
	// Token is the bot token, without the "Bot " prefix
	Token string

	// Prefix starts a command, for example "!"
	Prefix string
}

// Bot listens for commands in guild and direct messages.
type Bot struct {
	session    *discordgo.Session
	dispatcher Dispatcher
	owners     *Owners
	prefix     string
	logger     *logging.Logger
	out        sender
}

// New creates a bot. The gateway connection is opened by Open.
func New(cfg Config, dispatcher Dispatcher, owners *Owners, logger *logging.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if logger == nil {
		logger = logging.Discard("discord")
	}
	if owners == nil {
		owners = NewOwners(nil)
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = Intents

	b := &Bot{
		session:    session,
		dispatcher: dispatcher,
		owners:     owners,
		prefix:     cfg.Prefix,
		logger:     logger,
		out:        sessionSender{session: session},
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

// Open connects to the gateway and records the application owner.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	app, err := b.session.Application("@me")
	if err != nil {
		b.logger.Warnf("could not look up application owner: %v", err)
		return nil
	}
	if app.Owner != nil {
		b.owners.Add(app.Owner.ID)
		b.logger.Infof("application owner is %s", app.Owner.ID)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Infof("connected as %s#%s in %d guilds", r.User.Username, r.User.Discriminator, len(r.Guilds))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	b.handleMessage(botID, m.Message)
}

func (b *Bot) handleMessage(botID string, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}

	name, args, ok := ParseCommand(m.Content, b.prefix, botID)
	if !ok {
		return
	}

	reply := b.dispatcher.Dispatch(bot.Invocation{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		CallerID:  m.Author.ID,
		Name:      name,
		Args:      args,
	})

	var err error
	switch {
	case reply.File != nil:
		err = b.out.sendFile(m.ChannelID, reply.Text, reply.File)
	case reply.Text != "":
		err = b.out.sendText(m.ChannelID, reply.Text)
	}
	if err != nil {
		b.logger.Errorf("failed to reply to %s in channel %s: %v", name, m.ChannelID, err)
	}
}

// ParseCommand splits a message into a command name and arguments when it
// starts with prefix or mentions the bot. Arguments are separated by
// whitespace.
func ParseCommand(content, prefix, botID string) (string, []string, bool) {
	content = strings.TrimSpace(content)

	var rest string
	switch {
	case prefix != "" && strings.HasPrefix(content, prefix):
		rest = content[len(prefix):]
	case botID != "" && strings.HasPrefix(content, "<@"+botID+">"):
		rest = content[len("<@"+botID+">"):]
	case botID != "" && strings.HasPrefix(content, "<@!"+botID+">"):
		rest = content[len("<@!"+botID+">"):]
	default:
		return "", nil, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

type sessionSender struct {
	session *discordgo.Session
}

func (s sessionSender) sendText(channelID, text string) error {
	_, err := s.session.ChannelMessageSend(channelID, text)
	return err
}

func (s sessionSender) sendFile(channelID, text string, file *bot.File) error {
	_, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: text,
		Files: []*discordgo.File{{
			Name:        file.Name,
			ContentType: file.ContentType,
			Reader:      bytes.NewReader(file.Data),
		}},
	})
	return err
}
