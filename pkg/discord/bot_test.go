package discord

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/entrhq/pagelens/pkg/bot"
	"github.com/entrhq/pagelens/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		content string
		cmd     string
		args    []string
		ok      bool
	}{
		{"prefix", "!screenshot https://example.com  #main", "screenshot", []string{"https://example.com", "#main"}, true},
		{"mention", "<@99> html https://example.com", "html", []string{"https://example.com"}, true},
		{"nick mention", "<@!99>help", "help", []string{}, true},
		{"other mention", "<@98> help", "", nil, false},
		{"no prefix", "hello there", "", nil, false},
		{"prefix only", "!   ", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := ParseCommand(tt.content, "!", "99")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cmd, cmd)
			if tt.ok {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

type recordingDispatcher struct {
	got   []bot.Invocation
	reply bot.Reply
}

func (d *recordingDispatcher) Dispatch(inv bot.Invocation) bot.Reply {
	d.got = append(d.got, inv)
	return d.reply
}

type recordingSender struct {
	texts []string
	files []*bot.File
	err   error
}

func (s *recordingSender) sendText(_, text string) error {
	s.texts = append(s.texts, text)
	return s.err
}

func (s *recordingSender) sendFile(_, text string, file *bot.File) error {
	s.texts = append(s.texts, text)
	s.files = append(s.files, file)
	return s.err
}

func newTestBot(d Dispatcher) (*Bot, *recordingSender) {
	out := &recordingSender{}
	return &Bot{
		dispatcher: d,
		owners:     NewOwners(nil),
		prefix:     "!",
		logger:     logging.Discard("discord"),
		out:        out,
	}, out
}

func message(authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m1",
		ChannelID: "C1",
		GuildID:   "G1",
		Content:   content,
		Author:    &discordgo.User{ID: authorID},
	}
}

func TestHandleMessage(t *testing.T) {
	d := &recordingDispatcher{reply: bot.Reply{Text: "ok"}}
	b, out := newTestBot(d)

	b.handleMessage("99", message("100", "!text https://example.com"))

	require.Len(t, d.got, 1)
	assert.Equal(t, bot.Invocation{
		GuildID:   "G1",
		ChannelID: "C1",
		CallerID:  "100",
		Name:      "text",
		Args:      []string{"https://example.com"},
	}, d.got[0])
	assert.Equal(t, []string{"ok"}, out.texts)
}

func TestHandleMessageFileReply(t *testing.T) {
	file := &bot.File{Name: "screenshot.png", Data: []byte("png")}
	d := &recordingDispatcher{reply: bot.Reply{File: file}}
	b, out := newTestBot(d)

	b.handleMessage("99", message("100", "!screenshot https://example.com h1"))
	assert.Equal(t, []*bot.File{file}, out.files)
}

func TestHandleMessageIgnores(t *testing.T) {
	d := &recordingDispatcher{reply: bot.Reply{Text: "ok"}}
	b, out := newTestBot(d)

	botMsg := message("100", "!help")
	botMsg.Author.Bot = true
	b.handleMessage("99", botMsg)
	b.handleMessage("99", message("100", "just chatting"))
	b.handleMessage("99", &discordgo.Message{Content: "!help"})
	b.handleMessage("99", nil)

	assert.Empty(t, d.got)
	assert.Empty(t, out.texts)
}

func TestHandleMessageSendFailure(t *testing.T) {
	d := &recordingDispatcher{reply: bot.Reply{Text: "ok"}}
	b, out := newTestBot(d)
	out.err = errors.New("missing permissions")

	assert.NotPanics(t, func() { b.handleMessage("99", message("100", "!help")) })
}

func TestOwners(t *testing.T) {
	o := NewOwners([]string{"1", ""})
	assert.True(t, o.IsOwner("1"))
	assert.False(t, o.IsOwner(""))
	assert.False(t, o.IsOwner("2"))

	o.Add("2")
	assert.True(t, o.IsOwner("2"))
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Config{Prefix: "!"}, &recordingDispatcher{}, nil, nil)
	assert.Error(t, err)
}
