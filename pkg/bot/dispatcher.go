// Package bot routes chat commands to the browser driver after checking the
// guild's permission lists.
//
// The dispatcher receives invocations that are already split into a command
// name and arguments; turning chat messages into invocations is the job of a
// platform adapter such as package discord.
package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/entrhq/pagelens/pkg/logging"
	"github.com/entrhq/pagelens/pkg/permissions"
)

// MaxMessageLength is the longest text reply sent inline; longer output is
// attached as a file.
const MaxMessageLength = 1900

// Browser is the part of browser.Driver the commands use.
type Browser interface {
	Navigate(url string) error
	HTML(url string) (string, error)
	Text(url string) (string, error)
	LoadHTMLContent(markup string) error
	ScreenshotElementPNG(selector string) ([]byte, error)
}

// Invocation is one command call from a chat user.
type Invocation struct {
	GuildID   string
	ChannelID string
	CallerID  string
	Name      string
	Args      []string
}

// File is an attachment on a reply.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reply is what the platform adapter posts back.
type Reply struct {
	Text string
	File *File
}

// Dispatcher authorizes invocations and runs them.
type Dispatcher struct {
	browser  Browser
	perms    *permissions.Store
	isOwner  permissions.OwnerFunc
	logger   *logging.Logger
	prefix   string
	commands map[string]*command

	// browserMu keeps multi-step browser commands (navigate, then capture)
	// from interleaving with each other.
	browserMu sync.Mutex
}

// Options configures a Dispatcher.
type Options struct {
	// Prefix is shown in help and usage text
	Prefix string

	// IsOwner identifies the process owner, who passes every check
	IsOwner permissions.OwnerFunc

	Logger *logging.Logger
}

// New creates a dispatcher with the built-in command set.
func New(b Browser, perms *permissions.Store, opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = logging.Discard("bot")
	}
	d := &Dispatcher{
		browser: b,
		perms:   perms,
		isOwner: opts.IsOwner,
		logger:  opts.Logger,
		prefix:  opts.Prefix,
	}
	d.commands = builtinCommands()
	return d
}

// Dispatch runs inv and returns the reply to post. Every failure, including
// authorization failure, is turned into a user-visible reply.
func (d *Dispatcher) Dispatch(inv Invocation) Reply {
	name := strings.ToLower(inv.Name)
	cmd, ok := d.commands[name]
	if !ok {
		return Reply{Text: fmt.Sprintf("Unknown command `%s`. Try `%shelp`.", inv.Name, d.prefix)}
	}

	if cmd.guildOnly && inv.GuildID == "" {
		return Reply{Text: "This command can only be used in a server."}
	}

	if err := d.authorize(cmd, inv); err != nil {
		var authErr *permissions.AuthorizationError
		if errors.As(err, &authErr) {
			d.logger.Infof("rejected %s from %s in guild %s: %v", name, inv.CallerID, inv.GuildID, authErr)
			return Reply{Text: authErr.Reason()}
		}
		d.logger.Errorf("authorization of %s failed: %v", name, err)
		return Reply{Text: "Authorization failed."}
	}

	if len(inv.Args) < cmd.minArgs {
		return Reply{Text: d.usage(cmd)}
	}

	if cmd.browser {
		d.browserMu.Lock()
		defer d.browserMu.Unlock()
	}

	d.logger.Debugf("running %s for %s in guild %s", name, inv.CallerID, inv.GuildID)
	reply, err := cmd.run(d, inv)
	if err != nil {
		d.logger.Warnf("%s failed for %s: %v", name, inv.CallerID, err)
		return Reply{Text: userMessage(err)}
	}
	return reply
}

func (d *Dispatcher) authorize(cmd *command, inv Invocation) error {
	if inv.GuildID == "" {
		return nil
	}
	if err := d.perms.Blacklist.Authorize(inv.CallerID, inv.GuildID, d.isOwner); err != nil {
		return err
	}
	if cmd.admin {
		return d.perms.Admins.Authorize(inv.CallerID, inv.GuildID, d.isOwner)
	}
	return nil
}

func (d *Dispatcher) usage(cmd *command) string {
	return fmt.Sprintf("Usage: `%s%s`", d.prefix, cmd.usage)
}

// Commands returns the command names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// textReply sends body inline when it fits and attaches it otherwise.
func textReply(header, body, fileName string) Reply {
	if len(header)+len(body)+8 <= MaxMessageLength {
		return Reply{Text: header + "\n```\n" + body + "\n```"}
	}
	return Reply{
		Text: header,
		File: &File{Name: fileName, ContentType: "text/plain; charset=utf-8", Data: []byte(body)},
	}
}
