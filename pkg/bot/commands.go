package bot

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/pagelens/pkg/browser"
	"github.com/entrhq/pagelens/pkg/permissions"
)

type command struct {
	name      string
	usage     string
	help      string
	minArgs   int
	admin     bool
	browser   bool
	guildOnly bool
	run       func(*Dispatcher, Invocation) (Reply, error)
}

func builtinCommands() map[string]*command {
	cmds := []*command{
		{
			name:  "help",
			usage: "help",
			help:  "List the available commands.",
			run:   (*Dispatcher).runHelp,
		},
		{
			name:      "html",
			usage:     "html <url>",
			help:      "Fetch a page and attach its rendered HTML.",
			minArgs:   1,
			browser:   true,
			guildOnly: true,
			run:       (*Dispatcher).runHTML,
		},
		{
			name:      "text",
			usage:     "text <url>",
			help:      "Fetch a page and show its visible text.",
			minArgs:   1,
			browser:   true,
			guildOnly: true,
			run:       (*Dispatcher).runText,
		},
		{
			name:      "screenshot",
			usage:     "screenshot <url> <css selector>",
			help:      "Fetch a page and capture one element.",
			minArgs:   2,
			browser:   true,
			guildOnly: true,
			run:       (*Dispatcher).runScreenshot,
		},
		{
			name:      "render",
			usage:     "render <css selector> <html>",
			help:      "Render HTML markup and capture one element.",
			minArgs:   2,
			browser:   true,
			guildOnly: true,
			run:       (*Dispatcher).runRender,
		},
		{
			name:      "blacklist",
			usage:     "blacklist add|remove|list [user]",
			help:      "Manage users who may not use the bot in this server.",
			minArgs:   1,
			admin:     true,
			guildOnly: true,
			run: func(d *Dispatcher, inv Invocation) (Reply, error) {
				return d.runListCommand(d.perms.Blacklist, inv)
			},
		},
		{
			name:      "admins",
			usage:     "admins add|remove|list [user]",
			help:      "Manage users who may run admin commands in this server.",
			minArgs:   1,
			admin:     true,
			guildOnly: true,
			run: func(d *Dispatcher, inv Invocation) (Reply, error) {
				return d.runListCommand(d.perms.Admins, inv)
			},
		},
		{
			name:      "reload",
			usage:     "reload",
			help:      "Reload the permission files from disk.",
			admin:     true,
			guildOnly: true,
			run:       (*Dispatcher).runReload,
		},
	}

	m := make(map[string]*command, len(cmds))
	for _, c := range cmds {
		m[c.name] = c
	}
	return m
}

func (d *Dispatcher) runHelp(Invocation) (Reply, error) {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range d.Commands() {
		c := d.commands[name]
		fmt.Fprintf(&b, "`%s%s` %s", d.prefix, c.usage, c.help)
		if c.admin {
			b.WriteString(" (admin)")
		}
		b.WriteString("\n")
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (d *Dispatcher) runHTML(inv Invocation) (Reply, error) {
	target, err := parseURL(inv.Args[0])
	if err != nil {
		return Reply{}, err
	}
	markup, err := d.browser.HTML(target)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Text: fmt.Sprintf("HTML of <%s>", target),
		File: &File{Name: "page.html", ContentType: "text/html; charset=utf-8", Data: []byte(markup)},
	}, nil
}

func (d *Dispatcher) runText(inv Invocation) (Reply, error) {
	target, err := parseURL(inv.Args[0])
	if err != nil {
		return Reply{}, err
	}
	text, err := d.browser.Text(target)
	if err != nil {
		return Reply{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Reply{Text: fmt.Sprintf("<%s> has no visible text.", target)}, nil
	}
	return textReply(fmt.Sprintf("Text of <%s>", target), text, "page.txt"), nil
}

func (d *Dispatcher) runScreenshot(inv Invocation) (Reply, error) {
	target, err := parseURL(inv.Args[0])
	if err != nil {
		return Reply{}, err
	}
	selector := strings.Join(inv.Args[1:], " ")

	if err := d.browser.Navigate(target); err != nil {
		return Reply{}, err
	}
	return d.capture(selector)
}

func (d *Dispatcher) runRender(inv Invocation) (Reply, error) {
	selector := inv.Args[0]
	markup := stripCodeFence(strings.Join(inv.Args[1:], " "))

	if err := d.browser.LoadHTMLContent(markup); err != nil {
		return Reply{}, err
	}
	return d.capture(selector)
}

func (d *Dispatcher) capture(selector string) (Reply, error) {
	data, err := d.browser.ScreenshotElementPNG(selector)
	if err != nil {
		return Reply{}, err
	}
	return Reply{File: &File{Name: "screenshot.png", ContentType: "image/png", Data: data}}, nil
}

func (d *Dispatcher) runListCommand(list *permissions.List, inv Invocation) (Reply, error) {
	action := strings.ToLower(inv.Args[0])

	if action == "list" {
		users := list.ListFor(inv.GuildID)
		if len(users) == 0 {
			return Reply{Text: fmt.Sprintf("The %s is empty.", list.Kind())}, nil
		}
		mentions := make([]string, len(users))
		for i, id := range users {
			mentions[i] = "<@" + id + ">"
		}
		return Reply{Text: fmt.Sprintf("%s: %s", list.Kind(), strings.Join(mentions, ", "))}, nil
	}

	if len(inv.Args) < 2 {
		return Reply{Text: fmt.Sprintf("Usage: `%s%s add|remove|list [user]`", d.prefix, list.Kind())}, nil
	}
	userID, ok := parseUserID(inv.Args[1])
	if !ok {
		return Reply{Text: fmt.Sprintf("`%s` is not a user ID or mention.", inv.Args[1])}, nil
	}

	switch action {
	case "add":
		if err := list.Add(userID, inv.GuildID); err != nil {
			return Reply{}, fmt.Errorf("failed to save %s: %w", list.Kind(), err)
		}
		d.logger.Infof("%s added %s to %s of guild %s", inv.CallerID, userID, list.Kind(), inv.GuildID)
		return Reply{Text: fmt.Sprintf("Added <@%s> to the %s.", userID, list.Kind())}, nil
	case "remove":
		if err := list.Remove(userID, inv.GuildID); err != nil {
			return Reply{}, fmt.Errorf("failed to save %s: %w", list.Kind(), err)
		}
		d.logger.Infof("%s removed %s from %s of guild %s", inv.CallerID, userID, list.Kind(), inv.GuildID)
		return Reply{Text: fmt.Sprintf("Removed <@%s> from the %s.", userID, list.Kind())}, nil
	default:
		return Reply{Text: fmt.Sprintf("Unknown action `%s`; use add, remove or list.", action)}, nil
	}
}

func (d *Dispatcher) runReload(Invocation) (Reply, error) {
	d.perms.Reload()
	d.logger.Infof("permission lists reloaded")
	return Reply{Text: "Reloaded the blacklist and admin list."}, nil
}

var errBadURL = errors.New("only absolute http and https URLs are supported")

// parseURL accepts http(s) URLs, optionally wrapped in <> to suppress embeds.
func parseURL(raw string) (string, error) {
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", errBadURL, raw)
	}
	return u.String(), nil
}

// parseUserID accepts a raw snowflake or a <@id> / <@!id> mention.
func parseUserID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">") {
		s = strings.TrimPrefix(strings.TrimSuffix(s[2:], ">"), "!")
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	s = strings.TrimPrefix(s, "html")
	return strings.TrimSpace(s)
}

// userMessage maps driver errors to replies. Anything unrecognised gets a
// generic reply; the caller logs the full error.
func userMessage(err error) string {
	var navErr *browser.NavigationError
	switch {
	case errors.Is(err, errBadURL):
		return "Only absolute http and https URLs are supported."
	case errors.Is(err, browser.ErrURLNotAllowed):
		return "That URL is not on the allow-list."
	case errors.Is(err, browser.ErrElementNotFound):
		return "No visible element matches that selector."
	case errors.Is(err, browser.ErrOutsideViewport):
		return "That element is outside the visible page."
	case errors.Is(err, browser.ErrExceedsViewport):
		return "That element is larger than the browser viewport."
	case errors.Is(err, browser.ErrNavigationTimeout):
		return "The page took too long to load."
	case errors.As(err, &navErr):
		return fmt.Sprintf("Could not load <%s>.", navErr.URL)
	default:
		return "Something went wrong. The error has been logged."
	}
}
