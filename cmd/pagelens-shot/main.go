// Package main is a one-shot command line front end to the browser driver.
// It loads one URL (or a local HTML file) and prints its HTML or text, or
// saves a screenshot of one element.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/entrhq/pagelens/pkg/browser"
	"github.com/entrhq/pagelens/pkg/config"
	"github.com/entrhq/pagelens/pkg/logging"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile string
	URL        string
	HTMLFile   string
	Selector   string
	Output     string
	Mode       string
	Wait       time.Duration
	Install    bool
}

func main() {
	cli := parseFlags()
	if err := run(cli); err != nil {
		log.Printf("pagelens-shot: %v", err)
		os.Exit(1)
	}
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.URL, "url", "", "URL to load")
	flag.StringVar(&cli.HTMLFile, "html-file", "", "Render this local HTML file instead of a URL")
	flag.StringVar(&cli.Selector, "selector", "", "CSS selector of the element to capture")
	flag.StringVar(&cli.Output, "output", "screenshot.png", "Where to write the screenshot")
	flag.StringVar(&cli.Mode, "mode", "screenshot", "What to produce: screenshot, html, or text")
	flag.DurationVar(&cli.Wait, "wait", browser.DefaultFindTimeout, "How long to wait for the selector")
	flag.BoolVar(&cli.Install, "install", false, "Install the Playwright driver and Chromium first")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pagelens-shot - capture a page element without the bot\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pagelens-shot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pagelens-shot -url https://example.com -selector h1 -output h1.png\n")
		fmt.Fprintf(os.Stderr, "  pagelens-shot -url https://example.com -mode text\n")
	}

	flag.Parse()
	return cli
}

func run(cli *CLIConfig) error {
	if (cli.URL == "") == (cli.HTMLFile == "") {
		return fmt.Errorf("exactly one of -url or -html-file is required")
	}
	if cli.Mode == "screenshot" && cli.Selector == "" {
		return fmt.Errorf("-selector is required for screenshots")
	}

	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := cfg.BrowserOptions()
	opts.Install = opts.Install || cli.Install
	opts.FindTimeout = cli.Wait

	logger := logging.NewWriterLogger("pagelens-shot", os.Stderr)
	driver, err := browser.New(opts, logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	if cli.HTMLFile != "" {
		markup, err := os.ReadFile(cli.HTMLFile)
		if err != nil {
			return fmt.Errorf("failed to read html file: %w", err)
		}
		if err := driver.LoadHTMLContent(string(markup)); err != nil {
			return err
		}
	} else if err := driver.Navigate(cli.URL); err != nil {
		return err
	}

	switch cli.Mode {
	case "html":
		markup, err := driver.HTML("")
		if err != nil {
			return err
		}
		fmt.Println(markup)
	case "text":
		text, err := driver.Text("")
		if err != nil {
			return err
		}
		fmt.Println(text)
	case "screenshot":
		if err := driver.ScreenshotElement(cli.Selector, cli.Output); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", cli.Output)
	default:
		return fmt.Errorf("unknown mode %q", cli.Mode)
	}
	return nil
}
