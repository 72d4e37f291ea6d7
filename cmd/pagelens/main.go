// Package main runs the pagelens Discord bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/pagelens/pkg/bot"
	"github.com/entrhq/pagelens/pkg/browser"
	"github.com/entrhq/pagelens/pkg/config"
	"github.com/entrhq/pagelens/pkg/discord"
	"github.com/entrhq/pagelens/pkg/logging"
	"github.com/entrhq/pagelens/pkg/permissions"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Install     bool
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("pagelens v%s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cli); err != nil {
		stop()
		log.Printf("pagelens failed: %v", err)
		os.Exit(1)
	}
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.BoolVar(&cli.Install, "install", false, "Install the Playwright driver and Chromium before starting")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pagelens - Discord bot for page HTML and element screenshots\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pagelens [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThe bot token is read from the config file or $%s.\n", config.TokenEnv)
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("no discord token: set discord.token or $%s", config.TokenEnv)
	}
	if cli.Install {
		cfg.Browser.Install = true
	}

	if cfg.Logging.Dir != "" {
		logging.SetDirectory(cfg.Logging.Dir)
	}
	logger, err := logging.NewLogger("pagelens")
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	defer logger.Close()
	logger.Infof("starting pagelens v%s", version)

	perms := permissions.Open(cfg.Permissions.BlacklistPath, cfg.Permissions.AdminsPath, logger.With("permissions"))

	driver, err := browser.New(cfg.BrowserOptions(), logger.With("browser"))
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Errorf("browser shutdown: %v", err)
		}
	}()

	owners := discord.NewOwners(cfg.Discord.OwnerIDs)
	dispatcher := bot.New(driver, perms, bot.Options{
		Prefix:  cfg.Discord.Prefix,
		IsOwner: owners.IsOwner,
		Logger:  logger.With("bot"),
	})

	client, err := discord.New(discord.Config{
		Token:  cfg.Discord.Token,
		Prefix: cfg.Discord.Prefix,
	}, dispatcher, owners, logger.With("discord"))
	if err != nil {
		return err
	}
	if err := client.Open(); err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("pagelens is running (logs: %s). Press Ctrl+C to exit.\n", logger.LogPath())
	<-ctx.Done()
	logger.Infof("shutting down")
	return nil
}
