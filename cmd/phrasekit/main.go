// Copyright 2025 The phrasekit Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs phrasekit, a text composition core for AAC apps.

Note: This is a BETA release. APIs and functionality may rapidly change.

phrasekit keeps what the user typed, asks a language model for sentence and
word suggestions while they type, and lines those suggestions up against the
text so any word of a suggestion can be taken with one tap.

# Usage

Serve a UI shell over msgpack on stdin/stdout:

	phrasekit serve

Try it in a terminal:

	phrasekit repl -d

Use a custom config:

	phrasekit serve --config ./phrasekit.toml

# Configuration

The config file is created with defaults if it doesn't exist:

	[suggest]
	step_ms = 150
	max_delay_ms = 300
	window_ms = 1000

	[provider]
	kind = "openai"
	api_key_env = "OPENAI_API_KEY"

	[storage]
	driver = "sqlite"
	path = "settings.db"

Edits to [session.features] apply without a restart.

# IPC Protocol

See package server for the frames.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/phrasekit/internal/cli"
	"github.com/bastiangx/phrasekit/internal/logger"
	"github.com/bastiangx/phrasekit/pkg/config"
	"github.com/bastiangx/phrasekit/pkg/server"
)

const (
	Version = "0.1.0-beta"
	AppName = "phrasekit"
	gh      = "https://github.com/bastiangx/phrasekit"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Sentence and word suggestions for AAC text composition",
	Long: `phrasekit composes text for AAC apps: it keeps an undo log of the text,
fetches sentence and word suggestions while you type and aligns them against
what is already written.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(os.Stderr, debugMode)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve msgpack IPC on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg, path, err := config.LoadConfigWithPriority(configPath)
		if err != nil {
			return err
		}
		srv := server.NewServer(os.Stdin, os.Stdout, logger.New("server"))
		a, err := newApp(cfg, path, srv.Listener())
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		defer a.Close()
		a.watch()

		showStartupInfo(config.GetActiveConfigPath(path), cfg.Provider.Kind)
		return srv.Start(ctx, a.composer)
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Compose text interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg, path, err := config.LoadConfigWithPriority(configPath)
		if err != nil {
			return err
		}
		h := cli.NewInputHandler(os.Stdin, os.Stdout)
		a, err := newApp(cfg, path, h.Listener())
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		defer a.Close()
		a.watch()

		log.Debug("Input info:", "config", config.GetActiveConfigPath(path), "provider", cfg.Provider.Kind)
		return h.Start(ctx, a.composer)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		showVersion()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a custom config.toml")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Toggle debug mode")
	rootCmd.AddCommand(serveCmd, replCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ phrasekit ] Say more with fewer taps")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo prints basic info to stderr; stdout is the IPC channel.
func showStartupInfo(configFile, provider string) {
	l := log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})
	banner := lipgloss.NewStyle().Bold(true).Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		Render(" phrasekit ")
	fmt.Fprintln(os.Stderr, banner)
	l.Infof("Version: %s", Version)
	l.Infof("Process ID: [ %d ]", os.Getpid())
	l.Infof("config: ( %s )", configFile)
	l.Infof("provider: %s", provider)
	l.Info("status: ready")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")
}
