// Package main is the entry point for the claudewatch usage monitor.
// It wires configuration, storage, credentials, and the monitor, then
// runs the Bubble Tea dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claudewatch/internal/api"
	"github.com/j-veylop/claudewatch/internal/config"
	"github.com/j-veylop/claudewatch/internal/credentials"
	"github.com/j-veylop/claudewatch/internal/logger"
	"github.com/j-veylop/claudewatch/internal/monitor"
	"github.com/j-veylop/claudewatch/internal/notify"
	"github.com/j-veylop/claudewatch/internal/store"
	"github.com/j-veylop/claudewatch/internal/ui"
	"github.com/j-veylop/claudewatch/internal/version"
)

func main() {
	once := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-v", "--version":
			fmt.Println(version.Info())
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--once":
			once = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag: %s\n\n", arg)
			printUsage()
			os.Exit(2)
		}
	}

	if err := run(once); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error
// handling.
func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger.Redirect(logFile)

	db, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close store", "error", closeErr)
		}
	}()

	client, err := api.New(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	resolver := credentials.NewResolver(cfg.ManualTokenPath)
	notifier := notify.New(notify.NewBeeepDeliverer(), db)
	mon := monitor.New(resolver, client, notifier, db, monitor.WithInterval(cfg.RefreshInterval))

	if once {
		return runOnce(mon)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Credential file changes trigger an immediate refresh, so a fresh
	// Claude Code login shows up without waiting for the next tick.
	watcher, err := resolver.Watch(func() {
		refreshCtx, refreshCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer refreshCancel()
		mon.Refresh(refreshCtx)
	})
	if err != nil {
		logger.Warn("credential watcher disabled", "error", err)
	} else {
		defer func() {
			if closeErr := watcher.Close(); closeErr != nil {
				logger.Error("failed to close credential watcher", "error", closeErr)
			}
		}()
	}

	mon.Start(ctx)
	defer mon.Stop()

	p := tea.NewProgram(
		ui.NewModel(mon, cfg.StaleAfter),
		tea.WithAltScreen(),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// runOnce performs a single refresh and prints the snapshot to stdout.
// Useful for scripts and for checking usage without the TUI.
func runOnce(mon *monitor.Monitor) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mon.Refresh(ctx)
	st := mon.State()

	if st.Err != nil {
		return st.Err
	}

	for _, limit := range st.UsageLimits {
		line := fmt.Sprintf("%-20s %5.1f%%", limit.Title, limit.Utilization*100)
		if limit.ResetsAt != nil {
			line += "  resets " + limit.ResetsAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Println(line)
	}
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(strings.TrimSpace(`
claudewatch - Claude usage limit monitor

Usage:
  claudewatch [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information
      --once      Fetch usage once, print it, and exit

Keyboard Shortcuts:
  r               Refresh now
  s               Switch credential source (primary/manual)
  t               Enter a token manually
  x               Clear the manual token
  q, Ctrl+C       Quit

Environment Variables:
  CLAUDEWATCH_STORE_PATH        SQLite database path
  CLAUDEWATCH_TOKEN_PATH        Manual token file path
  CLAUDEWATCH_LOG_PATH          Log file path
  CLAUDEWATCH_BASE_URL          Usage API base URL
  CLAUDEWATCH_REFRESH_INTERVAL  Refresh interval (default: 60s)
  CLAUDEWATCH_STALE_AFTER       Staleness marker delay (default: 20s)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/claudewatch/.env
  - ~/.claudewatch/.env
  - Parent directories of the current directory
`))
}
