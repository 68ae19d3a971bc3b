// ABOUTME: Interactive terminal chat client for the coven gateway over WebSocket.
// ABOUTME: Streams assistant text as it arrives and renders finalized messages as markdown.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/2389/coven-connect/internal/auth"
	"github.com/2389/coven-connect/internal/config"
	"github.com/2389/coven-connect/internal/connector"
	"github.com/2389/coven-connect/internal/stream"
	"github.com/2389/coven-connect/internal/wire"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// getConfigPath returns the path to the client config file.
// Priority: COVEN_CONNECT_CONFIG env var > XDG_CONFIG_HOME/coven/connect.yaml > ~/.config/coven/connect.yaml
func getConfigPath() string {
	if envPath := os.Getenv("COVEN_CONNECT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "connect.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "coven", "connect.yaml")
}

// loadConfig reads the config file if present, falling back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

// setupLogger builds the process logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func main() {
	gatewayURL := flag.String("gateway", "", "Gateway WebSocket URL (overrides config)")
	sessionKey := flag.String("session", "cli:default", "Session key for conversation continuity")
	agentID := flag.String("agent", "", "Agent to resolve the session against")
	configPath := flag.String("config", getConfigPath(), "Path to client config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *gatewayURL != "" {
		cfg.Gateway.URL = *gatewayURL
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	token, err := auth.LoadToken(cfg.Gateway.Token, cfg.Gateway.TokenFile)
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Auth: none (set COVEN_TOKEN for authentication)")
	} else if err := auth.InspectToken(token, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn := connector.New(connector.Options{
		URL:   cfg.Gateway.URL,
		Token: token,
		Client: wire.ConnectClient{
			ID:      cfg.Client.ID,
			Version: version,
			Mode:    cfg.Client.Mode,
		},
		Role:             cfg.Client.Role,
		Scopes:           cfg.Client.Scopes,
		RequestTimeout:   cfg.Gateway.RequestTimeout,
		HandshakeTimeout: cfg.Gateway.HandshakeTimeout,
		ReconnectBase:    cfg.Reconnect.Base,
		ReconnectCap:     cfg.Reconnect.Cap,
		MaxReconnects:    cfg.Reconnect.MaxAttempts,
		RunTTL:           cfg.Reconnect.RunTTL,
		Logger:           logger,
	})
	defer conn.Close()

	if err := conn.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: connecting: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("coven-chat connected to %s\n", cfg.Gateway.URL)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	go watchState(ctx, conn)
	go renderEvents(ctx, conn)

	if err := run(ctx, conn, *sessionKey, *agentID); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// watchState prints connection state changes as they happen.
func watchState(ctx context.Context, conn *connector.Connector) {
	dim := color.New(color.Faint)
	for state := range conn.States(ctx) {
		switch state {
		case connector.StateReconnecting:
			dim.Println("[connection lost, reconnecting...]")
		case connector.StateConnected:
			dim.Println("[connected]")
		case connector.StateDisconnected:
			dim.Println("[disconnected]")
		}
	}
}

// renderEvents consumes normalized message events and paints them.
// message.text carries the whole text so far, so rendering only needs to
// print the unseen suffix per run.
func renderEvents(ctx context.Context, conn *connector.Connector) {
	agentLabel := color.New(color.FgCyan, color.Bold)
	toolLabel := color.New(color.FgYellow)
	errLabel := color.New(color.FgRed)

	printed := make(map[string]int) // runID -> chars already printed

	events, _ := conn.Events(ctx)
	for ev := range events {
		switch ev.Kind {
		case stream.KindMessageStart:
			agentLabel.Print("\nagent> ")
			printed[ev.RunID] = 0
		case stream.KindMessageText:
			seen := printed[ev.RunID]
			if len(ev.Text) > seen {
				fmt.Print(ev.Text[seen:])
				printed[ev.RunID] = len(ev.Text)
			} else if len(ev.Text) < seen {
				// Snapshot rewrote the message; repaint from scratch.
				fmt.Print("\n" + ev.Text)
				printed[ev.RunID] = len(ev.Text)
			}
		case stream.KindMessageFinal:
			delete(printed, ev.RunID)
			fmt.Println()
			if rendered, err := glamour.Render(ev.Text, "dark"); err == nil {
				fmt.Print(rendered)
			}
		case stream.KindToolStatus:
			if ev.Tool == nil {
				continue
			}
			switch ev.Tool.State {
			case stream.ToolRunning:
				toolLabel.Printf("\n[tool %s running]\n", ev.Tool.Name)
			case stream.ToolCompleted:
				toolLabel.Printf("[tool %s done]\n", ev.Tool.Name)
			case stream.ToolErrored:
				errLabel.Printf("[tool %s failed]\n", ev.Tool.Name)
			}
		case stream.KindTurnEnd:
			delete(printed, ev.RunID)
			fmt.Println()
		}
	}
}

// run is the interactive prompt loop.
func run(ctx context.Context, conn *connector.Connector, sessionKey, agentID string) error {
	if resolved, err := conn.ResolveSession(ctx, sessionKey, agentID); err == nil && resolved.SessionKey != "" {
		sessionKey = resolved.SessionKey
	}

	scanner := bufio.NewScanner(os.Stdin)
	var lastRunID string

	for {
		fmt.Printf("[%s]> ", sessionKey)

		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				errCh <- scanner.Err()
			}
		}()

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case line = <-inputCh:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := handleCommand(ctx, conn, sessionKey, lastRunID, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if done {
				return nil
			}
			continue
		}

		result, err := conn.SendChat(ctx, sessionKey, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: sending message: %v\n", err)
			continue
		}
		if result.RunID != "" {
			lastRunID = result.RunID
		}
	}
}

// handleCommand dispatches a /command. Returns true when the loop should exit.
func handleCommand(ctx context.Context, conn *connector.Connector, sessionKey, lastRunID, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		conn.Disconnect()
		return true, nil

	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /sessions        List known sessions")
		fmt.Println("  /history         Show this session's history")
		fmt.Println("  /abort [runId]   Abort a run (defaults to the last one)")
		fmt.Println("  /status          Show connection status")
		fmt.Println("  /quit            Disconnect and exit")
		return false, nil

	case "/sessions":
		sessions, err := conn.ListSessions(ctx)
		if err != nil {
			return false, err
		}
		for _, s := range sessions {
			fmt.Printf("  %s", s.Key)
			if s.Title != "" {
				fmt.Printf("  (%s)", s.Title)
			}
			fmt.Println()
		}
		return false, nil

	case "/history":
		messages, err := conn.GetHistory(ctx, sessionKey)
		if err != nil {
			return false, err
		}
		for _, m := range messages {
			fmt.Printf("  %s: %s\n", m.Role, m.Text)
		}
		return false, nil

	case "/abort":
		runID := arg
		if runID == "" {
			runID = lastRunID
		}
		if runID == "" {
			return false, fmt.Errorf("no run to abort")
		}
		return false, conn.AbortRun(ctx, runID)

	case "/status":
		fmt.Printf("  state: %s  heartbeats: %d  active runs: %d\n",
			conn.State(), conn.Heartbeats(), conn.ActiveRuns())
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s", cmd)
	}
}
