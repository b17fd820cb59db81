// cmd/ratscrew/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/jason-s-yu/ratscrew/internal/audit"
	"github.com/jason-s-yu/ratscrew/internal/config"
	"github.com/jason-s-yu/ratscrew/internal/lobby"
	"github.com/jason-s-yu/ratscrew/internal/seats"
	"github.com/jason-s-yu/ratscrew/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	serverURL := flag.String("server", "", "server base URL (overrides RATSCREW_SERVER_URL)")
	lobbyID := flag.String("lobby", "", "lobby to join (overrides RATSCREW_LOBBY)")
	players := flag.String("players", "", "comma-separated seat names (overrides RATSCREW_PLAYER)")
	bot := flag.Bool("bot", false, "let every seat play and slap on its own")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *lobbyID != "" {
		cfg.LobbyID = *lobbyID
	}
	if *players != "" {
		cfg.PlayerName = *players
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	if *verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	names := splitNames(cfg.PlayerName)
	if len(names) == 0 {
		logger.Fatal("No player name: pass -players or set RATSCREW_PLAYER")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink, closeSink, err := audit.NewRedisSink(ctx, cfg.Audit)
	if err != nil {
		logger.Warnf("Audit disabled: %v", err)
		sink, closeSink = audit.Nop{}, func() error { return nil }
	}
	defer closeSink()

	reg := seats.NewRegistry(session.Options{
		ServerURL: cfg.ServerURL,
		Timings:   cfg.Session,
		Logger:    logger,
	}, sink)
	defer reg.CloseAll()

	out := &renderer{w: os.Stdout}
	var wg sync.WaitGroup
	var opened []string
	for _, name := range names {
		seat, err := reg.Open(ctx, cfg.LobbyID, name)
		if err != nil {
			logger.Errorf("Failed to open seat %s: %v", name, err)
			continue
		}
		opened = append(opened, seat.Name)

		var ap *autoplayer
		if *bot {
			ap = newAutoplayer(seat, cfg.Bot, logger)
			go ap.run(ctx)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = seat.Run(ctx, func(v lobby.View) {
				out.line(seat.Name, v)
				if ap != nil {
					ap.observe(v)
				}
			})
		}()
	}
	if len(opened) == 0 {
		logger.Fatal("No seat could be opened")
	}

	c := &console{
		reg:         reg,
		out:         out,
		defaultSeat: opened[0],
		logger:      logger,
		quit:        stop,
	}
	logger.Infof("Joined %s as %s", cfg.LobbyID, strings.Join(opened, ", "))
	go c.readCommands(ctx, os.Stdin)

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-ctx.Done():
		logger.Info("Leaving")
	case <-finished:
		logger.Info("All sessions ended")
	}
	reg.CloseAll()
	wg.Wait()
}

// splitNames turns "Alice, Bob" into unique trimmed names, keeping order.
func splitNames(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, n := range strings.Split(s, ",") {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}
