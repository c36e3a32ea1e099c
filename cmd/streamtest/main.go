// streamtest connects to a realtime server and streams decoded events to
// the console. Usage: go run ./cmd/streamtest --config configs/client.example.yaml --channel session-1
//
// The credential is normally supplied via the config file's ${AGENTCMD_TOKEN}
// expansion.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jnarowski/agentcmd-sub007/internal/bus"
	"github.com/jnarowski/agentcmd-sub007/internal/config"
	"github.com/jnarowski/agentcmd-sub007/internal/connection"
	"github.com/jnarowski/agentcmd-sub007/internal/protocol"
	"github.com/jnarowski/agentcmd-sub007/internal/version"
)

type channelList []string

func (c *channelList) String() string { return strings.Join(*c, ",") }

func (c *channelList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	var channels channelList
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full event payloads")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Var(&channels, "channel", "channel to subscribe to (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bus.New()
	defer b.Clear()

	mgr := connection.NewManager(connection.Config{
		URL:               cfg.Server.URL,
		Token:             cfg.Server.Token,
		ConnectTimeout:    cfg.Connection.ConnectTimeout,
		HeartbeatInterval: cfg.Connection.HeartbeatInterval,
		StaleThreshold:    cfg.Connection.StaleThreshold,
		WriteTimeout:      cfg.Connection.WriteTimeout,
		MaxAttempts:       cfg.Connection.MaxAttempts,
		QueueSize:         cfg.Connection.QueueSize,
	}, b, connection.WithLogger(logger))
	defer mgr.Disconnect()

	b.On(protocol.GlobalChannel, func(ev protocol.Event) {
		decoded, err := protocol.DecodeGlobal(ev)
		if err != nil {
			logger.Warn("undecodable global event", "type", ev.Type, "error", err)
			return
		}
		switch e := decoded.(type) {
		case protocol.ConnectedEvent:
			logger.Info("connected", "session_id", e.SessionID)
		case protocol.ErrorEvent:
			if e.Terminal {
				logger.Error("terminal connection error", "code", e.Code, "message", e.Message)
				stop()
			} else {
				logger.Warn("connection error", "code", e.Code, "message", e.Message)
			}
		}
	})

	for _, ch := range channels {
		ch := ch
		b.On(ch, func(ev protocol.Event) {
			if *verbose {
				logger.Info("event", "channel", ch, "type", ev.Type, "data", string(ev.Data))
			} else {
				logger.Info("event", "channel", ch, "type", ev.Type)
			}
		})
	}

	mgr.Connect()
	if err := mgr.Subscribe(channels...); err != nil {
		logger.Error("subscribe failed", "error", err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				stats := mgr.Stats()
				logger.Info("connection stats",
					"state", stats.State.String(),
					"ready", stats.Ready,
					"attempts", stats.ReconnectAttempts,
					"queued", stats.QueueDepth,
					"dropped", stats.QueueDropped,
				)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("exited with error", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
