package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/andy6609/relaychat/internal/chat"
	"github.com/andy6609/relaychat/internal/config"
	"github.com/andy6609/relaychat/internal/moderation"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const httpShutdownTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	addr := flag.String("addr", "", "chat listen address, overrides HOST and PORT")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return exitConfig, err
	}
	censorChar, err := cfg.CensorRune()
	if err != nil {
		return exitConfig, err
	}
	listenAddr := cfg.Addr()
	if *addr != "" {
		listenAddr = *addr
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	moderator, err := moderation.NewModerator(cfg.WordList(), censorChar)
	if err != nil {
		return exitConfig, fmt.Errorf("moderation: %w", err)
	}

	srv := chat.NewServer(listenAddr, chat.SessionConfig{
		Registry:      chat.NewRegistry(),
		Router:        chat.NewRouter(moderator, logger),
		OutboxSize:    cfg.OutboxSize,
		MaxNameLength: cfg.MaxNameLength,
		Logger:        logger,
	})
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		return exitRuntime, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		serveHTTP(ctx, g, logger, "metrics", cfg.MetricsAddr, mux)
	}
	if cfg.WSAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", chat.WebSocketHandler(srv))
		serveHTTP(ctx, g, logger, "websocket", cfg.WSAddr, mux)
	}

	g.Go(func() error {
		<-ctx.Done()
		srv.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func serveHTTP(ctx context.Context, g *errgroup.Group, logger *slog.Logger, name, addr string, handler http.Handler) {
	hs := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error {
		logger.Info("http listener started", "name", name, "addr", addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s listener: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
}
