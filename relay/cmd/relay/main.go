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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/obsidianstack/hostpager/internal/version"
	"github.com/obsidianstack/hostpager/relay/internal/api"
	"github.com/obsidianstack/hostpager/relay/internal/config"
	"github.com/obsidianstack/hostpager/relay/internal/forward"
	"github.com/obsidianstack/hostpager/relay/internal/history"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty runs with defaults")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Relay.Level()}))
	slog.SetDefault(logger)

	slog.Info("hostpager-relay starting", "config", *configPath, "version", version.Version)

	if cfg.Relay.PagerDuty.RoutingKey() == "" {
		slog.Warn("routing key is empty; PagerDuty will reject forwarded events",
			"env", cfg.Relay.PagerDuty.RoutingKeyEnv)
	}
	slog.Info("config loaded",
		"http_port", cfg.Relay.HTTPPort,
		"target_hosts", cfg.Relay.TargetHosts.String(),
		"auth_mode", cfg.Relay.Auth.Mode,
		"events_url", cfg.Relay.PagerDuty.EventsURL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Delivery history with background TTL eviction.
	hist := history.New(cfg.Relay.History.TTL)
	go hist.Run(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := api.New(cfg.Relay, forward.New(cfg.Relay.PagerDuty), hist, reg)

	// Hot reload swaps the target host list only; port, auth and PagerDuty
	// settings need a restart.
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				handler.SetTargets(updated.Relay.TargetHosts)
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Relay.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Relay.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("hostpager-relay shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}
