package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/navflat/internal/api"
	"github.com/dgallion1/navflat/internal/config"
	"github.com/dgallion1/navflat/internal/pipeline"
	"github.com/dgallion1/navflat/internal/stats"
	"github.com/dgallion1/navflat/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("NAVFLAT_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	menus := store.New(cfg.Store.TTL, cfg.Store.MaxMenus)
	fs := stats.NewFlattenStats(time.Hour)
	builder := pipeline.NewBuilder(fs, log)

	srv := api.NewServer(menus, builder, fs, log, cfg)
	go menus.Run(ctx, cfg.Store.CleanupInterval, srv.RecordEvictions)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting navflat",
		"port", cfg.Server.Port,
		"flatten", cfg.Flatten.String(),
		"ttl", cfg.Store.TTL.String(),
		"max_menus", cfg.Store.MaxMenus,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
