package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glidecone/internal/api"
	"glidecone/pkg/config"
	"glidecone/pkg/logging"
	"glidecone/pkg/terrain"
)

var (
	configPath = flag.String("config", "configs/glidecone.yaml", "Path to configuration file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("glidecone starting", "address", cfg.Server.Address, "tile_dir", cfg.Terrain.TileDir)

	cache := terrain.NewTileCacheSize(cfg.Terrain.TileDir, cfg.Terrain.TileCacheTiles)
	server := api.NewServer(cache, cfg.Search)
	server.Addr = cfg.Server.Address
	server.ReadHeaderTimeout = 10 * time.Second
	if cfg.Server.RequestTimeout > 0 {
		server.WriteTimeout = time.Duration(cfg.Server.RequestTimeout)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("glidecone shutting down")
		return server.Shutdown(context.Background())
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
}
