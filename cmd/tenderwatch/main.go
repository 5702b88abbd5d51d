// Command tenderwatch serves the tender search and scheduling engine.
//
// Usage:
//
//	tenderwatch -config tenderwatch.yaml   # run with config file
//	tenderwatch -db tenderwatch.db         # run with defaults
//	tenderwatch -addr :8080                # override the listen address
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/tenderwatch"
)

func main() {
	configPath := flag.String("config", "", "path to tenderwatch.yaml config file")
	dbPath := flag.String("db", "", "path to SQLite database")
	addr := flag.String("addr", "", "HTTP listen address")
	resultsDir := flag.String("results", "", "directory for CSV artifacts")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *dbPath, *addr, *resultsDir); err != nil {
		logger.Error("tenderwatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, dbPath, addr, resultsDir string) error {
	cfg, err := resolveConfig(configPath, dbPath, addr, resultsDir)
	if err != nil {
		return err
	}

	app, err := tenderwatch.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer app.Close()

	return app.Run(ctx)
}

func resolveConfig(configPath, dbPath, addr, resultsDir string) (*tenderwatch.Config, error) {
	cfg := &tenderwatch.Config{}
	if configPath != "" {
		loaded, err := tenderwatch.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
		cfg = loaded
	}

	// Flags override the file.
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if resultsDir != "" {
		cfg.ResultsDir = resultsDir
	}
	return cfg, nil
}
