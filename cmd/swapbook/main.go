package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/config"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/runner"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "configPath", *configPath, "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := setupLogger(cfg.App.LogFile, cfg.App.LogLevel)

	logger.Info("Config loaded successfully",
		"app", cfg.App.Name,
		"configPath", *configPath,
		"pairs", len(cfg.Pairs))

	// Create and run service
	r, err := runner.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to create runner", "error", err)
		os.Exit(1)
	}

	if err := r.Run(context.Background()); err != nil {
		logger.Error("Service error", "error", err)
		os.Exit(1)
	}
}

// setupLogger initializes the logger
func setupLogger(path, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	// Create logs directory
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		slog.Error("Failed to create logs directory", "error", err)
	}

	// Open log file
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("Failed to open log file", "error", err)
		// Fallback to stdout
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}

	// Output to both file and stdout
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	return slog.New(slog.NewTextHandler(multiWriter, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
