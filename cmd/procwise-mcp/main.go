// Package main provides the entry point for the procwise MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/procwise/internal/app"
	"github.com/raphaelgruber/procwise/internal/config"
	"github.com/raphaelgruber/procwise/internal/server"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Dual output: stderr text + file JSON. Stdout belongs to the MCP transport.
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()

	logger.Info("procwise starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start services", "error", err)
		os.Exit(1)
	}

	srv := server.New(version, logger)
	srv.Setup(a.ToolDependencies())
	logger.Info("server ready, awaiting connections")

	runErr := srv.Run(ctx)

	// Background research gets a bounded grace period after disconnect.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := a.Close(closeCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}

	if runErr != nil && ctx.Err() == nil {
		logger.Error("server error", "error", runErr)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
