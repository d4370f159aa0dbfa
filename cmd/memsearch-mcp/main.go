package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/app"
	"github.com/kailas-cloud/memsearch/internal/config"
	logpkg "github.com/kailas-cloud/memsearch/internal/logger"
	"github.com/kailas-cloud/memsearch/internal/transport/mcp"
	"github.com/kailas-cloud/memsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// logger writes to stderr; stdout carries the MCP protocol
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to wire services", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	logger.Info("Starting memsearch MCP server",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("default_owner", cfg.MCP.DefaultOwner),
	)

	srv := mcp.NewServer(version.Version, a.Search, a.Facts, cfg.MCP.DefaultOwner, logger)
	if err := srv.Serve(); err != nil {
		logger.Error("MCP server stopped", zap.Error(err))
	}
}
