package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"gpuwatch/internal/cli"
	"gpuwatch/internal/config"
	"gpuwatch/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.NewJSONLogger(os.Stderr)

	rootCmd := cli.NewRootCmd(&cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(map[string]any{"msg": "gpuwatch exited with error", "error": err.Error()})
		os.Exit(1)
	}
}
