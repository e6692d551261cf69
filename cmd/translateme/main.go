package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"translateme/internal/bootstrap"
	"translateme/internal/cli"
	"translateme/internal/config"
	"translateme/internal/logging"
	"translateme/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := cli.NewFlags()
	rootCmd := cli.CreateRootCommand(flags, openSession)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openSession builds the same orchestrator as the server, without metrics.
// Logs go to stderr so command output stays pipeable.
func openSession(ctx context.Context) (service.Orchestrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := bootstrap.OpenHistory(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s history: %w", cfg.History.Backend, err)
	}

	translator, err := bootstrap.NewTranslator(cfg.Translation, bootstrap.NewDetector(cfg.Translation), nil)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	orch, err := bootstrap.NewOrchestrator(cfg, translator, store, logger, nil)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	release := func() {
		orch.Close()
		if err := closeStore(); err != nil {
			logger.Warn().Err(err).Msg("closing history store")
		}
	}
	return orch, release, nil
}
