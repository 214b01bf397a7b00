package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/skymail/skymail/internal/app"
	"github.com/skymail/skymail/internal/config"
	"github.com/skymail/skymail/internal/log"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	bootLog := log.New("info")
	cfg, resolvedPath, err := config.Load(bootLog, configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	logger := log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	logger.Info().Str("addr", cfg.Addr()).Str("config", resolvedPath).Msg("starting skymail server")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
