package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/ensemble/internal/config"
	"github.com/tensorplex-labs/ensemble/internal/metrics"
	"github.com/tensorplex-labs/ensemble/internal/server"
	"github.com/tensorplex-labs/ensemble/internal/utils/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init()
	defer logger.Logger.Sync() //nolint:errcheck
	log.Info().Msg("Starting scoring server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, catalog, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	s, err := server.NewServer(&cfg.ServerEnvConfig, catalog, server.Options{Metrics: metrics.New()})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
	log.Info().Msg("server stopped")
}
