package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"phishspotter/config"
	"phishspotter/detection"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	blocklist := detection.NewSafeBrowsingClient(cfg.SafeBrowsingEndpoint, cfg.SafeBrowsingAPIKey, cfg.SafeBrowsingTimeout, logger)
	classifier := detection.NewClassifierClient(cfg.ClassifierEndpoint, cfg.ClassifierToken, cfg.ClassifierTimeout, logger)
	registration := detection.NewRegistrationClient(cfg.WhoisServer, cfg.WhoisTimeout, logger)

	engine := detection.NewEngine(blocklist, classifier, registration, logger)
	handler := detection.NewHandler(engine, logger)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Routes(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info().Str("addr", cfg.ListenAddr).Msg("phishspotter listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}
}
