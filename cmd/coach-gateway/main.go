// Command coach-gateway serves the AI tool endpoint for the admissions
// coaching platform.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/admitpath/coach-gateway/internal/auth"
	"github.com/admitpath/coach-gateway/internal/config"
	"github.com/admitpath/coach-gateway/internal/gateway"
	"github.com/admitpath/coach-gateway/internal/monitoring"
	"github.com/admitpath/coach-gateway/internal/quota"
	"github.com/admitpath/coach-gateway/internal/tools"
	"github.com/admitpath/coach-gateway/internal/upstream"
	"github.com/admitpath/coach-gateway/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	port := flag.Int("port", 0, "override server port")
	debug := flag.Bool("debug", false, "enable debug logging")
	runSetup := flag.Bool("setup", false, "interactive first-run setup")
	flag.Parse()

	initLogging(*debug)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if *runSetup {
		if err := setupWizard(); err != nil {
			log.Fatal().Err(err).Msg("setup failed")
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("gateway exited")
	}
}

func initLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func run(cfg *config.Config) error {
	resolver := auth.NewTokenResolver(cfg.Auth.TokenSecret)
	tracker := quota.NewDailyTracker(cfg.Quota.DailyLimit)
	registry := tools.NewRegistry()
	client := upstream.NewClient(cfg.Anthropic.Endpoint, cfg.Anthropic.APIKey,
		upstream.WithTimeout(cfg.Anthropic.RequestTimeout))

	opts := []gateway.Option{}
	if cfg.Monitoring.Enabled {
		store, err := monitoring.NewStore(cfg.Monitoring.UsageDBPath)
		if err != nil {
			return fmt.Errorf("opening usage store: %w", err)
		}
		defer func() { _ = store.Close() }()
		opts = append(opts,
			gateway.WithStore(store),
			gateway.WithEstimator(monitoring.NewEstimator()),
			gateway.WithFeed(monitoring.NewFeed()),
		)
	}

	gw := gateway.New(cfg, resolver, tracker, registry, client, opts...)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     gw.Routes(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// Long write timeout: responses stream for minutes.
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("api_key", utils.MaskKey(cfg.Anthropic.APIKey)).
			Int("daily_limit", cfg.Quota.DailyLimit).
			Bool("monitoring", cfg.Monitoring.Enabled).
			Msg("gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
