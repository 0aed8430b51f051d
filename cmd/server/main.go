package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/otrade-bot/server/internal/catalog"
	"github.com/otrade-bot/server/internal/core"
	"github.com/otrade-bot/server/internal/engine"
	"github.com/otrade-bot/server/internal/extract"
	"github.com/otrade-bot/server/internal/finalize"
	"github.com/otrade-bot/server/internal/pdf"
	"github.com/otrade-bot/server/internal/repo"
	"github.com/otrade-bot/server/internal/server"
	"github.com/otrade-bot/server/internal/whatsapp"
	logx "github.com/otrade-bot/server/pkg/logger"
	pkgredis "github.com/otrade-bot/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis      pkgredis.Config
	SessionTTL string `envconfig:"SESSION_TTL" default:"168h"`

	// LLM provider
	Provider extract.ProviderConfig

	// Capabilities
	Extractor   extract.Config
	Prompt      extract.PromptConfig
	Engine      engine.Config
	PDF         pdf.Config
	WooCommerce catalog.Config
	Twilio      whatsapp.Config
	Server      server.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	ttl, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("session_ttl", cfg.SessionTTL).Msg("invalid SESSION_TTL")
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise redis client")
	}
	defer rdb.Close()

	modelClient, err := extract.NewModelClient(ctx, cfg.Extractor, cfg.Provider)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise model client")
	}
	extractor := extract.NewLLMExtractor(modelClient, cfg.Extractor, cfg.Prompt)

	renderer, err := pdf.NewFpdfRenderer(cfg.PDF)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise pdf renderer")
	}

	var cat catalog.Client
	if cfg.WooCommerce.Configured() {
		cat = catalog.NewWooCommerceClient(cfg.WooCommerce)
	} else {
		logx.Warn().Msg("woocommerce is not configured, running without a catalog")
	}

	invoices := repo.NewRedisInvoiceStore(rdb)
	eng := engine.New(
		cfg.Engine,
		repo.NewRedisSessionStore(rdb, ttl),
		repo.NewRedisConversationStore(rdb, ttl),
		extractor,
		finalize.NewCoordinator(renderer, invoices),
		cat,
	)

	var wa whatsapp.Sender
	if cfg.Twilio.Configured() {
		wa = whatsapp.NewTwilioClient(cfg.Twilio)
	} else {
		logx.Warn().Msg("twilio is not configured, invoice follow-ups over whatsapp are disabled")
	}

	srv := server.New(cfg.Server, eng, wa)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logx.Fatal().Err(err).Msg("http server failed")
	case sig := <-stop:
		logx.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("shutdown incomplete")
		}
	}
}
