package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"

	"guardline/pkg/bus"
	"guardline/pkg/db"
	"guardline/pkg/render"
	"guardline/services/notifier"
)

type config struct {
	DBDSN      string `env:"DATABASE_URL,required"`
	NATSURL    string `env:"NATS_URL,required"`
	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	b, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect nats")
	}
	defer b.Close()

	engine, err := render.New()
	if err != nil {
		log.Fatal().Err(err).Msg("init templates")
	}

	worker, err := notifier.NewWorker(pool, b, engine, cfg.WebhookURL, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("init worker")
	}

	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start worker")
	}
	defer func() {
		if err := worker.Close(); err != nil {
			log.Error().Err(err).Msg("close worker")
		}
	}()

	if cfg.WebhookURL == "" {
		log.Warn().Msg("NOTIFY_WEBHOOK_URL not set; deliveries recorded without outbound push")
	}

	log.Info().Msg("starting guardline-notifier")
	<-ctx.Done()
}
