package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"

	"guardline/pkg/bus"
	"guardline/pkg/db"
	gos3 "guardline/pkg/s3"
	"guardline/pkg/telemetry"
	"guardline/services/api"
)

type config struct {
	Addr         string `env:"ADDR,default=:8080"`
	DBDSN        string `env:"DATABASE_URL,required"`
	NATSURL      string `env:"NATS_URL"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`

	API api.Config
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

	shutdownTelemetry, traceMiddleware, err := telemetry.Init(ctx, "guardline-api", cfg.OTLPEndpoint, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("init telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	orm, err := db.OpenORM(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open orm")
	}

	store := &api.Store{DB: pool, ORM: orm}

	if cfg.NATSURL != "" {
		b, err := bus.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect nats")
		}
		defer b.Close()
		store.Bus = b
	} else {
		log.Warn().Msg("NATS_URL not set; alert fanout disabled")
	}

	if os.Getenv("S3_ENDPOINT") != "" {
		s3c, err := gos3.NewClientFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("connect s3")
		}
		store.S3 = s3c
	} else {
		log.Warn().Msg("S3_ENDPOINT not set; alert media disabled")
	}

	apiLayer, err := api.New(store, cfg.API, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("init api")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           traceMiddleware(apiLayer.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting guardline-api")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
