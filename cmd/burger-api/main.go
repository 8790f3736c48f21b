package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/stellar-burgers/internal/burgerapi"
	"github.com/vasiliy-maslov/stellar-burgers/internal/config"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "burger-api").Logger()

	log.Info().Msg("Burger API starting...")

	cfg, err := config.LoadServer(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	var storage burgerapi.Storage
	switch cfg.StorageDriver {
	case "postgres":
		db, err := burgerapi.NewPostgres(cfg.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		storage = burgerapi.NewPostgresStorage(db)
	default:
		storage = burgerapi.NewMemoryStorage()
	}

	if err := storage.SeedIngredients(context.Background(), burgerapi.DefaultIngredients()); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed ingredients")
	}

	server := burgerapi.NewServer(storage, cfg.JWTSecret, cfg.AccessTTL)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.StorageDriver).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
