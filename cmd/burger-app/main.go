// Headless smoke client: boots the composed store against a running burger
// API, performs the startup sequence every UI mount would perform (session
// bootstrap, catalog load, feed load) and logs the resulting state.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/stellar-burgers/internal/api"
	"github.com/vasiliy-maslov/stellar-burgers/internal/app"
	"github.com/vasiliy-maslov/stellar-burgers/internal/auth"
	"github.com/vasiliy-maslov/stellar-burgers/internal/config"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "burger-app").Logger()

	cfg, err := config.LoadClient(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	tokens := auth.NewFileStore(cfg.TokenFile)
	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, tokens, log.Logger)
	store := app.New(client, tokens, log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Session.Bootstrap(ctx); err != nil {
		log.Warn().Err(err).Msg("Session bootstrap failed")
	}
	if err := store.Catalog.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Catalog load failed")
	}
	if err := store.Feed.LoadAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Feed load failed")
	}

	snapshot := store.Snapshot()
	log.Info().
		Bool("auth_checked", snapshot.User.IsAuthChecked).
		Bool("authenticated", snapshot.User.IsAuthenticated).
		Int("ingredients", len(snapshot.Ingredients.Ingredients)).
		Int("feed_orders", len(snapshot.Feed.Orders)).
		Int("feed_total", snapshot.Feed.Total).
		Uint64("transitions", store.Version()).
		Msg("Store state after startup")
}
