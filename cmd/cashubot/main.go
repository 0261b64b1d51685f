package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/susu3304/cashubot/internal/api"
	"github.com/susu3304/cashubot/internal/bot"
	"github.com/susu3304/cashubot/internal/config"
	"github.com/susu3304/cashubot/internal/db"
	"github.com/susu3304/cashubot/internal/ledger"
	clog "github.com/susu3304/cashubot/internal/log"
	"github.com/susu3304/cashubot/internal/mint"
	"github.com/susu3304/cashubot/internal/wallet"
)

type accountStore interface {
	ledger.Store
	io.Closer
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		clog.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := clog.Init(cfg.LogLevel, cfg.LogJSON, cfg.LogFile); err != nil {
		clog.Fatal().Err(err).Msg("Failed to initialize logging")
	}
	defer func() {
		if err := clog.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}()

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		clog.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open account store")
	}
	defer store.Close()

	pool := mint.NewPool(cfg.MintTimeout)
	svc, err := wallet.NewService(ledger.New(store), func(u string) wallet.Mint { return pool.Client(u) }, cfg.DefaultMintURL)
	if err != nil {
		clog.Fatal().Err(err).Msg("Failed to create wallet service")
	}

	// Initialize Discord bot
	discordBot, err := bot.New(cfg.DiscordToken, svc, cfg.CashuAPIURL)
	if err != nil {
		clog.Fatal().Err(err).Msg("Failed to create discord bot")
	}

	// Initialize API server
	apiServer := api.New(cfg, svc)

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		clog.Fatal().Err(err).Msg("Failed to start discord bot")
	}
	defer discordBot.Stop()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			clog.API.Error().Err(err).Msg("API server error")
		}
	}()

	clog.Info().
		Str("mint", cfg.DefaultMintURL).
		Str("store", cfg.StoreBackend).
		Msg("cashubot started")

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	clog.Info().Msg("Shutting down...")
}

func openStore(ctx context.Context, cfg *config.Config) (accountStore, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		clog.Storage.Info().Msg("Connected to Postgres account store")
		return database, nil
	case config.StoreBadger:
		badger, err := db.NewBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		clog.Storage.Info().Str("path", cfg.BadgerPath).Msg("Opened Badger account store")
		return badger, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
