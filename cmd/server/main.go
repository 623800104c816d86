// Package main is the entry point for the Word Garden API server.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"word-garden/internal/achievement"
	"word-garden/internal/bot"
	"word-garden/internal/config"
	"word-garden/internal/handler"
	"word-garden/internal/pkg/db"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/reminder"
	"word-garden/internal/repository"
	"word-garden/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.App.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("log_level", cfg.App.LogLevel).Msg("Unknown log level, keeping default")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	log.Info().Str("timezone", loc.String()).Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	store := repository.NewStore(dbPool.Pool)
	userLock := lock.NewUserLock(cfg.App.LockTimeout)
	ledger := service.NewLedger()

	accountService := service.NewAccountService(store, userLock, ledger)
	rankingService := service.NewRankingService(store)
	wordService := service.NewWordService(store)
	learningService := service.NewLearningService(store, userLock, ledger, nil)
	shopService := service.NewShopService(store, userLock, ledger)
	achievementService := service.NewAchievementService(
		store, userLock, ledger, achievement.NewDefaultRegistry(), loc, nil,
	)
	goalService := service.NewGoalService(
		store, userLock, service.NewPenaltyEngine(), loc, cfg.Weekly.TargetWords, nil,
	)

	app := handler.NewApp(&cfg.Server, &handler.Services{
		Accounts:     accountService,
		Ranking:      rankingService,
		Words:        wordService,
		Learning:     learningService,
		Shop:         shopService,
		Achievements: achievementService,
		Goals:        goalService,
	}, dbPool)

	var (
		telegramBot *bot.Bot
		reminderJob *reminder.Reminder
	)
	if cfg.BotEnabled() {
		telegramBot, err = bot.New(&bot.Dependencies{
			Config:       cfg,
			Accounts:     accountService,
			Learning:     learningService,
			Goals:        goalService,
			Achievements: achievementService,
			Shop:         shopService,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create bot")
		}
		go telegramBot.Start()

		if cfg.Reminder.Enabled {
			reminderJob = reminder.New(store.Mastery, telegramBot, loc, nil)
			if err := reminderJob.Start(cfg.Reminder.Cron); err != nil {
				log.Fatal().Err(err).Msg("Failed to start review reminder")
			}
		}
	} else {
		log.Info().Msg("Bot token not set, Telegram front-end disabled")
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server is starting...")
		serverErr <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}

	if reminderJob != nil {
		if err := reminderJob.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop review reminder")
		}
	}
	if telegramBot != nil {
		telegramBot.Stop()
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped gracefully")
}
