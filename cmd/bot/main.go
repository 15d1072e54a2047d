package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/xaenox/routine-bot/internal/bot"
	"github.com/xaenox/routine-bot/internal/dialogue"
	"github.com/xaenox/routine-bot/internal/router"
	"github.com/xaenox/routine-bot/internal/storage"
	"github.com/xaenox/routine-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Initialize logger
	logger, _ := zap.NewProduction()

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}
	if cfg.App.Env == "develop" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err), zap.String("path", configPath))
	}
	loc, err := cfg.Dialogue.Location()
	if err != nil {
		logger.Fatal("Invalid timezone", zap.Error(err))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			DBName:       cfg.Database.DBName,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	engine := dialogue.NewEngine(store, dialogue.Config{
		Location:          loc,
		RecentCompletions: cfg.Dialogue.RecentCompletions,
	}, logger)
	rt := router.New(store, engine, router.Config{
		FreePlanMaxEvents: cfg.Dialogue.FreePlanMaxEvents,
	}, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram, rt, store, cfg.Dialogue.ProfileRefreshInterval, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the bot
	logger.Info("Starting bot", zap.String("mode", cfg.Telegram.Mode), zap.String("timezone", loc.String()))
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}
