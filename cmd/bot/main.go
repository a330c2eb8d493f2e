package main

import (
	"flag"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ZidanAK22/RateYourGroupMates/internal/app"
	"github.com/ZidanAK22/RateYourGroupMates/internal/bot"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	cfg, err := bot.ReadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to read config: %v", err)
	}

	store, err := app.NewStore(cfg.Database.DSN)
	if err != nil {
		logger.Error.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	opt, err := redis.ParseURL(cfg.Auth.RedisURL)
	if err != nil {
		logger.Error.Fatalf("Failed to parse redis URL: %v", err)
	}
	sessions := app.NewSessionManager(redis.NewClient(opt))
	defer sessions.Close()

	b, err := bot.New(cfg, store, sessions)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info.Println("Bot initialized successfully")
	if err := b.Start(); err != nil {
		logger.Error.Fatalf("Bot error: %v", err)
	}
}
