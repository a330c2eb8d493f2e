package bot

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ZidanAK22/RateYourGroupMates/internal/app"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
)

type Bot struct {
	config   *Config
	store    store.RatingStore
	sessions *app.SessionManager
	api      *tgbotapi.BotAPI
	admins   map[int64]bool

	mu    sync.Mutex
	flows map[int64]*rateFlow // active /rate conversations per chat
}

func New(config *Config, store store.RatingStore, sessions *app.SessionManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	admins := make(map[int64]bool)
	for _, id := range config.Bot.AdminIDs {
		admins[id] = true
	}

	return &Bot{
		config:   config,
		store:    store,
		sessions: sessions,
		api:      api,
		admins:   admins,
		flows:    make(map[int64]*rateFlow),
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	logger.Info.Printf("Bot authorized as %s", b.api.Self.UserName)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	if err != nil {
		logger.Error.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
	return err
}
