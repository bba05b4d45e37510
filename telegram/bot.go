// Package telegram feeds Telegram Bot API updates into chatware chains.
package telegram

import (
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the subset of *tgbotapi.BotAPI used by this package. Tests provide
// their own implementation.
type Bot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
}

// botAPI wraps tgbotapi.BotAPI to implement Bot.
type botAPI struct {
	bot *tgbotapi.BotAPI
}

func (b *botAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.bot.GetUpdatesChan(config)
}

func (b *botAPI) StopReceivingUpdates() {
	b.bot.StopReceivingUpdates()
}

func (b *botAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return b.bot.Send(c)
}

func (b *botAPI) GetSelf() tgbotapi.User {
	return b.bot.Self
}

// NewBot connects to the Bot API with token. When proxy is set, requests go
// through that proxy URL.
func NewBot(token, proxy string) (Bot, error) {
	if token == "" {
		return nil, errors.New("telegram token is required")
	}

	client := http.DefaultClient
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, errors.Wrap(err, "parse proxy url")
		}
		client = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}
	return &botAPI{bot: bot}, nil
}
