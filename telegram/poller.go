package telegram

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dispatcher runs a chain against an event. chatware.Chain implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, args ...any) error
}

// Poller long-polls the Bot API and dispatches every incoming message.
// Each message is dispatched with the bot as a second argument, so handlers
// can answer with Reply.
type Poller struct {
	bot         Bot
	dispatcher  Dispatcher
	timeout     int
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithTimeout sets the long-polling timeout in seconds. Defaults to 30.
func WithTimeout(seconds int) Option {
	return func(p *Poller) {
		p.timeout = seconds
	}
}

// WithConcurrency sets how many messages are dispatched at the same time.
// Defaults to 1, which keeps messages of a chat in order.
func WithConcurrency(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the poller's logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// NewPoller creates a Poller delivering messages from bot to d.
func NewPoller(bot Bot, d Dispatcher, opts ...Option) *Poller {
	p := &Poller{
		bot:         bot,
		dispatcher:  d,
		timeout:     30,
		concurrency: 1,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "telegram").Logger()
	return p
}

// Run polls until ctx is done or the update channel closes, then waits for
// in-flight dispatches. Dispatch failures are logged and do not stop
// polling.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.timeout
	updates := p.bot.GetUpdatesChan(u)
	defer p.bot.StopReceivingUpdates()

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	p.logger.Info().Str("bot", p.bot.GetSelf().UserName).Msg("polling started")

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			p.logger.Info().Msg("polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				_ = g.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			g.Go(func() error {
				p.dispatch(ctx, msg)
				return nil
			})
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	if err := p.dispatcher.Dispatch(ctx, msg, p.bot); err != nil {
		p.logger.Error().Err(err).Int("message_id", msg.MessageID).Msg("dispatch failed")
	}
}
