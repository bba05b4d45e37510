package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bjaus/chatware"
	"github.com/bjaus/chatware/telegram"
)

const tokenEnv = "CHATWARE_TELEGRAM_TOKEN"

// BotFactory creates the Telegram bot (replaced in tests).
type BotFactory func(token, proxy string) (telegram.Bot, error)

var botFactory BotFactory = telegram.NewBot

var (
	tokenFlag       string
	proxyFlag       string
	allowFlag       []int64
	timeoutFlag     int
	concurrencyFlag int
	logLevelFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "chatbot - echo bot built on a chatware chain",
	RunE:  runBot,
}

func init() {
	rootCmd.Flags().StringVar(&tokenFlag, "token", "", "Telegram bot token (default $"+tokenEnv+")")
	rootCmd.Flags().StringVar(&proxyFlag, "proxy", "", "HTTP proxy URL for the Bot API")
	rootCmd.Flags().Int64SliceVar(&allowFlag, "allow", nil, "chat ids allowed to use the bot (default all)")
	rootCmd.Flags().IntVar(&timeoutFlag, "timeout", 30, "long-polling timeout in seconds")
	rootCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 1, "messages dispatched at the same time")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "info", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), logLevelFlag)
	if err != nil {
		return err
	}

	token := tokenFlag
	if token == "" {
		token = os.Getenv(tokenEnv)
	}

	bot, err := botFactory(token, proxyFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := telegram.NewPoller(bot, buildChain(logger, allowFlag),
		telegram.WithLogger(logger),
		telegram.WithTimeout(timeoutFlag),
		telegram.WithConcurrency(concurrencyFlag),
	)
	return poller.Run(ctx)
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, errors.Wrap(err, "parse log level")
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// buildChain assembles the bot's middleware:
// allowlist, request logging, /start and /help, then echo for text messages
// that are not commands.
func buildChain(logger zerolog.Logger, allow []int64) chatware.Chain {
	return chatware.New(chatware.WithLogger(logger), chatware.WithErrorHook(func(err error) {
		logger.Error().Err(err).Msg("handler failed")
	})).
		Use(chatware.AllowChats(allow...)).
		UseFunc(logRequest).
		Use(chatware.When(chatware.Or(chatware.Command("start"), chatware.Command("help")), chatware.HandlerFunc(greet))).
		Use(chatware.When(chatware.And(
			chatware.HasFields("text"),
			chatware.Not(chatware.FieldPrefix("text", "/")),
		), chatware.HandlerFunc(echo)))
}

func logRequest(c *chatware.Context) error {
	c.Set("start", time.Now())
	ev := c.Logger().Debug()
	if msg := c.Message(); msg != nil && msg.From != nil {
		ev = ev.Str("from", msg.From.UserName)
	}
	ev.Msg("message received")
	return nil
}

func greet(c *chatware.Context) error {
	defer c.Stop()
	_, err := telegram.Reply(c, "Hi! Send me any text and I will echo it back.")
	return err
}

func echo(c *chatware.Context) error {
	msg := c.Message()
	if msg == nil || msg.Text == "" {
		return nil
	}
	if _, err := telegram.Reply(c, msg.Text); err != nil {
		return err
	}
	if start, ok := chatware.Value[time.Time](c, "start"); ok {
		c.Logger().Debug().Dur("took", time.Since(start)).Msg("echoed")
	}
	return nil
}
