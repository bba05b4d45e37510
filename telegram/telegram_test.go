package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/chatware"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// mockBot implements Bot for testing.
type mockBot struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	stopped  bool
	timeout  int
	sent     []tgbotapi.Chattable
	sendErr  error
	userName string
}

func newMockBot() *mockBot {
	return &mockBot{
		updates:  make(chan tgbotapi.Update, 10),
		userName: "testbot",
	}
}

func (m *mockBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = config.Timeout
	return m.updates
}

func (m *mockBot) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	if m.sendErr != nil {
		return tgbotapi.Message{}, m.sendErr
	}
	return tgbotapi.Message{MessageID: len(m.sent)}, nil
}

func (m *mockBot) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: m.userName}
}

func (m *mockBot) sentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var texts []string
	for _, c := range m.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func message(chatID int64, id int, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: id,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: chatID},
	}
}

var _ Bot = (*mockBot)(nil)

func TestNewBot_RequiresToken(t *testing.T) {
	_, err := NewBot("", "")
	assert.Error(t, err)
}

func TestNewBot_RejectsBadProxy(t *testing.T) {
	_, err := NewBot("token", "://bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse proxy url")
}

func TestReply(t *testing.T) {
	t.Run("replies to the message", func(t *testing.T) {
		bot := newMockBot()
		var sent tgbotapi.Message
		chain := chatware.UseFunc(func(c *chatware.Context) error {
			var err error
			sent, err = Reply(c, "pong")
			return err
		})

		require.NoError(t, chain.Dispatch(context.Background(), message(5, 11, "ping"), bot))

		require.Len(t, bot.sent, 1)
		out, ok := bot.sent[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(5), out.ChatID)
		assert.Equal(t, 11, out.ReplyToMessageID)
		assert.Equal(t, "pong", out.Text)
		assert.Equal(t, 1, sent.MessageID)
	})

	t.Run("sends plain message for non-message events", func(t *testing.T) {
		bot := newMockBot()
		chain := chatware.UseFunc(func(c *chatware.Context) error {
			_, err := Reply(c, "hello")
			return err
		})

		require.NoError(t, chain.Dispatch(context.Background(), []byte(`{"chat": {"id": 8}}`), bot))

		require.Len(t, bot.sent, 1)
		out := bot.sent[0].(tgbotapi.MessageConfig)
		assert.Equal(t, int64(8), out.ChatID)
		assert.Zero(t, out.ReplyToMessageID)
	})

	t.Run("fails without bot", func(t *testing.T) {
		chain := chatware.New(chatware.WithErrorHook(func(error) {})).UseFunc(func(c *chatware.Context) error {
			_, err := Reply(c, "hello")
			return err
		})

		err := chain.Dispatch(context.Background(), message(5, 1, "hi"))

		assert.ErrorIs(t, err, ErrNoBot)
	})

	t.Run("wraps send errors", func(t *testing.T) {
		bot := newMockBot()
		bot.sendErr = errors.New("network down")
		chain := chatware.New(chatware.WithErrorHook(func(error) {})).UseFunc(func(c *chatware.Context) error {
			_, err := Reply(c, "hello")
			return err
		})

		err := chain.Dispatch(context.Background(), message(5, 1, "hi"), bot)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "send reply to chat 5")
		assert.Contains(t, err.Error(), "network down")
	})
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls [][]any
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, args)
	return d.err
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func TestPoller_Run(t *testing.T) {
	t.Run("dispatches messages with the bot", func(t *testing.T) {
		bot := newMockBot()
		d := &recordingDispatcher{}
		p := NewPoller(bot, d, WithLogger(zerolog.Nop()), WithTimeout(5))

		msg := message(1, 1, "hi")
		bot.updates <- tgbotapi.Update{UpdateID: 1, Message: msg}
		bot.updates <- tgbotapi.Update{UpdateID: 2}
		close(bot.updates)

		require.NoError(t, p.Run(context.Background()))

		require.Equal(t, 1, d.count())
		assert.Equal(t, []any{msg, Bot(bot)}, d.calls[0])
		assert.Equal(t, 5, bot.timeout)
		assert.True(t, bot.stopped)
	})

	t.Run("keeps polling after dispatch errors", func(t *testing.T) {
		bot := newMockBot()
		d := &recordingDispatcher{err: errors.New("boom")}
		p := NewPoller(bot, d, WithLogger(zerolog.Nop()))

		bot.updates <- tgbotapi.Update{Message: message(1, 1, "a")}
		bot.updates <- tgbotapi.Update{Message: message(1, 2, "b")}
		close(bot.updates)

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, 2, d.count())
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		bot := newMockBot()
		p := NewPoller(bot, &recordingDispatcher{}, WithLogger(zerolog.Nop()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- p.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("poller did not stop")
		}
	})

	t.Run("runs a chain end to end", func(t *testing.T) {
		bot := newMockBot()
		chain := chatware.New(chatware.WithLogger(zerolog.Nop())).
			Use(chatware.AllowChats(1)).
			UseFunc(func(c *chatware.Context) error {
				_, err := Reply(c, "echo: "+c.Message().Text)
				return err
			})
		p := NewPoller(bot, chain, WithLogger(zerolog.Nop()), WithConcurrency(4))

		bot.updates <- tgbotapi.Update{Message: message(1, 1, "hello")}
		bot.updates <- tgbotapi.Update{Message: message(2, 2, "blocked")}
		bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "no chat"}}
		close(bot.updates)

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{"echo: hello"}, bot.sentTexts())
	})
}
