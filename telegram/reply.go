package telegram

import (
	"github.com/pkg/errors"

	"github.com/bjaus/chatware"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrNoBot is returned by Reply when the run was not dispatched with a Bot.
var ErrNoBot = errors.New("no bot in dispatch arguments")

// BotFrom returns the first Bot among the run's dispatch arguments.
func BotFrom(c *chatware.Context) (Bot, bool) {
	for _, arg := range c.Args() {
		if bot, ok := arg.(Bot); ok {
			return bot, true
		}
	}
	return nil, false
}

// Reply sends text to the run's chat, as a reply when the event is a
// message.
func Reply(c *chatware.Context, text string) (tgbotapi.Message, error) {
	bot, ok := BotFrom(c)
	if !ok {
		return tgbotapi.Message{}, ErrNoBot
	}

	out := tgbotapi.NewMessage(c.ChatID(), text)
	if msg := c.Message(); msg != nil {
		out.ReplyToMessageID = msg.MessageID
	}

	sent, err := bot.Send(out)
	if err != nil {
		return tgbotapi.Message{}, errors.Wrapf(err, "send reply to chat %d", c.ChatID())
	}
	return sent, nil
}
