package chatware

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatIdentifier is implemented by events that know their chat id. ok is
// false when the chat or its id is missing.
type ChatIdentifier interface {
	ChatID() (id int64, ok bool)
}

// ChatIDOf returns the chat id of an event. Telegram messages and updates are
// read directly; ChatIdentifier values are asked; anything else is read as
// JSON through JSONInspector and must have a "chat" object with an "id".
// Paths are case-sensitive, so Go structs need `json:"chat"` and `json:"id"`
// tags (or should implement ChatIdentifier instead).
//
// The id must be an integer: a JSON number with no fractional part (7 and
// 7.0 both read as 7) or a string holding one. A null id counts as missing.
//
// It returns ErrNoChat when the chat reference is missing or the event is a
// nil pointer, ErrNoChatID when the chat carries no id (wrapped with
// "is not an integer" when the id is present but unusable), and
// ErrUnsupportedEvent when the event cannot be inspected.
func ChatIDOf(event any) (int64, error) {
	return chatIDOf(JSONInspector(), event)
}

func chatIDOf(insp Inspector, event any) (int64, error) {
	switch ev := event.(type) {
	case nil:
		return 0, ErrNoChat
	case *tgbotapi.Message:
		if ev == nil {
			return 0, ErrNoChat
		}
		return telegramChatID(ev.Chat)
	case tgbotapi.Message:
		return telegramChatID(ev.Chat)
	case *tgbotapi.Update:
		if ev == nil {
			return 0, ErrNoChat
		}
		return telegramChatID(ev.FromChat())
	case tgbotapi.Update:
		return telegramChatID(ev.FromChat())
	case ChatIdentifier:
		if isNilPointer(ev) {
			return 0, ErrNoChat
		}
		id, ok := ev.ChatID()
		if !ok {
			return 0, ErrNoChatID
		}
		return id, nil
	}

	view, err := inspectEvent(insp, event)
	if err != nil {
		return 0, err
	}
	if !view.HasField("chat") {
		return 0, ErrNoChat
	}
	if id, ok := view.GetInt("chat.id"); ok {
		return id, nil
	}
	if raw, ok := view.GetBytes("chat.id"); ok {
		return 0, errors.Wrapf(ErrNoChatID, "chat id %s is not an integer", raw)
	}
	return 0, ErrNoChatID
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// telegramChatID treats a zero id as missing: Telegram never assigns it.
func telegramChatID(chat *tgbotapi.Chat) (int64, error) {
	if chat == nil {
		return 0, ErrNoChat
	}
	if chat.ID == 0 {
		return 0, ErrNoChatID
	}
	return chat.ID, nil
}

// inspectEvent encodes an event as JSON, unless it already is, and inspects
// it.
func inspectEvent(insp Inspector, event any) (View, error) {
	var raw []byte
	switch ev := event.(type) {
	case []byte:
		raw = ev
	case json.RawMessage:
		raw = ev
	case string:
		raw = []byte(ev)
	default:
		b, err := json.Marshal(event)
		if err != nil {
			return nil, errors.Wrapf(ErrUnsupportedEvent, "encode %T: %v", event, err)
		}
		raw = b
	}

	view, err := insp.Inspect(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedEvent, "inspect %T: %v", event, err)
	}
	return view, nil
}
