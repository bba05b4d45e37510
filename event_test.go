package chatware

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func testMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		From:      &tgbotapi.User{ID: chatID, UserName: "alice"},
	}
}

type roomEvent struct {
	room string
	id   int64
}

func (e roomEvent) ChatID() (int64, bool) { return e.id, e.id != 0 }

type ticket struct {
	chat int64
}

func (t *ticket) ChatID() (int64, bool) { return t.chat, true }

type untaggedChat struct {
	ID int64
}

type untaggedEvent struct {
	Chat *untaggedChat
}

type envelope struct {
	Chat *struct {
		ID int64 `json:"id,omitempty"`
	} `json:"chat,omitempty"`
	Text string `json:"text"`
}

func TestChatIDOf_NonIntegerID(t *testing.T) {
	_, err := ChatIDOf([]byte(`{"chat": {"id": "ops"}}`))

	require.ErrorIs(t, err, ErrNoChatID)
	assert.Contains(t, err.Error(), `chat id "ops" is not an integer`)

	_, err = ChatIDOf([]byte(`{"chat": {}}`))

	require.ErrorIs(t, err, ErrNoChatID)
	assert.NotContains(t, err.Error(), "is not an integer")
}

func TestChatIDOf(t *testing.T) {
	tests := []struct {
		name    string
		event   any
		want    int64
		wantErr error
	}{
		{name: "message pointer", event: testMessage(5, "hi"), want: 5},
		{name: "message value", event: *testMessage(6, "hi"), want: 6},
		{name: "message without chat", event: &tgbotapi.Message{Text: "hi"}, wantErr: ErrNoChat},
		{name: "message with zero chat id", event: &tgbotapi.Message{Chat: &tgbotapi.Chat{}}, wantErr: ErrNoChatID},
		{name: "nil message", event: (*tgbotapi.Message)(nil), wantErr: ErrNoChat},
		{name: "update with message", event: &tgbotapi.Update{Message: testMessage(7, "hi")}, want: 7},
		{name: "update value", event: tgbotapi.Update{Message: testMessage(8, "hi")}, want: 8},
		{name: "empty update", event: &tgbotapi.Update{UpdateID: 1}, wantErr: ErrNoChat},
		{name: "nil update", event: (*tgbotapi.Update)(nil), wantErr: ErrNoChat},
		{name: "chat identifier", event: roomEvent{room: "ops", id: 9}, want: 9},
		{name: "chat identifier without id", event: roomEvent{room: "ops"}, wantErr: ErrNoChatID},
		{name: "raw JSON", event: []byte(`{"chat": {"id": 10}}`), want: 10},
		{name: "raw message", event: json.RawMessage(`{"chat": {"id": -10}}`), want: -10},
		{name: "JSON string", event: `{"chat": {"id": "11"}}`, want: 11},
		{name: "map", event: map[string]any{"chat": map[string]any{"id": 12}}, want: 12},
		{name: "struct", event: envelope{Chat: &struct {
			ID int64 `json:"id,omitempty"`
		}{ID: 13}}, want: 13},
		{name: "struct without chat", event: envelope{Text: "hi"}, wantErr: ErrNoChat},
		{name: "struct without chat id", event: envelope{Chat: &struct {
			ID int64 `json:"id,omitempty"`
		}{}}, wantErr: ErrNoChatID},
		{name: "chat identifier pointer", event: &ticket{chat: 14}, want: 14},
		{name: "nil chat identifier pointer", event: (*ticket)(nil), wantErr: ErrNoChat},
		{name: "untagged struct", event: untaggedEvent{Chat: &untaggedChat{ID: 15}}, wantErr: ErrNoChat},
		{name: "integral float id", event: []byte(`{"chat": {"id": 16.0}}`), want: 16},
		{name: "non-numeric id", event: []byte(`{"chat": {"id": "ops"}}`), wantErr: ErrNoChatID},
		{name: "fractional id", event: []byte(`{"chat": {"id": 7.5}}`), wantErr: ErrNoChatID},
		{name: "null id", event: []byte(`{"chat": {"id": null}}`), wantErr: ErrNoChatID},
		{name: "chat is not an object", event: []byte(`{"chat": 5}`), wantErr: ErrNoChatID},
		{name: "nil", event: nil, wantErr: ErrNoChat},
		{name: "invalid JSON", event: []byte(`{`), wantErr: ErrUnsupportedEvent},
		{name: "unencodable", event: make(chan int), wantErr: ErrUnsupportedEvent},
		{name: "JSON array", event: []byte(`[1, 2]`), wantErr: ErrNoChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChatIDOf(tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fixedInspector struct {
	view View
}

func (i fixedInspector) Inspect([]byte) (View, error) { return i.view, nil }

type fixedView struct {
	chatID int64
}

func (v fixedView) HasField(path string) bool { return path == "chat" }

func (v fixedView) GetString(string) (string, bool) { return "", false }

func (v fixedView) GetInt(path string) (int64, bool) {
	return v.chatID, path == "chat.id"
}

func (v fixedView) GetBytes(string) ([]byte, bool) { return nil, false }

func TestWithInspector(t *testing.T) {
	var got int64
	chain := New(WithInspector(fixedInspector{view: fixedView{chatID: 77}})).
		UseFunc(func(c *Context) error {
			got = c.ChatID()
			return nil
		})

	require.NoError(t, chain.Dispatch(context.Background(), []byte("opaque protobuf bytes")))
	assert.Equal(t, int64(77), got)
}
