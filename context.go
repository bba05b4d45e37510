package chatware

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Context is the state of one dispatch run. A new Context is created for
// every Dispatch call and shared by all handlers of that run, in order.
// Handlers use it to read the event, stop the chain, and pass values to
// later handlers.
//
// A Context is not safe for concurrent use. Handlers run one after another,
// so this only matters for goroutines a handler starts itself.
type Context struct {
	ctx     context.Context
	cfg     *config
	runID   string
	event   any
	chatID  int64
	args    []any
	stopped bool
	values  map[string]any
	logger  zerolog.Logger

	view    View
	viewErr error
	viewed  bool
}

func newContext(ctx context.Context, cfg *config) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		ctx:   ctx,
		cfg:   cfg,
		runID: uuid.NewString(),
	}
}

// Context returns the context.Context passed to Dispatch.
func (c *Context) Context() context.Context { return c.ctx }

// RunID returns a unique id for this dispatch run.
func (c *Context) RunID() string { return c.runID }

// Event returns the event the chain was dispatched with.
func (c *Context) Event() any { return c.event }

// ChatID returns the id of the chat the event belongs to.
func (c *Context) ChatID() int64 { return c.chatID }

// Args returns every argument passed to Dispatch, event first.
func (c *Context) Args() []any { return c.args }

// Message returns the event as a Telegram message, or nil if the event is not
// a message or an update carrying one.
func (c *Context) Message() *tgbotapi.Message {
	switch ev := c.event.(type) {
	case *tgbotapi.Message:
		return ev
	case tgbotapi.Message:
		return &ev
	case *tgbotapi.Update:
		if ev != nil {
			return ev.Message
		}
	case tgbotapi.Update:
		return ev.Message
	}
	return nil
}

// Stop prevents the remaining handlers of this run from starting. The handler
// calling Stop runs to completion, and the run ends successfully.
func (c *Context) Stop() { c.stopped = true }

// Stopped reports whether Stop was called.
func (c *Context) Stopped() bool { return c.stopped }

// Logger returns a logger carrying the run id and chat id.
func (c *Context) Logger() *zerolog.Logger { return &c.logger }

// Set stores a value for later handlers of the same run.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// MustGet returns the value stored under key and panics if there is none.
// The panic fails the handler like any other error.
func (c *Context) MustGet(key string) any {
	v, ok := c.values[key]
	if !ok {
		panic("chatware: key " + key + " does not exist")
	}
	return v
}

// Keys returns the stored keys in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the value stored under key if it has type T.
//
// This is a package-level function (not a method) because methods cannot have
// type parameters.
//
//	user, ok := chatware.Value[*User](c, "user")
func Value[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// View returns a field view of the event, built on first use with the
// chain's Inspector.
func (c *Context) View() (View, error) {
	if !c.viewed {
		c.view, c.viewErr = inspectEvent(c.cfg.inspector, c.event)
		c.viewed = true
	}
	return c.view, c.viewErr
}
