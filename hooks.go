package chatware

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// component tags every diagnostic entry written by this package.
const component = "chatware"

// ErrorHook observes handler failures. The process-wide hook is managed with
// SetErrorHook and ResetErrorHook; a chain can override it with
// WithErrorHook.
type ErrorHook func(err error)

// OnRejectFunc is called when Dispatch refuses to run a chain because the call
// is invalid: no arguments, or an event without a chat id. The event is nil
// when no arguments were passed. err is one of ErrNoArguments, ErrNoChat,
// ErrNoChatID or ErrUnsupportedEvent (possibly wrapped).
type OnRejectFunc func(ctx context.Context, event any, err error)

// config holds chain options. It is shared by every chain derived from the
// same root and never mutated after New returns.
type config struct {
	logger    *zerolog.Logger
	errorHook ErrorHook
	onReject  []OnRejectFunc
	inspector Inspector
}

// Option configures a chain created with New.
type Option func(*config)

// WithLogger sets the logger used for diagnostics and as the parent of every
// Context.Logger. By default the global zerolog logger is used.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = &l
	}
}

// WithErrorHook sets an error hook for this chain and every chain derived
// from it, bypassing the process-wide hook.
//
// Example:
//
//	chain := chatware.New(chatware.WithErrorHook(func(err error) {
//	    metrics.Incr("bot.handler_error")
//	}))
func WithErrorHook(fn ErrorHook) Option {
	return func(c *config) {
		c.errorHook = fn
	}
}

// WithOnReject adds a hook called when a dispatch is rejected. Multiple hooks
// are called in order. When at least one hook is set, the default warning
// log entry is not written.
//
// Example:
//
//	chatware.WithOnReject(func(ctx context.Context, event any, err error) {
//	    metrics.Incr("bot.rejected")
//	})
func WithOnReject(fn OnRejectFunc) Option {
	return func(c *config) {
		c.onReject = append(c.onReject, fn)
	}
}

// WithInspector sets the inspector used to read events that are not typed
// Telegram values. Defaults to JSONInspector.
func WithInspector(i Inspector) Option {
	return func(c *config) {
		c.inspector = i
	}
}

func newConfig(opts ...Option) *config {
	c := &config{inspector: JSONInspector()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// log returns the diagnostic logger.
func (c *config) log() zerolog.Logger {
	base := log.Logger
	if c.logger != nil {
		base = *c.logger
	}
	return base.With().Str("component", component).Logger()
}

// reject reports a validation failure.
func (c *config) reject(ctx context.Context, event any, err error) {
	for _, fn := range c.onReject {
		fn(ctx, event, err)
	}
	if len(c.onReject) > 0 {
		return
	}
	l := c.log()
	l.Warn().Err(err).Msg("not executing middlewares")
}

// hook returns the error hook in effect for a failing run.
func (c *config) hook() ErrorHook {
	if c.errorHook != nil {
		return c.errorHook
	}
	return currentErrorHook()
}

var errorHook atomic.Pointer[ErrorHook]

func defaultErrorHook(err error) {
	log.Error().Str("component", component).Err(err).Msg("error occurred in the middleware")
}

// DefaultErrorHook returns the built-in error hook, which logs the error with
// the global zerolog logger.
func DefaultErrorHook() ErrorHook {
	return defaultErrorHook
}

// SetErrorHook replaces the process-wide error hook. Runs that fail after the
// call use fn. A nil fn is reported and the current hook is kept.
func SetErrorHook(fn ErrorHook) {
	if fn == nil {
		log.Error().Str("component", component).Msg("error hook must be a function, not setting")
		return
	}
	errorHook.Store(&fn)
}

// ResetErrorHook restores DefaultErrorHook as the process-wide error hook.
func ResetErrorHook() {
	errorHook.Store(nil)
}

func currentErrorHook() ErrorHook {
	if fn := errorHook.Load(); fn != nil {
		return *fn
	}
	return defaultErrorHook
}
