package chatware

import (
	"context"
)

// Chain is an ordered, immutable sequence of handlers. Use returns a new
// Chain and never changes the receiver, so a chain can be extended in several
// directions from a common prefix:
//
//	base := chatware.Use(auth)
//	admin := base.Use(adminOnly).Use(ban)
//	user := base.Use(echo)
//
// Running admin never runs echo, and running base runs only auth.
//
// Chain is safe for concurrent use. Each Dispatch gets its own Context.
type Chain struct {
	handlers []Handler
	cfg      *config
}

// root is the empty chain behind the package-level Use.
var root = New()

// New creates an empty chain with the given options. Every chain derived from
// it with Use shares the options.
//
// Example:
//
//	chain := chatware.New(
//	    chatware.WithLogger(logger),
//	    chatware.WithOnReject(func(ctx context.Context, event any, err error) {
//	        metrics.Incr("bot.rejected")
//	    }),
//	).Use(auth).Use(echo)
func New(opts ...Option) Chain {
	return Chain{cfg: newConfig(opts...)}
}

// Use returns a chain running h on an otherwise empty chain with default
// options.
func Use(h Handler) Chain {
	return root.Use(h)
}

// UseFunc is Use for a handler function.
func UseFunc(fn HandlerFunc) Chain {
	return root.Use(fn)
}

// Use returns a new chain with h appended. The receiver, and every chain and
// dispatch derived from it earlier, are unaffected.
//
// Use accepts any handler, including nil; a nil handler fails when it runs.
func (c Chain) Use(h Handler) Chain {
	handlers := make([]Handler, len(c.handlers), len(c.handlers)+1)
	copy(handlers, c.handlers)
	handlers = append(handlers, h)
	return Chain{handlers: handlers, cfg: c.cfg}
}

// UseFunc is Use for a handler function.
func (c Chain) UseFunc(fn HandlerFunc) Chain {
	return c.Use(fn)
}

// Len returns the number of handlers in the chain.
func (c Chain) Len() int {
	return len(c.handlers)
}

// Dispatch runs the chain against an event. args[0] is the event; every
// argument, the event included, is available to handlers through
// Context.Args.
//
// The processing flow:
//  1. Reject the call if there is no event or the event has no chat id
//  2. Create a fresh Context and initialize it from the event
//  3. Run the handlers in order, each after the previous one settled
//  4. Before each handler, end the run successfully if Stop was called
//  5. On the first failure, call the handler's OnError hook, then the error
//     hook, and return the error
//
// A rejected call is reported through the OnReject hooks (by default, a log
// entry) and Dispatch returns nil. A failed run returns a *HandlerError.
//
// Example:
//
//	for update := range updates {
//	    if update.Message != nil {
//	        _ = chain.Dispatch(ctx, update.Message, bot)
//	    }
//	}
func (c Chain) Dispatch(ctx context.Context, args ...any) error {
	cfg := c.config()

	if len(args) == 0 {
		cfg.reject(ctx, nil, ErrNoArguments)
		return nil
	}

	event := args[0]
	chatID, err := chatIDOf(cfg.inspector, event)
	if err != nil {
		cfg.reject(ctx, event, err)
		return nil
	}

	cx := newContext(ctx, cfg)

	// The stored chain is never modified; the initializer is only part of
	// this run.
	run := make([]Handler, 0, len(c.handlers)+1)
	run = append(run, initializer{event: event, chatID: chatID, args: args})
	run = append(run, c.handlers...)

	for i, h := range run {
		if cx.stopped {
			return nil
		}
		if err := step(cx, h); err != nil {
			herr := &HandlerError{Index: i - 1, ChatID: chatID, RunID: cx.runID, Err: err}
			cfg.hook()(herr)
			return herr
		}
	}
	return nil
}

// Call is the alternate composition syntax. Called with a single handler (a
// Handler, a func(*Context) error, or a func(*Context)), it returns the chain
// with that handler appended, like Use, and runs nothing. Otherwise it
// dispatches args and returns the receiver.
//
//	chain, _ := chatware.Use(a).Call(ctx, b)
//	chain, _ = chain.Call(ctx, func(c *chatware.Context) { c.Stop() })
//	_, err := chain.Call(ctx, msg)
func (c Chain) Call(ctx context.Context, args ...any) (Chain, error) {
	if len(args) == 1 {
		if h, ok := asHandler(args[0]); ok {
			return c.Use(h), nil
		}
	}
	return c, c.Dispatch(ctx, args...)
}

// Handle runs the chain's handlers within an outer run, sharing its Context.
// This lets a chain be mounted in another chain with Use. Stop ends the outer
// run too.
//
// A failure is returned as a *HandlerError indexed within this chain, so the
// error Dispatch returns for a mounted chain nests one HandlerError per level:
// the outer Index points at the mount, the inner one at the failing handler.
func (c Chain) Handle(cx *Context) error {
	for i, h := range c.handlers {
		if cx.stopped {
			return nil
		}
		if err := step(cx, h); err != nil {
			return &HandlerError{Index: i, ChatID: cx.chatID, RunID: cx.runID, Err: err}
		}
	}
	return nil
}

func (c Chain) config() *config {
	if c.cfg == nil {
		return root.cfg
	}
	return c.cfg
}

// step runs a single handler and notifies its own hook on failure.
func step(cx *Context, h Handler) error {
	err := invoke(cx, h)
	if err != nil {
		if hook, ok := h.(OnErrorHook); ok {
			hook.OnError(err)
		}
	}
	return err
}

// invoke runs h, converting a panic into an error.
func invoke(cx *Context, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	if h == nil {
		return ErrNilHandler
	}
	return h.Handle(cx)
}
