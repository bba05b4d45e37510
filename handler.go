package chatware

// Handler is one step of a chain. It receives the run's Context, which is
// shared by every handler of the same dispatch.
//
// Returning an error (or panicking) fails the run: later handlers are skipped,
// the handler's OnError hook is called if it has one, then the error hook.
//
// Example:
//
//	type authHandler struct {
//	    users UserStore
//	}
//
//	func (h *authHandler) Handle(c *chatware.Context) error {
//	    user, err := h.users.Get(c.Context(), c.ChatID())
//	    if err != nil {
//	        return err
//	    }
//	    if user == nil {
//	        c.Stop()
//	        return nil
//	    }
//	    c.Set("user", user)
//	    return nil
//	}
type Handler interface {
	Handle(c *Context) error
}

// HandlerFunc is a function adapter for Handler:
//
//	chain := chatware.UseFunc(func(c *chatware.Context) error {
//	    c.Logger().Info().Msg("got message")
//	    return nil
//	})
type HandlerFunc func(c *Context) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(c *Context) error {
	return f(c)
}

// OnErrorHook is an optional interface for handlers that want to observe
// their own failures. OnError is called with the handler's error before the
// error hook sees it.
type OnErrorHook interface {
	OnError(err error)
}

// WithOnError attaches a failure hook to h.
//
// Example:
//
//	chain := chatware.Use(chatware.WithOnError(charge, func(err error) {
//	    refunds.Schedule(err)
//	}))
func WithOnError(h Handler, fn func(err error)) Handler {
	return &hookedHandler{handler: h, onError: fn}
}

type hookedHandler struct {
	handler Handler
	onError func(err error)
}

func (h *hookedHandler) Handle(c *Context) error {
	if h.handler == nil {
		return ErrNilHandler
	}
	return h.handler.Handle(c)
}

func (h *hookedHandler) OnError(err error) {
	if h.onError != nil {
		h.onError(err)
	}
}

// Async returns a suspending handler. fn starts the work and returns a
// channel that settles with the result: one error value (nil for success), or
// a close. The chain does not move on until the channel settles, so a
// suspending handler keeps its place in the order like any other.
//
// A nil channel counts as settled. If the dispatch context is cancelled while
// waiting, the handler fails with the context's error.
//
// Example:
//
//	chain := chatware.Use(chatware.Async(func(c *chatware.Context) <-chan error {
//	    done := make(chan error, 1)
//	    go func() {
//	        done <- cache.Warm(c.Context(), c.ChatID())
//	    }()
//	    return done
//	}))
func Async(fn func(c *Context) <-chan error) Handler {
	return asyncHandler(fn)
}

type asyncHandler func(c *Context) <-chan error

func (h asyncHandler) Handle(c *Context) error {
	done := h(c)
	if done == nil {
		return nil
	}
	ctx := c.Context()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// asHandler reports whether v can be appended to a chain, and converts it.
func asHandler(v any) (Handler, bool) {
	switch fn := v.(type) {
	case Handler:
		return fn, true
	case func(*Context) error:
		return HandlerFunc(fn), true
	case func(*Context):
		return HandlerFunc(func(c *Context) error {
			fn(c)
			return nil
		}), true
	}
	return nil, false
}

// initializer is prepended to every run. It fills the Context before any
// chain handler sees it.
type initializer struct {
	event  any
	chatID int64
	args   []any
}

func (h initializer) Handle(c *Context) error {
	c.event = h.event
	c.chatID = h.chatID
	c.args = h.args
	c.stopped = false
	c.logger = c.cfg.log().With().
		Str("run_id", c.runID).
		Int64("chat_id", h.chatID).
		Logger()
	return nil
}
