// Package chatware composes middleware chains for chat bots.
//
// A chain is an ordered list of handlers. Dispatching an event runs the
// handlers one after another against a fresh Context, until one stops the
// chain, fails, or the list ends. The package is transport-agnostic; the
// telegram subpackage feeds it from the Telegram Bot API.
//
// # Quick Start
//
// Build a chain with Use and dispatch events to it:
//
//	chain := chatware.Use(chatware.AllowChats(admins...)).
//	    UseFunc(func(c *chatware.Context) error {
//	        c.Set("started", time.Now())
//	        return nil
//	    }).
//	    Use(chatware.When(chatware.HasFields("text"), echo))
//
//	// For every incoming message
//	err := chain.Dispatch(ctx, update.Message, bot)
//
// # Design Philosophy
//
// The package separates concerns into three pieces:
//
//   - Chain: an immutable list of handlers, extended with Use
//   - Dispatch: validates the event and runs one chain against it
//   - Context: the per-run state every handler of that run shares
//
// This separation allows:
//   - Sharing a common prefix (auth, logging) between many chains
//   - Concurrent dispatches without any locking in handlers
//   - Testing handlers by dispatching plain JSON events
//
// # Immutability
//
// Use copies the handler list before appending, so chains derived from a
// common prefix never see each other's handlers:
//
//	base := chatware.Use(logRequest)
//	a := base.Use(handleA)
//	b := base.Use(handleB)
//
// Dispatching a runs logRequest, handleA. Dispatching b runs logRequest,
// handleB. Dispatching base runs logRequest only.
//
// Chain.Call offers an alternate syntax: called with a single handler it
// appends instead of dispatching.
//
// # Events
//
// The first argument to Dispatch is the event. It must identify a chat:
//
//   - *tgbotapi.Message, *tgbotapi.Update (and their values): read directly
//   - ChatIdentifier: asked for its ChatID
//   - anything else: encoded to JSON and read through the Inspector, which
//     must find a "chat" object with an integer "id" (Go structs need
//     json tags matching those names)
//
// Calls without an event, and events without a chat id, are rejected: the
// OnReject hooks are called (by default a warning is logged) and Dispatch
// returns nil without running any handler.
//
// Extra arguments are forwarded verbatim and available through Context.Args.
//
// # Context
//
// Every Dispatch creates a new Context. A built-in initializer fills it
// before the chain's first handler:
//
//   - Event and Args: what Dispatch was called with
//   - ChatID: the chat id read from the event
//   - Stop and Stopped: early termination
//   - RunID and Logger: a run id and a zerolog logger carrying it
//
// Handlers pass data to later handlers with Set and Get (or Value for typed
// access). Nothing is shared between runs.
//
// # Suspending Handlers
//
// Handlers are called in order, and each one settles before the next starts.
// A handler that hands work to another goroutine uses Async and returns a
// channel; the run waits for it like for any other handler:
//
//	chatware.Async(func(c *chatware.Context) <-chan error {
//	    done := make(chan error, 1)
//	    go func() { done <- warm(c.Context()) }()
//	    return done
//	})
//
// # Conditional Handlers
//
// When runs a handler only for events matching a Discriminator. The
// discriminators read the event through its View:
//   - HasFields: Check for field presence
//   - FieldEquals: Check field value
//   - FieldPrefix: Check a string field's prefix
//   - Command: Match a bot command such as /start
//   - And, Or, Not: Combine discriminators
//
// # Error Handling
//
// A handler fails by returning an error or panicking. The run then ends:
//
//  1. If the handler implements OnErrorHook (see WithOnError), OnError is
//     called with the error
//  2. The error hook is called with a *HandlerError
//  3. Dispatch returns the *HandlerError
//
// The error hook is process-wide: SetErrorHook replaces it, ResetErrorHook
// restores DefaultErrorHook, which logs the error. WithErrorHook sets a hook
// for one chain instead.
//
// A mounted chain that fails returns its own *HandlerError, so the error
// from Dispatch nests one per level and errors.As on HandlerError.Err finds
// the failing handler inside the mounted chain.
//
// There are no retries; the next event starts a new, independent run.
//
// # Thread Safety
//
// Chain values are immutable and safe for concurrent use. SetErrorHook may be
// called at any time and affects runs that fail afterwards.
package chatware
