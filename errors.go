package chatware

import (
	"fmt"

	"github.com/pkg/errors"
)

// Validation errors. Dispatch reports these through the OnReject hooks and
// returns nil; they never reach the caller as failures.
var (
	// ErrNoArguments is reported when Dispatch is called without an event.
	ErrNoArguments = errors.New("no arguments passed to dispatch")

	// ErrNoChat is reported when the event has no chat reference.
	ErrNoChat = errors.New("chat not defined in event")

	// ErrNoChatID is reported when the event's chat carries no id.
	ErrNoChatID = errors.New("no visible chat id in event chat")

	// ErrUnsupportedEvent is reported when the event cannot be inspected.
	ErrUnsupportedEvent = errors.New("unsupported event")
)

// ErrNilHandler is returned when a chain executes a nil handler.
var ErrNilHandler = errors.New("nil handler")

// HandlerError is returned by Dispatch when a handler fails. The same value
// is passed to the error hook before Dispatch returns it.
type HandlerError struct {
	// Index is the handler's position in the chain, starting at 0.
	Index int

	// ChatID is the chat id of the event being dispatched.
	ChatID int64

	// RunID identifies the dispatch run (see Context.RunID).
	RunID string

	// Err is the error returned (or panic recovered) from the handler.
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d failed for chat %d: %v", e.Index, e.ChatID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// panicError converts a recovered panic value into an error with a stack.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "handler panicked")
	}
	return errors.Errorf("handler panicked: %v", r)
}
