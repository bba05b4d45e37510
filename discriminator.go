package chatware

import "strings"

// Discriminator decides whether a conditional handler applies to an event,
// based on the event's View. Discriminators are cheap to evaluate.
type Discriminator interface {
	Match(v View) bool
}

// When returns a handler that runs h only for events matching d. Events that
// do not match, or cannot be inspected, pass through untouched.
//
// Example:
//
//	chain := chatware.Use(chatware.When(chatware.Command("start"), greet)).
//	    Use(chatware.When(chatware.HasFields("text"), echo))
func When(d Discriminator, h Handler) Handler {
	return &conditional{disc: d, handler: h}
}

type conditional struct {
	disc    Discriminator
	handler Handler
}

func (w *conditional) Handle(c *Context) error {
	view, err := c.View()
	if err != nil || !w.disc.Match(view) {
		return nil
	}
	if w.handler == nil {
		return ErrNilHandler
	}
	return w.handler.Handle(c)
}

// OnError forwards to the wrapped handler's hook.
func (w *conditional) OnError(err error) {
	if h, ok := w.handler.(OnErrorHook); ok {
		h.OnError(err)
	}
}

// DiscriminatorFunc adapts a plain function to Discriminator.
type DiscriminatorFunc func(v View) bool

// Match calls f(v).
func (f DiscriminatorFunc) Match(v View) bool { return f(v) }

// HasFields matches when every path is present and not null.
func HasFields(paths ...string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, p := range paths {
			if !v.HasField(p) {
				return false
			}
		}
		return true
	})
}

// FieldEquals matches when path holds the string value.
func FieldEquals(path, value string) Discriminator {
	return stringField(path, func(s string) bool { return s == value })
}

// FieldPrefix matches when path holds a string starting with prefix.
func FieldPrefix(path, prefix string) Discriminator {
	return stringField(path, func(s string) bool { return strings.HasPrefix(s, prefix) })
}

// Command matches messages whose text is the bot command /name, optionally
// addressed (/name@bot) and followed by arguments.
func Command(name string) Discriminator {
	return stringField("text", func(s string) bool {
		rest, ok := strings.CutPrefix(s, "/"+name)
		return ok && (rest == "" || strings.ContainsRune(" @\n", rune(rest[0])))
	})
}

func stringField(path string, pred func(string) bool) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		s, ok := v.GetString(path)
		return ok && pred(s)
	})
}

// And matches when all of ds match. And() matches everything.
func And(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, d := range ds {
			if !d.Match(v) {
				return false
			}
		}
		return true
	})
}

// Or matches when any of ds matches. Or() matches nothing.
func Or(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, d := range ds {
			if d.Match(v) {
				return true
			}
		}
		return false
	})
}

// Not inverts d.
func Not(d Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool { return !d.Match(v) })
}
