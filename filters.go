package chatware

// AllowChats returns a handler that stops the run for events from chats not
// listed in ids. With no ids, every chat is allowed.
//
//	chain := chatware.Use(chatware.AllowChats(cfg.AllowFrom...)).Use(echo)
func AllowChats(ids ...int64) Handler {
	allowed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return HandlerFunc(func(c *Context) error {
		if len(allowed) == 0 {
			return nil
		}
		if _, ok := allowed[c.ChatID()]; !ok {
			c.Logger().Debug().Msg("rejected message from chat outside allowlist")
			c.Stop()
		}
		return nil
	})
}
