package chat

// Turn is one exchange in a conversation.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// History is an append-only record of turns owned by the caller.
type History []Turn

// Append returns h with a new turn added.
func (h History) Append(user, bot string) History {
	return append(h, Turn{User: user, Bot: bot})
}

// Recent returns up to n turns, newest first.
func (h History) Recent(n int) []Turn {
	if n <= 0 || n > len(h) {
		n = len(h)
	}
	out := make([]Turn, 0, n)
	for i := len(h) - 1; i >= len(h)-n; i-- {
		out = append(out, h[i])
	}
	return out
}
