package chat

// SessionView is returned by the session debug endpoint.
type SessionView struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}
