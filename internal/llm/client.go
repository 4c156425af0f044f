// Package llm wraps the streaming chat model behind a small interface so the
// server and tests never touch the SDK directly.
package llm

import "context"

// Turn is one prior exchange turn sent as session history.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// History roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Client streams model responses. StreamChat returns a fragment channel and
// an error channel; exactly one of the two terminates the stream. The
// fragment channel is closed when the response is complete; a value on the
// error channel means the stream ended abnormally (possibly after fragments
// were already delivered).
type Client interface {
	StreamChat(ctx context.Context, history []Turn, message string) (<-chan string, <-chan error)
}
