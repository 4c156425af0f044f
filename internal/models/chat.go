package models

import "fmt"

// Chat message roles as sent by the client.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the dialogue history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PageContext describes the page the user was viewing when they asked,
// so the page's subject institution is always part of the grounding.
type PageContext struct {
	CollegeName string `json:"collegeName,omitempty"`
	PageType    string `json:"pageType,omitempty"`
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Context  *PageContext  `json:"context,omitempty"`
}

// Validate checks the request before any side effect. The error text for a
// missing messages array is part of the endpoint contract.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("Messages array is required")
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != RoleUser {
		return fmt.Errorf("last message must have role %q", RoleUser)
	}
	for _, m := range r.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("invalid message role %q", m.Role)
		}
	}
	return nil
}
