package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatTurn is one message in a conversation history.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatMessage is a persisted executive-chat message.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Role      ChatRole  `json:"role"`
	AgentID   *string   `json:"agent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the request body for POST /v1/chat/ceo.
type ChatRequest struct {
	Message string `json:"message"`
	AgentID string `json:"agent_id,omitempty"`
}

// Validate checks the chat message is present and bounded.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if len(r.Message) > 8*1024 {
		return fmt.Errorf("message must be at most 8192 bytes")
	}
	if r.AgentID != "" {
		if err := ValidateAgentID(r.AgentID); err != nil {
			return fmt.Errorf("agent_id: %w", err)
		}
	}
	return nil
}

// ChatResponse is the assistant reply plus the persisted message pair.
type ChatResponse struct {
	Reply   string `json:"reply"`
	AgentID string `json:"agent_id"`
}
