package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatStreamRequest is the payload sent to the streaming chat endpoint.
type ChatStreamRequest struct {
	Messages  []ChatMessage `json:"messages"`
	Language  string        `json:"language"`
	SessionID string        `json:"sessionId"`
}

// ChatErrorResponse is the JSON body returned when no stream was opened.
type ChatErrorResponse struct {
	Error string `json:"error"`
}

// Conversation identifies one chat session. Rows are created on the first
// message of a session and never mutated afterwards.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one persisted turn in a conversation, ordered by created_at.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatHistoryResponse is returned by the history endpoint so the widget can
// restore a transcript after a reload.
type ChatHistoryResponse struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}
