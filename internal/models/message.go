// Package models defines data structures for the agentchat conversation client.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single chat turn.
// For assistant messages Content grows incrementally while a stream is live;
// ThinkingSteps carries the agent's visible reasoning/tool-use timeline.
type Message struct {
	ID            string         `json:"id"`
	Role          Role           `json:"role"`
	Content       string         `json:"content"`
	Timestamp     time.Time      `json:"created_at"`
	ThinkingSteps []ThinkingStep `json:"-"`
}

// NewMessage creates a message with a fresh client-assigned ID.
// The ID is stable for the lifetime of the message; streaming updates
// mutate content in place, never re-key.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewID returns a new opaque identifier for client-created records.
func NewID() string {
	return uuid.New().String()
}
