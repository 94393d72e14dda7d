package models

import "time"

// DefaultTitle is the placeholder assigned to a conversation before a
// title has been derived from its first user message.
const DefaultTitle = "New Conversation"

// titleMaxRunes caps auto-derived conversation titles.
const titleMaxRunes = 50

// Conversation represents a persisted chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsPinned  bool      `json:"is_pinned"`
}

// NewConversation creates an empty conversation with the placeholder title.
func NewConversation() Conversation {
	now := time.Now()
	return Conversation{
		ID:        NewID(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DeriveTitle builds a conversation title from the first user message:
// the first 50 characters of the content, with an ellipsis when truncated.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}
