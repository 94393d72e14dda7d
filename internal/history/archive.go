package history

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/agentchat/agentchat-go/internal/models"
)

// ConversationRecord is the stored form of a conversation.
type ConversationRecord struct {
	ID       surrealmodels.RecordID `json:"id"`
	Title    string                 `json:"title"`
	IsPinned bool                   `json:"is_pinned"`
	Created  time.Time              `json:"created,omitempty"`
	Updated  time.Time              `json:"updated,omitempty"`
}

// MessageRecord is the stored form of a single message.
type MessageRecord struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	Role         string                 `json:"role"`
	Content      string                 `json:"content"`
	Position     int                    `json:"position"`
	Created      time.Time              `json:"created,omitempty"`
}

// SearchHit is a message matched by full-text search.
type SearchHit struct {
	Conversation surrealmodels.RecordID `json:"conversation"`
	Role         string                 `json:"role"`
	Content      string                 `json:"content"`
}

// SaveConversation archives a conversation and its messages. Saving the same
// conversation again replaces the archived copy.
func (c *Client) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	sql := `
		UPSERT type::record("conversation", $id) SET
			title = $title,
			is_pinned = $pinned,
			updated = type::datetime($updated),
			created = IF created THEN created ELSE type::datetime($created) END
		RETURN AFTER
	`
	_, err := surrealdb.Query[[]ConversationRecord](ctx, c.db, sql, map[string]any{
		"id":      conv.ID,
		"title":   conv.Title,
		"pinned":  conv.IsPinned,
		"created": conv.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated": conv.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	// Replace messages wholesale so re-archiving stays idempotent
	_, err = surrealdb.Query[any](ctx, c.db, `
		DELETE message WHERE conversation = type::record("conversation", $id)
	`, map[string]any{"id": conv.ID})
	if err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	for i, msg := range conv.Messages {
		_, err = surrealdb.Query[[]MessageRecord](ctx, c.db, `
			CREATE type::record("message", $id) SET
				conversation = type::record("conversation", $conv),
				role = $role,
				content = $content,
				position = $position,
				created = type::datetime($created)
		`, map[string]any{
			"id":       msg.ID,
			"conv":     conv.ID,
			"role":     string(msg.Role),
			"content":  msg.Content,
			"position": i,
			"created":  msg.Timestamp.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return fmt.Errorf("save message %d: %w", i, err)
		}
	}

	c.logger.Info("archived conversation", "id", conv.ID, "messages", len(conv.Messages))
	return nil
}

// ListConversations returns archived conversations, most recently updated first.
func (c *Client) ListConversations(ctx context.Context, limit int) ([]ConversationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	results, err := surrealdb.Query[[]ConversationRecord](ctx, c.db, `
		SELECT * FROM conversation ORDER BY updated DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []ConversationRecord{}, nil
}

// GetConversation loads an archived conversation with its messages in order.
// Returns nil if not found.
func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	results, err := surrealdb.Query[[]ConversationRecord](ctx, c.db, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	rec := (*results)[0].Result[0]

	msgResults, err := surrealdb.Query[[]MessageRecord](ctx, c.db, `
		SELECT * FROM message
		WHERE conversation = type::record("conversation", $id)
		ORDER BY position ASC
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	conv := &models.Conversation{
		ID:        id,
		Title:     rec.Title,
		IsPinned:  rec.IsPinned,
		CreatedAt: rec.Created,
		UpdatedAt: rec.Updated,
	}
	if msgResults != nil && len(*msgResults) > 0 {
		for _, m := range (*msgResults)[0].Result {
			conv.Messages = append(conv.Messages, models.Message{
				ID:        recordKey(m.ID),
				Role:      models.Role(m.Role),
				Content:   m.Content,
				Timestamp: m.Created,
			})
		}
	}
	return conv, nil
}

// DeleteConversation removes an archived conversation and its messages.
// Returns the number of conversations deleted (0 if none - idempotent).
func (c *Client) DeleteConversation(ctx context.Context, id string) (int, error) {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE message WHERE conversation = type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}

	results, err := surrealdb.Query[[]ConversationRecord](ctx, c.db, `
		DELETE type::record("conversation", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete conversation: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}

// SearchMessages runs a BM25 full-text search over archived message content.
func (c *Client) SearchMessages(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	results, err := surrealdb.Query[[]SearchHit](ctx, c.db, `
		SELECT conversation, role, content FROM message
		WHERE content @0@ $q
		LIMIT $limit
	`, map[string]any{"q": query, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []SearchHit{}, nil
}

func recordKey(id surrealmodels.RecordID) string {
	return fmt.Sprintf("%v", id.ID)
}
