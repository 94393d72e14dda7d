// Package api provides clients for the chat portal's REST and streaming
// endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/agentchat/agentchat-go/internal/models"
)

// TokenSource supplies the bearer token attached to portal requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("no portal token configured")
	}
	return string(t), nil
}

// ConversationService is the portal's conversation CRUD surface as
// consumed by the session controller and the CLI.
type ConversationService interface {
	CreateConversation(ctx context.Context, title string) (models.Conversation, error)
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	UpdateConversation(ctx context.Context, id string, update ConversationUpdate) (models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	SendMessage(ctx context.Context, conversationID string, role models.Role, content string) (models.Message, error)
}

// ConversationUpdate holds the mutable conversation fields; nil fields
// are left unchanged by the server.
type ConversationUpdate struct {
	Title    *string `json:"title,omitempty"`
	IsPinned *bool   `json:"is_pinned,omitempty"`
}

// Client talks to the portal's REST API. It also implements StreamOpener
// for the SSE chat endpoint (see stream.go).
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// New creates a portal API client. If baseURL is empty, uses the
// AGENTCHAT_PORTAL_URL env var or defaults to localhost:8080. The request
// timeout can be configured via AGENTCHAT_CLIENT_TIMEOUT (default 30s;
// streaming requests are exempt, they run until the body is closed).
func New(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("AGENTCHAT_PORTAL_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("AGENTCHAT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateConversation creates a new conversation on the portal.
func (c *Client) CreateConversation(ctx context.Context, title string) (models.Conversation, error) {
	var conv models.Conversation
	body := map[string]string{"title": title}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/conversations", body, &conv); err != nil {
		return models.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns all conversations visible to the caller.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/v1/conversations", nil, &convs); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// GetConversation retrieves one conversation including its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	var conv models.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/v1/conversations/"+id, nil, &conv); err != nil {
		return models.Conversation{}, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return conv, nil
}

// UpdateConversation patches title and/or pin state.
func (c *Client) UpdateConversation(ctx context.Context, id string, update ConversationUpdate) (models.Conversation, error) {
	var conv models.Conversation
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/conversations/"+id, update, &conv); err != nil {
		return models.Conversation{}, fmt.Errorf("update conversation %s: %w", id, err)
	}
	return conv, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/v1/conversations/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}

// SendMessage persists one message to a conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID string, role models.Role, content string) (models.Message, error) {
	var msg models.Message
	body := map[string]string{"role": string(role), "content": content}
	path := "/v1/conversations/" + conversationID + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &msg); err != nil {
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

// doJSON issues one authenticated JSON request and decodes the response
// into result (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server error: %s - %s", resp.Status, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
