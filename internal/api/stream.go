package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StreamRequest is the outgoing chat request, issued once per user turn.
type StreamRequest struct {
	Role           string  `json:"role"`
	Content        string  `json:"content"`
	Model          string  `json:"model"`
	ProviderID     *string `json:"provider_id"`
	ConversationID string  `json:"conversation_id"`
}

// StreamOpener opens one streaming chat exchange and returns the raw
// response body. Cancellation flows through the context; closing the
// returned reader releases the connection.
type StreamOpener interface {
	OpenStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error)
}

// OpenStream implements StreamOpener over the portal's SSE endpoint. The
// returned body is the chunked event stream consumed by stream.FrameDecoder.
func (c *Client) OpenStream(ctx context.Context, streamReq StreamRequest) (io.ReadCloser, error) {
	buf, err := json.Marshal(streamReq)
	if err != nil {
		return nil, fmt.Errorf("marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/stream", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	// The shared client's timeout would kill long streams; use a
	// dedicated client with no overall deadline.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("stream rejected: %s - %s", resp.Status, string(body))
	}
	return resp.Body, nil
}
