package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Portal websocket chat protocol message types.
const (
	wsStart     = "start"
	wsEvent     = "event"
	wsComplete  = "complete"
	wsError     = "error"
	wsKeepAlive = "ka"
)

// wsMessage is one websocket protocol envelope.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSOpener is a StreamOpener over the portal's websocket chat endpoint.
// It adapts websocket messages into the same line-framed byte stream the
// SSE transport produces, so the decoder, interpreter, store and
// controller stay transport-agnostic.
type WSOpener struct {
	endpoint string
	tokens   TokenSource
}

// NewWSOpener creates a websocket stream opener. The endpoint is the
// portal base URL; http/https schemes are rewritten to ws/wss.
func NewWSOpener(endpoint string, tokens TokenSource) *WSOpener {
	return &WSOpener{endpoint: endpoint, tokens: tokens}
}

// OpenStream implements StreamOpener.
func (w *WSOpener) OpenStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	wsEndpoint := w.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	u = u.JoinPath("/v1/chat/ws")

	header := http.Header{}
	if w.tokens != nil {
		token, err := w.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve token: %w", err)
		}
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	// Track connection state for proper cleanup.
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		closeConn()
		return nil, fmt.Errorf("marshal stream request: %w", err)
	}
	start := wsMessage{ID: uuid.New().String(), Type: wsStart, Payload: payload}
	if err := conn.WriteJSON(start); err != nil {
		closeConn()
		return nil, fmt.Errorf("send start: %w", err)
	}

	pr, pw := io.Pipe()
	done := make(chan struct{})

	// Close the connection when the caller's context is cancelled.
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	go func() {
		defer close(done)
		defer closeConn()
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() != nil {
					pw.CloseWithError(ctx.Err())
				} else {
					pw.CloseWithError(fmt.Errorf("read message: %w", err))
				}
				return
			}

			switch msg.Type {
			case wsEvent:
				// Each event payload becomes one protocol frame.
				if _, err := fmt.Fprintf(pw, "data: %s\n", compactLine(msg.Payload)); err != nil {
					return
				}
			case wsError:
				frame, _ := json.Marshal(map[string]any{"event": "error", "data": msg.Payload})
				fmt.Fprintf(pw, "data: %s\n", frame)
				fmt.Fprint(pw, "data: [DONE]\n")
				pw.Close()
				return
			case wsComplete:
				fmt.Fprint(pw, "data: [DONE]\n")
				pw.Close()
				return
			case wsKeepAlive:
				continue
			default:
				continue
			}
		}
	}()

	return &wsStream{Reader: pr, pr: pr, closeConn: closeConn}, nil
}

// compactLine strips newlines a server might embed in a pretty-printed
// payload; frames are line-delimited.
func compactLine(raw json.RawMessage) []byte {
	var buf strings.Builder
	for _, b := range raw {
		if b != '\n' && b != '\r' {
			buf.WriteByte(b)
		}
	}
	return []byte(buf.String())
}

type wsStream struct {
	io.Reader
	pr        *io.PipeReader
	closeConn func()
}

func (s *wsStream) Close() error {
	s.closeConn()
	return s.pr.Close()
}
