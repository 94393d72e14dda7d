// Package session orchestrates one streaming chat exchange end-to-end:
// it issues the request, owns the cancellation handle, feeds response
// bytes through the frame decoder and event interpreter into the store,
// and performs the terminal reconciliation exactly once regardless of
// how the stream ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agentchat/agentchat-go/internal/api"
	"github.com/agentchat/agentchat-go/internal/models"
	"github.com/agentchat/agentchat-go/internal/store"
	"github.com/agentchat/agentchat-go/internal/stream"
)

// State is the lifecycle of a streaming session. completed, failed and
// aborted are terminal; no events are processed after entering one.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateStreaming  State = "streaming"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateAborted    State = "aborted"
)

// Options configure the outgoing chat request.
type Options struct {
	Model      string
	ProviderID *string
}

// Controller runs streaming sessions against one store. At most one
// session is live at a time: starting a new one first cancels the
// previous one.
type Controller struct {
	svc    api.ConversationService
	opener api.StreamOpener
	store  *store.Store
	logger *slog.Logger
	opts   Options

	// notify surfaces non-fatal problems (persistence failures) to the
	// user without interrupting the session.
	notify func(string)

	mu     sync.Mutex
	cancel context.CancelFunc
	state  State
}

// session is the per-turn bookkeeping: the accumulator holds the full
// assistant content built so far, kept apart from the store's transient
// view so the final save is exact.
type session struct {
	conversationID string
	assistantID    string
	acc            strings.Builder
	finalized      bool
}

// NewController creates a controller bound to a store and its external
// collaborators.
func NewController(svc api.ConversationService, opener api.StreamOpener, st *store.Store, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		svc:    svc,
		opener: opener,
		store:  st,
		logger: logger,
		opts:   opts,
		state:  StateIdle,
	}
}

// SetNotify registers the user-facing notifier for non-fatal failures.
func (c *Controller) SetNotify(fn func(string)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// State returns the most recent session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Abort cancels the in-flight session, if any. Safe to call at any
// point; the session still runs its terminal reconciliation with
// whatever content has accumulated. Cancellation is not data loss.
func (c *Controller) Abort() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Send runs one full user turn and blocks until the session reaches a
// terminal state. Failures before the stream opens are returned as
// errors; failures mid-stream are absorbed, rendered in-line as an
// assistant-message error annotation, and still reconciled.
func (c *Controller) Send(ctx context.Context, content string) error {
	// Only one assistant stream may be live; cancel any previous one.
	c.Abort()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.state = StateRequesting
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel = nil
		}
		c.mu.Unlock()
	}()

	conv := c.store.CurrentConversation()
	if conv == nil {
		created, err := c.svc.CreateConversation(ctx, models.DefaultTitle)
		if err != nil {
			c.setState(StateFailed)
			return fmt.Errorf("create conversation: %w", err)
		}
		c.store.Adopt(created)
		conv = &created
	}

	if _, err := c.svc.SendMessage(ctx, conv.ID, models.RoleUser, content); err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("persist user message: %w", err)
	}
	c.store.AddMessage(models.NewMessage(models.RoleUser, content))

	// Assistant placeholder goes in before the first byte arrives so the
	// UI has a render target immediately.
	assistant := models.NewMessage(models.RoleAssistant, "")
	c.store.AddMessage(assistant)
	c.store.SetStreamingMessage(assistant.ID)

	sess := &session{conversationID: conv.ID, assistantID: assistant.ID}

	body, err := c.opener.OpenStream(ctx, api.StreamRequest{
		Role:           string(models.RoleUser),
		Content:        content,
		Model:          c.opts.Model,
		ProviderID:     c.opts.ProviderID,
		ConversationID: conv.ID,
	})
	if err != nil {
		if ctx.Err() != nil {
			c.finalize(ctx, sess, StateAborted)
			return nil
		}
		c.annotateError(sess, err.Error())
		c.finalize(ctx, sess, StateFailed)
		return nil
	}
	defer body.Close()

	c.setState(StateStreaming)
	c.logger.Debug("stream open", "conversation_id", conv.ID, "message_id", assistant.ID)

	err = c.consume(body, sess)
	switch {
	case err == nil:
		c.finalize(ctx, sess, StateCompleted)
	case ctx.Err() != nil:
		c.finalize(ctx, sess, StateAborted)
	default:
		c.annotateError(sess, err.Error())
		c.finalize(ctx, sess, StateFailed)
	}
	return nil
}

// consume reads body chunks through the decoder/interpreter and applies
// each event to the store. Returns nil on the done sentinel or a clean
// end of stream.
func (c *Controller) consume(body io.Reader, sess *session) error {
	var dec stream.FrameDecoder
	defer dec.Close()

	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			frames, done := dec.Feed(buf[:n])
			for _, frame := range frames {
				c.apply(sess, stream.Interpret(frame))
			}
			if done {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// apply dispatches one normalized event. Events are processed strictly
// in arrival order.
func (c *Controller) apply(sess *session, ev stream.Event) {
	switch ev.Kind {
	case stream.EventMessage:
		sess.acc.WriteString(ev.Text)
		// The store holds full content, never deltas.
		c.store.UpdateMessageTransient(sess.assistantID, sess.acc.String())

	case stream.EventThinking:
		c.store.AddThinkingStep(models.ThinkingStep{
			ID:      ev.Step.ID,
			Title:   ev.Step.Title,
			Status:  stepStatus(ev.Step.Status),
			Content: ev.Step.Content,
			Group:   ev.Step.Group,
		})

	case stream.EventToolCall:
		args := string(ev.Call.Arguments)
		c.store.AddThinkingStep(models.ThinkingStep{
			ID:     toolStepID(ev.Call.ID),
			Title:  ev.Call.Name,
			Status: models.StepInProgress,
			SubItems: []models.StepSubItem{{
				ID:          ev.Call.ID,
				Type:        subItemType(ev.Call.Name),
				Title:       ev.Call.Name,
				Content:     args,
				Previewable: args != "",
			}},
		})

	case stream.EventToolResult:
		status := models.StepCompleted
		content := ev.Result.ResultText()
		if !ev.Result.Success {
			status = models.StepFailed
			content = ev.Result.Error
		}
		c.store.UpdateThinkingStep(toolStepID(ev.Result.ID), store.StepPatch{
			Status:  &status,
			Content: &content,
		})

	case stream.EventError:
		// An in-stream error is annotated and the stream continues; only
		// the done sentinel or a transport failure terminates it.
		c.annotateError(sess, ev.Text)
	}
}

func (c *Controller) annotateError(sess *session, msg string) {
	if sess.acc.Len() > 0 {
		sess.acc.WriteString("\n\n")
	}
	sess.acc.WriteString("[Error: " + msg + "]")
	c.store.UpdateMessageTransient(sess.assistantID, sess.acc.String())
}

// finalize performs terminal reconciliation exactly once: sync the
// assistant message into the conversation record, then persist the final
// accumulated content remotely. Thinking steps still in progress are
// deliberately left untouched; their true outcome is unknown.
func (c *Controller) finalize(ctx context.Context, sess *session, final State) {
	if sess.finalized {
		return
	}
	sess.finalized = true

	c.setState(final)
	c.store.SetStreamingMessage("")

	content := sess.acc.String()
	if content == "" && final == StateAborted {
		// Nothing accumulated: the placeholder stays view-only rather
		// than persisting an empty assistant message.
		return
	}

	if err := c.store.SyncMessageToConversation(sess.assistantID); err != nil {
		c.logger.Warn("sync assistant message", "error", err)
	}

	// The session context may already be cancelled (abort); the save
	// still has to happen so a reload sees the partial turn.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := c.svc.SendMessage(pctx, sess.conversationID, models.RoleAssistant, content); err != nil {
		c.logger.Warn("persist assistant message", "conversation_id", sess.conversationID, "error", err)
		c.notifyUser(fmt.Sprintf("reply not saved to server: %v", err))
	}
	c.logger.Debug("session finalized", "state", string(final), "content_len", len(content))
}

func (c *Controller) notifyUser(msg string) {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// toolStepID derives the timeline entry ID shared by a tool_call and its
// tool_result, collapsing the pair into one step.
func toolStepID(toolID string) string {
	return "tool-" + toolID
}

func stepStatus(wire string) models.StepStatus {
	switch wire {
	case "pending":
		return models.StepPending
	case "completed":
		return models.StepCompleted
	case "failed":
		return models.StepFailed
	case "in-progress", "in_progress", "":
		return models.StepInProgress
	default:
		return models.StepInProgress
	}
}

func subItemType(toolName string) models.SubItemType {
	name := strings.ToLower(toolName)
	switch {
	case strings.Contains(name, "search"), strings.Contains(name, "lookup"):
		return models.SubItemSearchResult
	case strings.Contains(name, "write"), strings.Contains(name, "file"):
		return models.SubItemFileWrite
	case strings.Contains(name, "exec"), strings.Contains(name, "code"), strings.Contains(name, "run"):
		return models.SubItemCodeExecution
	default:
		return models.SubItemAPICall
	}
}
