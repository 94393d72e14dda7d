// Package store holds the in-memory state of the active conversation:
// the ordered message list rendered by the UI, the per-turn thinking-step
// timeline, and the set of known conversations.
//
// The store exposes two write paths with different cost: transient updates
// mutate only the rendered view and are cheap enough to call per network
// chunk, while sync copies view content into the durable conversation
// record. A stream must sync at least once when it ends.
package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentchat/agentchat-go/internal/models"
)

// Store is the single source of truth for visible conversation state.
// It is constructor-injected into the session controller; there is no
// package-level instance.
type Store struct {
	mu            sync.Mutex
	logger        *slog.Logger
	conversations []*models.Conversation
	currentID     string
	view          []models.Message
	steps         []models.ThinkingStep
	streamingID   string
	onChange      func()
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// SetOnChange registers a callback invoked after every mutation, outside
// the store lock. Used by the terminal UI to re-render.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// AddMessage appends a message to the view and to the current
// conversation's persisted list, lazily creating a conversation if none
// is current. A user message clears the thinking-step timeline (a new
// turn invalidates the previous turn's visible reasoning) and, on the
// conversation's first user message, derives the title from the message
// content while the title is still at its placeholder default.
func (s *Store) AddMessage(msg models.Message) {
	s.mu.Lock()
	conv := s.currentLocked()
	if conv == nil {
		c := models.NewConversation()
		s.conversations = append(s.conversations, &c)
		s.currentID = c.ID
		conv = &c
		s.logger.Debug("created conversation lazily", "conversation_id", c.ID)
	}

	s.view = append(s.view, msg)
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()

	if msg.Role == models.RoleUser {
		s.steps = nil
		if conv.Title == models.DefaultTitle && msg.Content != "" {
			conv.Title = models.DeriveTitle(msg.Content)
		}
	}
	s.mu.Unlock()
	s.notify()
}

// UpdateMessageTransient replaces one message's content in the view list
// only. The persisted conversation record is untouched; callers must
// eventually SyncMessageToConversation to make the content durable.
func (s *Store) UpdateMessageTransient(id, content string) {
	s.mu.Lock()
	for i := range s.view {
		if s.view[i].ID == id {
			s.view[i].Content = content
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// SyncMessageToConversation copies the current view content for the given
// message into the persisted conversation list and bumps UpdatedAt. This
// is the only point at which streamed content becomes part of the durable
// conversation record.
func (s *Store) SyncMessageToConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.currentLocked()
	if conv == nil {
		return fmt.Errorf("sync message %s: no current conversation", id)
	}

	var content string
	found := false
	for i := range s.view {
		if s.view[i].ID == id {
			content = s.view[i].Content
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("sync message %s: not in view", id)
	}

	for i := range conv.Messages {
		if conv.Messages[i].ID == id {
			conv.Messages[i].Content = content
			conv.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("sync message %s: not in conversation %s", id, conv.ID)
}

// AddThinkingStep upserts a step by ID: appends when the ID is unseen,
// replaces the existing entry in place (preserving list position) when it
// is not.
func (s *Store) AddThinkingStep(step models.ThinkingStep) {
	s.mu.Lock()
	replaced := false
	for i := range s.steps {
		if s.steps[i].ID == step.ID {
			s.steps[i] = step
			replaced = true
			break
		}
	}
	if !replaced {
		s.steps = append(s.steps, step)
	}
	s.mu.Unlock()
	s.notify()
}

// StepPatch holds the partial fields of a thinking-step update. Nil
// fields are left unchanged.
type StepPatch struct {
	Title    *string
	Status   *models.StepStatus
	Content  *string
	Group    *string
	SubItems []models.StepSubItem
}

// UpdateThinkingStep applies a partial update to the step with the given
// ID. Unknown IDs are ignored. A status already in a terminal state is
// never transitioned out of it.
func (s *Store) UpdateThinkingStep(id string, patch StepPatch) {
	s.mu.Lock()
	for i := range s.steps {
		if s.steps[i].ID != id {
			continue
		}
		if patch.Title != nil {
			s.steps[i].Title = *patch.Title
		}
		if patch.Status != nil && !s.steps[i].Status.Terminal() {
			s.steps[i].Status = *patch.Status
		}
		if patch.Content != nil {
			s.steps[i].Content = *patch.Content
		}
		if patch.Group != nil {
			s.steps[i].Group = *patch.Group
		}
		if patch.SubItems != nil {
			s.steps[i].SubItems = patch.SubItems
		}
		break
	}
	s.mu.Unlock()
	s.notify()
}

// Adopt registers a conversation (typically created server-side), makes
// it current, loads its messages into the view, and clears the step
// timeline.
func (s *Store) Adopt(conv models.Conversation) {
	s.mu.Lock()
	existing := s.findLocked(conv.ID)
	if existing == nil {
		c := conv
		s.conversations = append(s.conversations, &c)
		existing = &c
	} else {
		*existing = conv
	}
	s.currentID = conv.ID
	s.view = append([]models.Message(nil), existing.Messages...)
	s.steps = nil
	s.mu.Unlock()
	s.notify()
}

// SwitchConversation makes the given conversation current, loading its
// persisted messages into the view. Thinking steps are ephemeral per live
// turn and never survive a switch.
func (s *Store) SwitchConversation(id string) error {
	s.mu.Lock()
	conv := s.findLocked(id)
	if conv == nil {
		s.mu.Unlock()
		return fmt.Errorf("switch conversation: unknown id %s", id)
	}
	s.currentID = id
	s.view = append([]models.Message(nil), conv.Messages...)
	s.steps = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

// CreateNewConversation starts a fresh local conversation with the
// placeholder title and makes it current.
func (s *Store) CreateNewConversation() models.Conversation {
	c := models.NewConversation()
	s.mu.Lock()
	s.conversations = append(s.conversations, &c)
	s.currentID = c.ID
	s.view = nil
	s.steps = nil
	s.mu.Unlock()
	s.notify()
	return c
}

// ResetToHome clears the current conversation selection (home / empty
// state).
func (s *Store) ResetToHome() {
	s.mu.Lock()
	s.currentID = ""
	s.view = nil
	s.steps = nil
	s.streamingID = ""
	s.mu.Unlock()
	s.notify()
}

// DeleteConversation removes a conversation. Deleting the current one
// resets to the home state.
func (s *Store) DeleteConversation(id string) {
	s.mu.Lock()
	for i, c := range s.conversations {
		if c.ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			break
		}
	}
	if s.currentID == id {
		s.currentID = ""
		s.view = nil
		s.steps = nil
		s.streamingID = ""
	}
	s.mu.Unlock()
	s.notify()
}

// SetStreamingMessage records which assistant message a live stream is
// rendering into; empty clears it.
func (s *Store) SetStreamingMessage(id string) {
	s.mu.Lock()
	s.streamingID = id
	s.mu.Unlock()
	s.notify()
}

// StreamingMessage returns the ID of the message currently being
// streamed, or "".
func (s *Store) StreamingMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingID
}

// Messages returns a copy of the view message list.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.view...)
}

// Steps returns a copy of the thinking-step timeline.
func (s *Store) Steps() []models.ThinkingStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ThinkingStep(nil), s.steps...)
}

// CurrentConversation returns a copy of the current conversation, or nil
// in the home state.
func (s *Store) CurrentConversation() *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.currentLocked()
	if conv == nil {
		return nil
	}
	c := *conv
	c.Messages = append([]models.Message(nil), conv.Messages...)
	return &c
}

// Conversations returns copies of all known conversations in order.
func (s *Store) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	return out
}

func (s *Store) currentLocked() *models.Conversation {
	if s.currentID == "" {
		return nil
	}
	return s.findLocked(s.currentID)
}

func (s *Store) findLocked(id string) *models.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}
