package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentchat/agentchat-go/internal/models"
)

func TestAddMessageCreatesConversationLazily(t *testing.T) {
	s := New(nil)
	require.Nil(t, s.CurrentConversation())

	s.AddMessage(models.NewMessage(models.RoleUser, "what is the meaning of life?"))

	conv := s.CurrentConversation()
	require.NotNil(t, conv)
	assert.Len(t, conv.Messages, 1)
	assert.Len(t, s.Messages(), 1)
}

func TestTitleDerivedFromFirstUserMessageOnly(t *testing.T) {
	s := New(nil)
	long := "this is a fairly long first question that goes on well past fifty characters"

	s.AddMessage(models.NewMessage(models.RoleUser, long))
	conv := s.CurrentConversation()
	require.NotNil(t, conv)
	assert.Equal(t, models.DeriveTitle(long), conv.Title)
	assert.Len(t, []rune(conv.Title), 53) // 50 + ellipsis

	// A second user message never overwrites the derived title.
	s.AddMessage(models.NewMessage(models.RoleUser, "something completely different"))
	assert.Equal(t, models.DeriveTitle(long), s.CurrentConversation().Title)
}

func TestUserRenamedTitleNeverDerivedOver(t *testing.T) {
	s := New(nil)
	conv := s.CreateNewConversation()
	_ = conv

	// Simulate a rename away from the placeholder before the first message.
	s.mu.Lock()
	s.conversations[0].Title = "My research thread"
	s.mu.Unlock()

	s.AddMessage(models.NewMessage(models.RoleUser, "hello there"))
	assert.Equal(t, "My research thread", s.CurrentConversation().Title)
}

func TestUserMessageClearsThinkingSteps(t *testing.T) {
	s := New(nil)
	s.AddMessage(models.NewMessage(models.RoleUser, "first"))
	s.AddThinkingStep(models.ThinkingStep{ID: "s1", Status: models.StepCompleted})
	require.Len(t, s.Steps(), 1)

	s.AddMessage(models.NewMessage(models.RoleUser, "second"))
	assert.Empty(t, s.Steps())
}

func TestTransientUpdateDoesNotTouchPersisted(t *testing.T) {
	s := New(nil)
	msg := models.NewMessage(models.RoleAssistant, "")
	s.AddMessage(msg)

	for _, content := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		s.UpdateMessageTransient(msg.ID, content)
	}

	assert.Equal(t, "Hello", s.Messages()[0].Content)
	assert.Equal(t, "", s.CurrentConversation().Messages[0].Content,
		"persisted content must be unchanged before sync")
}

func TestSyncReconcilesViewIntoConversation(t *testing.T) {
	s := New(nil)
	msg := models.NewMessage(models.RoleAssistant, "")
	s.AddMessage(msg)
	before := s.CurrentConversation().UpdatedAt

	s.UpdateMessageTransient(msg.ID, "final content")
	require.NoError(t, s.SyncMessageToConversation(msg.ID))

	conv := s.CurrentConversation()
	assert.Equal(t, "final content", conv.Messages[0].Content)
	assert.False(t, conv.UpdatedAt.Before(before))
}

func TestSyncUnknownMessage(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.SyncMessageToConversation("nope"))

	s.AddMessage(models.NewMessage(models.RoleUser, "hi"))
	assert.Error(t, s.SyncMessageToConversation("still-nope"))
}

func TestThinkingStepUpsertIdempotentByID(t *testing.T) {
	s := New(nil)
	s.AddThinkingStep(models.ThinkingStep{ID: "a", Title: "first", Status: models.StepInProgress})
	s.AddThinkingStep(models.ThinkingStep{ID: "b", Title: "second", Status: models.StepPending})

	// Same ID again: replaced in place, original position kept.
	s.AddThinkingStep(models.ThinkingStep{ID: "a", Title: "first, updated", Status: models.StepCompleted, Content: "done"})

	steps := s.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].ID)
	assert.Equal(t, "first, updated", steps[0].Title)
	assert.Equal(t, models.StepCompleted, steps[0].Status)
	assert.Equal(t, "b", steps[1].ID)
}

func TestUpdateThinkingStepPartial(t *testing.T) {
	s := New(nil)
	s.AddThinkingStep(models.ThinkingStep{ID: "a", Title: "lookup", Status: models.StepInProgress})

	status := models.StepCompleted
	content := "result: 42"
	s.UpdateThinkingStep("a", StepPatch{Status: &status, Content: &content})

	steps := s.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepCompleted, steps[0].Status)
	assert.Equal(t, "result: 42", steps[0].Content)
	assert.Equal(t, "lookup", steps[0].Title, "unset fields stay untouched")
}

func TestUpdateThinkingStepTerminalStatusSticks(t *testing.T) {
	s := New(nil)
	s.AddThinkingStep(models.ThinkingStep{ID: "a", Status: models.StepFailed})

	status := models.StepInProgress
	s.UpdateThinkingStep("a", StepPatch{Status: &status})
	assert.Equal(t, models.StepFailed, s.Steps()[0].Status,
		"no transition out of a terminal status")
}

func TestSwitchConversationLoadsMessagesAndClearsSteps(t *testing.T) {
	s := New(nil)
	s.AddMessage(models.NewMessage(models.RoleUser, "thread one"))
	first := s.CurrentConversation().ID
	s.AddThinkingStep(models.ThinkingStep{ID: "s1"})

	second := s.CreateNewConversation()
	s.AddMessage(models.NewMessage(models.RoleUser, "thread two"))
	require.Len(t, s.Messages(), 1)

	require.NoError(t, s.SwitchConversation(first))
	assert.Equal(t, "thread one", s.Messages()[0].Content)
	assert.Empty(t, s.Steps(), "steps are ephemeral per live turn")

	require.NoError(t, s.SwitchConversation(second.ID))
	assert.Equal(t, "thread two", s.Messages()[0].Content)

	assert.Error(t, s.SwitchConversation("missing"))
}

func TestDeleteConversation(t *testing.T) {
	s := New(nil)
	s.AddMessage(models.NewMessage(models.RoleUser, "hi"))
	id := s.CurrentConversation().ID

	s.DeleteConversation(id)
	assert.Nil(t, s.CurrentConversation())
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.Conversations())
}

func TestResetToHome(t *testing.T) {
	s := New(nil)
	s.AddMessage(models.NewMessage(models.RoleUser, "hi"))
	s.SetStreamingMessage("m1")

	s.ResetToHome()
	assert.Nil(t, s.CurrentConversation())
	assert.Empty(t, s.Messages())
	assert.Equal(t, "", s.StreamingMessage())
	assert.Len(t, s.Conversations(), 1, "conversation list survives going home")
}

func TestOnChangeFires(t *testing.T) {
	s := New(nil)
	count := 0
	s.SetOnChange(func() { count++ })

	s.AddMessage(models.NewMessage(models.RoleUser, "hi"))
	s.UpdateMessageTransient("x", "ignored")
	assert.GreaterOrEqual(t, count, 2)
}
