package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentchat/agentchat-go/internal/models"
	"github.com/agentchat/agentchat-go/internal/session"
	"github.com/agentchat/agentchat-go/internal/store"
)

// Theme holds the color scheme for the chat display.
type Theme struct {
	User    lipgloss.Color
	Agent   lipgloss.Color
	Step    lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:    lipgloss.Color("#5FAFD7"), // light blue
	Agent:   lipgloss.Color("#D7AF5F"), // amber
	Step:    lipgloss.Color("#875FD7"), // violet
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

// Style functions for dynamic theming
func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) agentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Agent).Bold(true)
}

func (t Theme) stepStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Step)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// storeChangedMsg signals that the conversation state changed.
type storeChangedMsg struct{}

// noticeMsg carries a non-fatal warning for the status line.
type noticeMsg string

// sendDoneMsg signals that the blocking send finished.
type sendDoneMsg struct {
	err error
}

// chatModel is the bubbletea model for the interactive chat view.
type chatModel struct {
	store *store.Store
	ctl   *session.Controller

	input    textinput.Model
	spin     spinner.Model
	theme    Theme
	width    int
	busy     bool
	notice   string
	quitting bool
}

// newChatModel creates the interactive chat model.
func newChatModel(st *store.Store, ctl *session.Controller) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message, or /new, /archive, /quit"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		store: st,
		ctl:   ctl,
		input: ti,
		spin:  sp,
		theme: defaultTheme,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return m.input.Focus()
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.busy {
				// First Ctrl+C stops the stream, a second one exits
				m.ctl.Abort()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m.handleInput(text)
		}

	case storeChangedMsg:
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case sendDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleInput dispatches slash commands and regular messages.
func (m chatModel) handleInput(text string) (tea.Model, tea.Cmd) {
	switch text {
	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit

	case "/new":
		m.store.CreateNewConversation()
		m.notice = ""
		return m, nil

	case "/archive":
		return m, func() tea.Msg {
			if err := archiveCurrent(m.store); err != nil {
				return noticeMsg(fmt.Sprintf("archive failed: %v", err))
			}
			return noticeMsg("conversation archived")
		}
	}

	m.busy = true
	m.notice = ""
	return m, tea.Batch(m.sendCmd(text), m.spin.Tick)
}

// sendCmd runs the blocking send in a command goroutine. Store change
// notifications drive redraws while it runs.
func (m chatModel) sendCmd(text string) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		err := ctl.Send(context.Background(), text)
		return sendDoneMsg{err: err}
	}
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "New conversation"
	if conv := m.store.CurrentConversation(); conv != nil {
		title = conv.Title
	}
	b.WriteString(m.theme.hintStyle().Render(title))
	b.WriteString("\n\n")

	for _, msg := range m.store.Messages() {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString(m.theme.userStyle().Render("You"))
		case models.RoleAssistant:
			b.WriteString(m.theme.agentStyle().Render("Agent"))
		default:
			b.WriteString(m.theme.hintStyle().Render(string(msg.Role)))
		}
		b.WriteString("\n")
		if msg.Content != "" {
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if steps := m.store.Steps(); len(steps) > 0 {
		b.WriteString(m.renderSteps(steps))
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(m.spin.View())
		b.WriteString(m.theme.hintStyle().Render(" " + string(m.ctl.State())))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(m.theme.errorStyle().Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render("Enter to send · Ctrl+C to stop/exit"))
	b.WriteString("\n")

	return b.String()
}

// renderSteps draws the grouped thinking-step timeline.
func (m chatModel) renderSteps(steps []models.ThinkingStep) string {
	var b strings.Builder
	for _, group := range models.GroupSteps(steps) {
		if group.Label != "" {
			b.WriteString(m.theme.stepStyle().Render(group.Label))
			b.WriteString("\n")
		}
		for _, step := range group.Steps {
			b.WriteString("  ")
			b.WriteString(m.stepGlyph(step.Status))
			b.WriteString(" ")
			b.WriteString(m.theme.stepStyle().Render(step.Title))
			b.WriteString("\n")
			for _, item := range step.SubItems {
				b.WriteString("      ")
				b.WriteString(m.theme.hintStyle().Render("• " + item.Title))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func (m chatModel) stepGlyph(status models.StepStatus) string {
	switch status {
	case models.StepCompleted:
		return m.theme.successStyle().Render("✓")
	case models.StepFailed:
		return m.theme.errorStyle().Render("✗")
	case models.StepInProgress:
		return m.spin.View()
	default:
		return m.theme.hintStyle().Render("·")
	}
}

// runChatView runs the interactive chat UI until the user exits.
func runChatView(ctx context.Context, st *store.Store, ctl *session.Controller) error {
	model := newChatModel(st, ctl)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	// Store mutations and controller notices redraw the view
	st.SetOnChange(func() {
		p.Send(storeChangedMsg{})
	})
	ctl.SetNotify(func(msg string) {
		p.Send(noticeMsg(msg))
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}

	// A stream may still be live if the user quit mid-reply
	ctl.Abort()
	return nil
}
