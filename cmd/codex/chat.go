// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"opencodex/cmd/codex/ui"
	"opencodex/internal/agent"
	"opencodex/internal/config"
	"opencodex/internal/session"
)

// approvalChoices are the picker options shown for a pending approval.
var approvalChoices = []string{"Approve", "Approve for session", "Deny"}

// chatModel is the bubbletea model for the interactive chat interface.
type chatModel struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	// State
	history   []chatMessage
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	// Pending approval picker
	pendingApproval *agent.ApprovalRequest
	selectedChoice  int

	// Session state
	cfg       *config.Config
	cwd       string
	sessionID string
	turnCount int

	// Backend
	agent  *agent.Agent
	store  *session.Store
	events <-chan agent.Event
	ctx    context.Context
	cancel context.CancelFunc

	// initialPrompt is sent as the first turn when set.
	initialPrompt string
}

type chatMessage struct {
	role    string // "user", "assistant" or "system"
	content string
	time    time.Time
}

// Messages for tea updates
type (
	agentEventMsg   agent.Event
	runFinishedMsg  struct{}
	instructionsMsg string
)

func newChatModel(cfg *config.Config, a *agent.Agent, store *session.Store, cwd, initialPrompt string) chatModel {
	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Describe a task... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 8192
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(80),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return chatModel{
		textinput:     ti,
		viewport:      vp,
		spinner:       sp,
		styles:        styles,
		renderer:      renderer,
		cfg:           cfg,
		cwd:           cwd,
		agent:         a,
		store:         store,
		ctx:           ctx,
		cancel:        cancel,
		initialPrompt: initialPrompt,
	}
}

func (m chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.initialPrompt != "" {
		cmds = append(cmds, func() tea.Msg {
			return tea.KeyMsg{Type: tea.KeyEnter}
		})
	}
	return tea.Batch(cmds...)
}

// waitForEvent reads the next agent event off the run channel.
func waitForEvent(events <-chan agent.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return runFinishedMsg{}
		}
		return agentEventMsg(ev)
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancel()
			return m, tea.Quit

		case tea.KeyEnter:
			if m.pendingApproval != nil {
				return m.handleApprovalChoice()
			}
			if !m.isLoading {
				return m.handleSubmit()
			}

		case tea.KeyUp:
			if m.pendingApproval != nil {
				if m.selectedChoice > 0 {
					m.selectedChoice--
				}
				m.refreshApprovalPrompt()
				return m, nil
			}

		case tea.KeyDown:
			if m.pendingApproval != nil {
				if m.selectedChoice < len(approvalChoices)-1 {
					m.selectedChoice++
				}
				m.refreshApprovalPrompt()
				return m, nil
			}

		case tea.KeyTab:
			if m.pendingApproval != nil {
				m.selectedChoice = (m.selectedChoice + 1) % len(approvalChoices)
				m.refreshApprovalPrompt()
				return m, nil
			}
		}

		if !m.isLoading && m.pendingApproval == nil {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		inputHeight := 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}
		m.textinput.Width = msg.Width - 4

		if m.renderer != nil {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(msg.Width-8),
			)
		}
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case agentEventMsg:
		return m.handleAgentEvent(agent.Event(msg))

	case runFinishedMsg:
		m.isLoading = false
		m.events = nil
		m.recordTranscript()
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case instructionsMsg:
		m.agent.SetSystemPrompt(string(msg))
		m.appendSystem("Instructions reloaded.")
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// handleAgentEvent folds one agent event into the view.
func (m chatModel) handleAgentEvent(ev agent.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case agent.EventText:
		if len(m.history) == 0 || m.history[len(m.history)-1].role != "assistant" {
			m.history = append(m.history, chatMessage{role: "assistant", time: time.Now()})
		}
		m.history[len(m.history)-1].content += ev.Text

	case agent.EventToolStart:
		m.appendSystem(fmt.Sprintf("⚙ running %s", ev.ToolName))

	case agent.EventToolEnd:
		if ev.Result != nil && ev.Result.Err != nil {
			m.appendSystem(fmt.Sprintf("✗ %s: %v", ev.ToolName, ev.Result.Err))
		} else if ev.Result != nil {
			m.appendSystem(fmt.Sprintf("✓ %s (%dms)", ev.ToolName, ev.Result.DurationMs))
		}

	case agent.EventApproval:
		m.pendingApproval = ev.Request
		m.selectedChoice = 0
		m.appendSystem(m.formatApprovalRequest(ev.Request))
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		// Stop reading events until the user picks a choice; the run is
		// blocked on the reply channel anyway.
		return m, nil

	case agent.EventError:
		m.err = ev.Err

	case agent.EventDone:
		m.turnCount++
	}

	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	return m, waitForEvent(m.events)
}

func (m chatModel) handleApprovalChoice() (tea.Model, tea.Cmd) {
	req := m.pendingApproval
	m.pendingApproval = nil

	var decision agent.Decision
	switch m.selectedChoice {
	case 0:
		decision = agent.DecisionApprove
	case 1:
		decision = agent.DecisionAlwaysApprove
	default:
		decision = agent.DecisionDeny
	}
	req.Reply <- decision

	m.appendSystem(fmt.Sprintf("→ %s", approvalChoices[m.selectedChoice]))
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	return m, waitForEvent(m.events)
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" && m.initialPrompt != "" {
		input = m.initialPrompt
		m.initialPrompt = ""
	}
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.history = append(m.history, chatMessage{role: "user", content: input, time: time.Now()})
	m.textinput.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.isLoading = true
	m.err = nil

	m.events = m.agent.Run(m.ctx, input)
	return m, tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m chatModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	m.textinput.Reset()

	switch parts[0] {
	case "/quit", "/exit", "/q":
		m.cancel()
		return m, tea.Quit

	case "/clear":
		m.history = nil
		m.viewport.SetContent("")
		return m, nil

	case "/help":
		m.appendAssistant(`## Commands

| Command | Description |
|---------|-------------|
| /help | Show this help message |
| /clear | Clear chat history |
| /status | Show model, approval mode and tools |
| /model <name> | Switch model for this session |
| /quit, /exit, /q | Exit |

Anything else is sent to the model. Edits and shell commands wait for
your approval unless the approval mode auto-approves them.`)

	case "/status":
		m.appendAssistant(fmt.Sprintf(`## Status

- **Model**: %s
- **Server**: %s
- **Approval**: %s
- **Workspace**: %s
- **Turns**: %d
- **Tools**: %s`,
			m.cfg.Model, m.cfg.BaseURL, m.cfg.ApprovalMode, m.cwd,
			m.turnCount, strings.Join(m.agent.ToolNames(), ", ")))

	case "/model":
		if len(parts) < 2 {
			m.appendAssistant("Usage: `/model <name>`")
		} else {
			m.cfg.Model = parts[1]
			m.agent.SetModel(parts[1])
			m.appendAssistant(fmt.Sprintf("Model switched to **%s** for this session.", parts[1]))
		}

	default:
		m.appendAssistant(fmt.Sprintf("Unknown command `%s`. Try /help.", parts[0]))
	}

	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	return m, nil
}

// refreshApprovalPrompt re-renders the picker so the highlighted choice
// tracks the cursor.
func (m *chatModel) refreshApprovalPrompt() {
	if m.pendingApproval == nil || len(m.history) == 0 {
		return
	}
	m.history[len(m.history)-1].content = m.formatApprovalRequest(m.pendingApproval)
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m *chatModel) appendSystem(content string) {
	m.history = append(m.history, chatMessage{role: "system", content: content, time: time.Now()})
}

func (m *chatModel) appendAssistant(content string) {
	m.history = append(m.history, chatMessage{role: "assistant", content: content, time: time.Now()})
}

func (m chatModel) formatApprovalRequest(req *agent.ApprovalRequest) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Warning.Render(fmt.Sprintf("%s needs approval", req.ToolName)))
	sb.WriteString("\n\n")
	if req.Preview != "" {
		sb.WriteString(m.styles.RenderDiff(req.Preview))
		sb.WriteString("\n")
	}
	for i, choice := range approvalChoices {
		if i == m.selectedChoice {
			sb.WriteString(m.styles.Bold.Render(fmt.Sprintf("  → %s", choice)))
		} else {
			sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("    %s", choice)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Muted.Render("Use ↑/↓ to select, Enter to confirm"))
	return sb.String()
}

// recordTranscript persists the finished turn when memory is enabled.
func (m *chatModel) recordTranscript() {
	if m.store == nil {
		return
	}
	if m.sessionID == "" {
		id, err := m.store.Begin(m.cfg.Model, m.cwd)
		if err != nil {
			return
		}
		m.sessionID = id
	}
	for i, msg := range m.agent.History() {
		if msg.Role == "system" {
			continue
		}
		_ = m.store.Append(m.sessionID, i, msg.Role, msg.Content)
	}
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.role {
		case "user":
			userStyle := m.styles.Bold.Foreground(m.styles.Theme.Primary).MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.content))
			sb.WriteString("\n\n")
		case "system":
			sb.WriteString(m.styles.Muted.Render(msg.content))
			sb.WriteString("\n")
		default:
			assistantStyle := m.styles.Bold.Foreground(m.styles.Theme.Accent).MarginTop(1)
			sb.WriteString(assistantStyle.Render("codex") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.content))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery.
func (m chatModel) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()

	chatView := m.styles.Content.Render(m.viewport.View())
	if m.isLoading && m.pendingApproval == nil {
		chatView += "\n" + m.styles.Spinner.Render(m.spinner.View()) + " Thinking..."
	}
	if m.err != nil {
		chatView += "\n" + m.styles.Error.Render("Error: "+m.err.Error())
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textinput.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputArea,
		m.renderFooter(),
	)
}

func (m chatModel) renderHeader() string {
	title := m.styles.Header.Render(" codex ")
	model := m.styles.Badge.Render(m.cfg.Model)

	var status string
	switch {
	case m.pendingApproval != nil:
		status = m.styles.Warning.Render("● Awaiting approval")
	case m.isLoading:
		status = m.styles.Warning.Render("● Working")
	default:
		status = m.styles.Success.Render("● Ready")
	}

	headerLine := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", model, "  ", status)
	workspace := m.styles.Muted.Render(" " + m.cwd)
	return lipgloss.JoinVertical(lipgloss.Left, headerLine, workspace, m.styles.RenderDivider(m.width))
}

func (m chatModel) renderFooter() string {
	help := m.styles.Muted.Render(fmt.Sprintf(
		"%s mode • Enter: send • /help: commands • Ctrl+C: exit", m.cfg.ApprovalMode))
	return lipgloss.NewStyle().MarginTop(1).Render(help)
}

// runInteractiveChat launches the chat TUI.
func runInteractiveChat(cfg *config.Config, initialPrompt string) error {
	a, cwd, err := buildAgent(cfg)
	if err != nil {
		return err
	}
	store, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	model := newChatModel(cfg, a, store, cwd, initialPrompt)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Reload the system prompt when instructions.md changes.
	if path, err := config.InstructionsPath(); err == nil {
		go func() {
			_ = config.WatchInstructions(model.ctx, path, func(content string) {
				p.Send(instructionsMsg(content))
			})
		}()
	}

	_, err = p.Run()
	model.cancel()
	return err
}
