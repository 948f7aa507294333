package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/chatter/internal/core"
)

const usersPaneWidth = 24

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	usersStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

type focus int

const (
	focusInput focus = iota
	focusUsers
)

// promptMsg switches the input line into a modal prompt.
type promptMsg struct {
	title string
	reply chan<- promptReply
}

type promptReply struct {
	value     string
	cancelled bool
}

// attachMsg hands the model the engine once connected.
type attachMsg struct {
	submitter core.Submitter
	title     string
}

// submitResultMsg carries the outcome of an asynchronous Submit.
type submitResultMsg struct {
	err error
}

// model is the bubbletea model behind the terminal UI.
type model struct {
	title       string
	maxLogLines int

	viewport  viewport.Model
	textInput textinput.Model
	logs      []string
	ready     bool
	width     int
	height    int

	submitter    core.Submitter
	inputEnabled bool
	prompt       *promptMsg
	ended        bool

	users     []string
	selected  map[string]bool
	cursor    int
	focus     focus
	broadcast bool
}

func newModel(title string, maxLogLines int) *model {
	ti := textinput.New()
	ti.Placeholder = "Connecting..."
	ti.Blur() // start unfocused
	ti.CharLimit = 512
	ti.Width = 50

	return &model{
		title:       title,
		maxLogLines: maxLogLines,
		textInput:   ti,
		logs:        []string{},
		selected:    make(map[string]bool),
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, keyCmd := m.handleKey(msg); handled {
			return m, keyCmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case promptMsg:
		m.cancelPrompt()
		m.prompt = &msg
		m.textInput.Reset()
		m.textInput.Placeholder = msg.title
		m.textInput.Focus()
		m.focus = focusInput
		return m, nil

	case attachMsg:
		m.submitter = msg.submitter
		if msg.title != "" {
			m.title = msg.title
		}
		return m, nil

	case submitResultMsg:
		if msg.err != nil {
			m.addLog(errorStyle.Render("send failed: " + msg.err.Error()))
		}
		return m, nil

	case core.Event:
		m.handleEvent(msg)
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.inputEnabled || m.prompt != nil {
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancelPrompt()
		return true, tea.Quit

	case "esc":
		if m.prompt != nil {
			m.cancelPrompt()
			return true, nil
		}
		return true, tea.Quit

	case "enter":
		if m.prompt != nil {
			m.answerPrompt()
			return true, nil
		}
		return true, m.submit()

	case "tab":
		if m.prompt == nil {
			m.toggleFocus()
		}
		return true, nil

	case "ctrl+b":
		m.broadcast = !m.broadcast
		return true, nil
	}

	if m.focus != focusUsers || m.prompt != nil {
		return false, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.users)-1 {
			m.cursor++
		}
	case " ", "space":
		m.toggleSelected()
	}
	return true, nil
}

func (m *model) handleEvent(ev core.Event) {
	switch ev.Kind {
	case core.EventNameAccepted:
		m.inputEnabled = true
		m.textInput.Placeholder = "Type a message..."
		m.textInput.Focus()
		m.addLog(helpStyle.Render("name accepted, you can chat now"))

	case core.EventMessage:
		m.addLog(ev.Text)

	case core.EventUserList:
		m.setUsers(ev.Users)

	case core.EventSessionEnded:
		m.ended = true
		m.inputEnabled = false
		m.cancelPrompt()
		m.textInput.Blur()
		m.textInput.Placeholder = "Disconnected"
		if core.IsCleanEnd(ev.Err) {
			m.addLog(helpStyle.Render("session ended"))
		} else {
			m.addLog(errorStyle.Render(fmt.Sprintf("session ended: %v", ev.Err)))
		}
	}
}

// submit sends the composed text through the engine and clears the input
// whatever the outcome. An empty field is sent as an empty line.
func (m *model) submit() tea.Cmd {
	if !m.inputEnabled || m.submitter == nil {
		return nil
	}
	text := m.textInput.Value()
	m.textInput.SetValue("")

	intent := core.OutboundIntent{
		Text:       text,
		Recipients: m.selectedRecipients(),
		Broadcast:  m.broadcast,
	}
	submitter := m.submitter
	return func() tea.Msg {
		return submitResultMsg{err: submitter.Submit(intent)}
	}
}

func (m *model) answerPrompt() {
	p := m.prompt
	m.prompt = nil
	p.reply <- promptReply{value: strings.TrimSpace(m.textInput.Value())}
	m.restoreInput()
}

func (m *model) cancelPrompt() {
	if m.prompt == nil {
		return
	}
	p := m.prompt
	m.prompt = nil
	p.reply <- promptReply{cancelled: true}
	m.restoreInput()
}

func (m *model) restoreInput() {
	m.textInput.Reset()
	switch {
	case m.inputEnabled:
		m.textInput.Placeholder = "Type a message..."
	case m.ended:
		m.textInput.Placeholder = "Disconnected"
		m.textInput.Blur()
	default:
		m.textInput.Placeholder = "Waiting for the server to accept your name..."
		m.textInput.Blur()
	}
}

func (m *model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusUsers
		m.textInput.Blur()
		return
	}
	m.focus = focusInput
	if m.inputEnabled {
		m.textInput.Focus()
	}
}

func (m *model) toggleSelected() {
	if len(m.users) == 0 {
		return
	}
	name := m.users[m.cursor]
	if m.selected[name] {
		delete(m.selected, name)
	} else {
		m.selected[name] = true
	}
}

// setUsers replaces the user list, keeping selections for users still present.
func (m *model) setUsers(users []string) {
	m.users = users
	kept := make(map[string]bool, len(m.selected))
	for _, name := range users {
		if m.selected[name] {
			kept[name] = true
		}
	}
	m.selected = kept
	if m.cursor >= len(users) {
		m.cursor = max(len(users)-1, 0)
	}
}

// selectedRecipients returns the selected names in user-list order.
func (m *model) selectedRecipients() []string {
	var out []string
	for _, name := range m.users {
		if m.selected[name] {
			out = append(out, name)
		}
	}
	return out
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height

	vw := max(width-usersPaneWidth-2, 10)
	vh := max(height-4, 1)
	if !m.ready {
		m.viewport = viewport.New(vw, vh)
		m.viewport.SetContent(m.renderLogs())
		m.ready = true
	} else {
		m.viewport.Width = vw
		m.viewport.Height = vh
	}
	m.textInput.Width = max(width-4, 10)
}

// addLog appends a transcript line, trimming to maxLogLines.
func (m *model) addLog(line string) {
	m.logs = append(m.logs, line)
	if m.maxLogLines > 0 && len(m.logs) > m.maxLogLines {
		m.logs = m.logs[len(m.logs)-m.maxLogLines:]
	}
	if m.ready {
		// do not scroll if not at bottom, to prevent flickering
		wasAtBottom := m.viewport.AtBottom()
		m.viewport.SetContent(m.renderLogs())
		if wasAtBottom {
			m.viewport.GotoBottom()
		}
	}
}

func (m *model) renderLogs() string {
	return strings.Join(m.logs, "\n")
}

func (m *model) renderUsers() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Users"))
	for i, name := range m.users {
		b.WriteString("\n")
		mark := "[ ]"
		if m.selected[name] {
			mark = "[x]"
		}
		line := mark + " " + name
		if m.focus == focusUsers && i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
	}
	return usersStyle.
		Width(usersPaneWidth - 2).
		Height(max(m.height-6, 1)).
		Render(b.String())
}

func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	mode := "targeted"
	if m.broadcast || len(m.selectedRecipients()) == 0 {
		mode = "broadcast"
	}
	title := titleStyle.Render(fmt.Sprintf("Chatter - %s [%s]", m.title, mode))

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderUsers())

	var help string
	switch {
	case m.prompt != nil:
		help = "Enter: confirm • Esc: cancel • Ctrl+C: quit"
	case m.inputEnabled:
		help = "Enter: send • Tab: users • Space: select • Ctrl+B: broadcast • Esc: quit"
	case m.ended:
		help = "Disconnected • Esc/Ctrl+C: quit"
	default:
		help = "Waiting for the server... • Ctrl+C/Esc: quit"
	}

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s",
		title,
		body,
		inputStyle.Render("> "+m.textInput.View()),
		helpStyle.Render(help),
	)
}
