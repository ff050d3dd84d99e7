package widgets

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type CommandLine struct {
	input         textinput.Model
	history       []string
	historyPos    int
	infoStyle     lipgloss.Style
	statusMessage string
	failed        bool
}

func NewCommandLine() CommandLine {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "years 1980 1990, genre Horror, similar 12..."

	return CommandLine{
		input:      ti,
		history:    make([]string, 0),
		historyPos: -1,
		infoStyle:  infoStyle,
	}
}

func (c *CommandLine) View() string {
	msg := c.statusMessage
	if c.failed {
		msg = errorStyle.Render(msg)
	}
	statusBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" | ? for help | : for command | q to quit")

	if !c.input.Focused() {
		return msg + statusBar
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		c.input.View(),
		msg+statusBar,
	)
}

func (c *CommandLine) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *CommandLine) SetStatusMessage(msg string) {
	c.statusMessage = msg
	c.failed = false
}

func (c *CommandLine) SetError(err error) {
	c.statusMessage = "error: " + err.Error()
	c.failed = true
}

func (c *CommandLine) StatusMessage() string {
	return c.statusMessage
}

func (c *CommandLine) AddToHistory(cmd string) {
	if cmd == "" {
		return
	}
	c.history = append(c.history, cmd)
	c.historyPos = -1
}

// HistoryUp recalls the previous command, starting from the newest.
func (c *CommandLine) HistoryUp() {
	if len(c.history) == 0 {
		return
	}
	if c.historyPos == -1 {
		c.historyPos = len(c.history)
	}
	c.historyPos = max(c.historyPos-1, 0)
	c.input.SetValue(c.history[c.historyPos])
	c.input.CursorEnd()
}

// HistoryDown moves towards the newest command and clears the input past it.
func (c *CommandLine) HistoryDown() {
	if c.historyPos == -1 {
		return
	}
	c.historyPos++
	if c.historyPos >= len(c.history) {
		c.historyPos = -1
		c.input.SetValue("")
		return
	}
	c.input.SetValue(c.history[c.historyPos])
	c.input.CursorEnd()
}

func (c *CommandLine) Value() string {
	return c.input.Value()
}

func (c *CommandLine) SetValue(value string) {
	c.input.SetValue(value)
}

func (c *CommandLine) Focus() tea.Cmd {
	return c.input.Focus()
}

func (c *CommandLine) Blur() {
	c.input.Blur()
}

func (c *CommandLine) Focused() bool {
	return c.input.Focused()
}
