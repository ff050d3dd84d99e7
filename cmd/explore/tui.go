package explore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jespino/bookmap/cmd/explore/widgets"
	"github.com/jespino/bookmap/cmd/shell"
	"github.com/jespino/bookmap/cmd/stats"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/coordinator"
	"github.com/jespino/bookmap/pkg/neighbors"
)

const histogramRows = 4

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	sidebarStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)

// layoutMsg carries a state published by the coordinator.
type layoutMsg coordinator.State

// booksMsg carries a reloaded dataset.
type booksMsg []books.Book

type model struct {
	ctx     context.Context
	session *shell.Session
	coord   *coordinator.Coordinator
	out     *bytes.Buffer

	scatter   widgets.ScatterPane
	histogram widgets.HistogramPane
	insights  widgets.InsightsPane
	command   widgets.CommandLine
	help      widgets.HelpWindow
	spinner   spinner.Model

	colors map[string]lipgloss.Style
	index  *neighbors.Index
	state  coordinator.State

	width  int
	height int
	ready  bool
}

// newModel builds the explorer around session. out must be the writer the
// session prints command output to.
func newModel(ctx context.Context, session *shell.Session, coord *coordinator.Coordinator, out *bytes.Buffer) model {
	m := model{
		ctx:       ctx,
		session:   session,
		coord:     coord,
		out:       out,
		scatter:   widgets.NewScatterPane(),
		histogram: widgets.NewHistogramPane(histogramRows),
		insights:  widgets.NewInsightsPane(),
		command:   widgets.NewCommandLine(),
		help:      widgets.NewHelpWindow(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		index:     neighbors.New(),
	}
	m.colors = widgets.GenreColors(books.Genres(session.Books()))
	m.refreshStats()
	m.applyState(coord.State())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForLayout(m.coord.Updates()))
}

// waitForLayout turns the next coordinator update into a message.
func waitForLayout(updates <-chan coordinator.State) tea.Cmd {
	return func() tea.Msg {
		return layoutMsg(<-updates)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case layoutMsg:
		m.applyState(coordinator.State(msg))
		return m, waitForLayout(m.coord.Updates())

	case booksMsg:
		m.session.SetBooks(msg)
		m.colors = widgets.GenreColors(books.Genres(msg))
		m.refreshStats()
		m.command.SetStatusMessage(fmt.Sprintf("dataset reloaded: %d books", len(msg)))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.scatter.SetSpinner(m.spinner.View())
		return m, cmd

	case tea.MouseMsg:
		if msg.X < m.scatterWidth() && msg.Y >= 1 && msg.Y < m.scatterHeight() {
			m.scatter.SetCursor(m.scatter.PointAt(msg.X, msg.Y-1))
			m.selectNearest()
		}
		return m, nil

	case tea.KeyMsg:
		if m.help.Visible() {
			m.help.Toggle()
			return m, nil
		}
		if m.command.Focused() {
			return m.updateCommand(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.command.SetValue("")
		m.command.Blur()
		return m, nil
	case "enter":
		line := strings.TrimSpace(m.command.Value())
		m.command.AddToHistory(line)
		m.command.SetValue("")
		m.command.Blur()
		return m.runCommand(line)
	case "up":
		m.command.HistoryUp()
		return m, nil
	case "down":
		m.command.HistoryDown()
		return m, nil
	}
	cmd := m.command.Update(msg)
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.session.Filter()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.help.Toggle()
	case ":":
		cmd := m.command.Focus()
		return m, cmd
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)
	case "up", "k":
		m.moveCursor(0, 1)
	case "down", "j":
		m.moveCursor(0, -1)
	case "[":
		m.setFilter(shiftSpan(f, -1))
	case "]":
		m.setFilter(shiftSpan(f, 1))
	case "-":
		m.setFilter(resizeSpan(f, -1))
	case "+", "=":
		m.setFilter(resizeSpan(f, 1))
	case "g":
		f.Genre = nextGenre(books.Genres(m.session.Books()), f.Genre)
		m.setFilter(f)
	case "G":
		f.Genre = ""
		m.setFilter(f)
	case "r":
		id := m.session.Resubmit()
		m.command.SetStatusMessage(fmt.Sprintf("recomputing layout, request #%d", id))
	default:
		cmd := m.insights.Update(msg)
		return m, cmd
	}
	return m, nil
}

// runCommand executes a shell command line. Output goes to the insights
// pane and its last line to the status bar.
func (m model) runCommand(line string) (tea.Model, tea.Cmd) {
	if line == "" {
		return m, nil
	}
	switch strings.Fields(line)[0] {
	case "help", "?":
		m.help.Toggle()
		return m, nil
	case "wait":
		m.command.SetStatusMessage("layouts are shown as soon as they are ready")
		return m, nil
	}

	m.out.Reset()
	quit, err := m.session.Exec(m.ctx, line)
	if quit {
		return m, tea.Quit
	}

	output := strings.TrimSpace(m.out.String())
	m.insights.SetOutput(output)
	m.refreshStats()
	if err != nil {
		m.command.SetError(err)
		return m, nil
	}
	m.command.SetStatusMessage(lastLine(output))
	return m, nil
}

func (m *model) setFilter(f books.Filter) {
	id := m.session.SetFilter(f)
	m.refreshStats()
	m.command.SetStatusMessage(fmt.Sprintf("%d books match, layout request #%d", len(m.session.Filtered()), id))
}

func (m *model) refreshStats() {
	f := m.session.Filter()
	report := stats.NewReport(m.session.Books(), f)
	m.insights.SetReport(report, m.colors)
	m.histogram.SetBins(report.Histogram)
	m.histogram.SetRange(f.From, f.To, f.Genre)
}

// applyState shows a coordinator state. While a layout is computing the
// previous map stays on screen.
func (m *model) applyState(state coordinator.State) {
	m.state = state
	m.scatter.SetComputing(state.Computing, uint64(state.RequestID))
	if state.Computing {
		return
	}

	genreOf := make(map[int]string, len(state.Coords))
	for id := range state.Coords {
		if b, ok := m.session.Book(id); ok {
			genreOf[id] = b.Genre
		}
	}
	m.scatter.SetPoints(state.Coords, genreOf, m.colors)
	m.index = neighbors.FromCoordinates(state.Coords)
	m.selectNearest()
}

func (m *model) moveCursor(dx, dy int) {
	m.scatter.MoveCursor(dx, dy)
	m.selectNearest()
}

// selectNearest selects the placed book closest to the cursor.
func (m *model) selectNearest() {
	id, ok := m.index.NearestPoint(m.scatter.Cursor())
	if !ok {
		m.scatter.SetSelected(-1)
		m.insights.SetSelected(nil)
		return
	}
	m.scatter.SetSelected(id)
	if b, ok := m.session.Book(id); ok {
		m.insights.SetSelected(&b)
	}
}

func (m *model) resize(width, height int) {
	m.width, m.height = width, height
	m.scatter.SetSize(m.scatterWidth(), m.scatterHeight())
	m.insights.SetSize(max(width-m.scatterWidth()-2, 10), max(height-2, 3))
	m.ready = true
}

func (m *model) scatterWidth() int {
	return max(m.width*2/3, 10)
}

func (m *model) scatterHeight() int {
	return max(m.height-m.histogram.Height()-2, 3)
}

func (m model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.help.Visible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.help.View())
	}

	left := lipgloss.JoinVertical(lipgloss.Left, m.scatter.View(), m.histogram.View())
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, sidebarStyle.Render(m.insights.View()))

	bottom := m.command.View()
	if !m.command.Focused() && m.command.StatusMessage() == "" {
		bottom = helpStyle.Render("←↓↑→: move • [ ]: shift years • - +: span • g: genre • :: command • ?: help • q: quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, bottom)
}

// shiftSpan moves the year span by delta years, keeping its width and
// staying within the dataset years.
func shiftSpan(f books.Filter, delta int) books.Filter {
	if f.From+delta < books.FirstYear || f.To+delta > books.LastYear {
		return f
	}
	f.From += delta
	f.To += delta
	return f
}

// resizeSpan moves the end of the span by delta years. The span never
// becomes empty or runs past the dataset years.
func resizeSpan(f books.Filter, delta int) books.Filter {
	to := f.To + delta
	if to < f.From || to > books.LastYear {
		return f
	}
	f.To = to
	return f
}

// nextGenre cycles through genres, then back to no genre.
func nextGenre(genres []string, current string) string {
	if current == "" {
		if len(genres) == 0 {
			return ""
		}
		return genres[0]
	}
	for i, g := range genres {
		if strings.EqualFold(g, current) && i+1 < len(genres) {
			return genres[i+1]
		}
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
