package explore

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jespino/bookmap/cmd/shell"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/coordinator"
	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/projection"
)

var testBooks = []books.Book{
	{ID: 1, Title: "Dune", Year: 1985, Genre: "Sci-Fi", Topics: "space|desert|politics", AuthorCountry: "USA"},
	{ID: 2, Title: "Hyperion", Year: 1989, Genre: "Sci-Fi", Topics: "space|pilgrimage", AuthorCountry: "USA"},
	{ID: 3, Title: "It", Year: 1986, Genre: "Horror", Topics: "fear|childhood", AuthorCountry: "USA"},
	{ID: 4, Title: "Misery", Year: 1987, Genre: "Horror", Topics: "fear|obsession", AuthorCountry: "USA"},
	{ID: 5, Title: "Rayuela", Year: 1963, Genre: "Romance", Topics: "love|paris", AuthorCountry: "Argentina"},
}

// diagonal places the books along the map diagonal, book 1 at the origin.
var diagonal = layout.Func(func(ctx context.Context, items []layout.Item) (projection.Coordinates, error) {
	coords := make(projection.Coordinates, len(items))
	for _, item := range items {
		v := float64(25 * (item.ID - 1))
		coords[item.ID] = projection.Point{v, v}
	}
	return coords, nil
})

func newTestModel(t *testing.T) (model, *coordinator.Coordinator) {
	t.Helper()

	coord := coordinator.New(coordinator.NewOffloaded(diagonal, zerolog.Nop()), zerolog.Nop())
	t.Cleanup(func() { coord.Close() })

	var out bytes.Buffer
	pipeline := layout.NewPipeline(layout.DefaultOptions(), zerolog.Nop())
	session := shell.NewSession(testBooks, books.DefaultFilter(), coord, pipeline, &out)
	session.Submit()

	m := newModel(context.Background(), session, coord, &out)
	m = update(t, m, tea.WindowSizeMsg{Width: 90, Height: 30})
	return m, coord
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	updated, ok := next.(model)
	require.True(t, ok)
	return updated
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func settle(t *testing.T, m model, coord *coordinator.Coordinator) model {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := coord.Wait(ctx)
	require.NoError(t, err)
	return update(t, m, layoutMsg(state))
}

func TestModelShowsLayout(t *testing.T) {
	t.Parallel()

	m, coord := newTestModel(t)
	m = settle(t, m, coord)

	assert.False(t, m.state.Computing)
	assert.Len(t, m.state.Coords, 4)
	// The cursor starts at the center, closest to book 3 at (50, 50).
	assert.Equal(t, 3, m.scatter.Selected())
	assert.Contains(t, m.View(), "4 books placed")

	m = update(t, m, key("left"))
	assert.Equal(t, 3, m.scatter.Selected())
}

func TestModelMouseSelects(t *testing.T) {
	t.Parallel()

	m, coord := newTestModel(t)
	m = settle(t, m, coord)

	// Bottom-left corner of the map is book 1 at the origin.
	m = update(t, m, tea.MouseMsg{X: 0, Y: m.scatterHeight() - 1, Action: tea.MouseActionMotion})
	assert.Equal(t, 1, m.scatter.Selected())

	// Outside the map nothing changes.
	m = update(t, m, tea.MouseMsg{X: 89, Y: 0, Action: tea.MouseActionMotion})
	assert.Equal(t, 1, m.scatter.Selected())
}

func TestModelFilterKeys(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)

	m = update(t, m, key("]"))
	assert.Equal(t, books.Filter{From: 1981, To: 1991}, m.session.Filter())

	m = update(t, m, key("-"))
	assert.Equal(t, 1990, m.session.Filter().To)

	m = update(t, m, key("g"))
	assert.Equal(t, "Horror", m.session.Filter().Genre)
	assert.Contains(t, m.command.StatusMessage(), "2 books match")

	m = update(t, m, key("G"))
	assert.Empty(t, m.session.Filter().Genre)
}

func TestModelCommandLine(t *testing.T) {
	t.Parallel()

	m, coord := newTestModel(t)

	m = update(t, m, key(":"))
	require.True(t, m.command.Focused())

	m.command.SetValue("genre Sci-Fi")
	m = update(t, m, key("enter"))
	assert.False(t, m.command.Focused())
	assert.Equal(t, "Sci-Fi", m.session.Filter().Genre)
	assert.Contains(t, m.command.StatusMessage(), "2 books match")

	m = settle(t, m, coord)
	assert.Len(t, m.state.Coords, 0, "two books are too few to lay out")

	next, _ := m.runCommand("bogus")
	m = next.(model)
	assert.Contains(t, m.command.StatusMessage(), "unknown command")

	_, cmd := m.runCommand("quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelHelpAndQuit(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)

	m = update(t, m, key("?"))
	assert.True(t, m.help.Visible())
	assert.Contains(t, m.View(), "Keyboard shortcuts")

	m = update(t, m, key("x"))
	assert.False(t, m.help.Visible())

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelReloadsBooks(t *testing.T) {
	t.Parallel()

	m, coord := newTestModel(t)
	m = update(t, m, booksMsg(testBooks[:3]))

	assert.Equal(t, "dataset reloaded: 3 books", m.command.StatusMessage())
	m = settle(t, m, coord)
	assert.Len(t, m.state.Coords, 3)
}

func TestModelReloadSameIDsRecomputes(t *testing.T) {
	t.Parallel()

	m, coord := newTestModel(t)
	m = settle(t, m, coord)
	before := m.state.RequestID

	reloaded := make([]books.Book, len(testBooks))
	copy(reloaded, testBooks)
	reloaded[0].Topics = "sand|worms"

	m = update(t, m, booksMsg(reloaded))
	assert.Equal(t, before+1, coord.State().RequestID)
	m = settle(t, m, coord)
	assert.Len(t, m.state.Coords, 4)
}

func TestModelRecomputeKey(t *testing.T) {
	t.Parallel()

	m, coord := newTestModel(t)
	m = settle(t, m, coord)
	before := m.state.RequestID

	m = update(t, m, key("r"))
	state := coord.State()
	assert.Equal(t, before+1, state.RequestID)
	assert.NotEmpty(t, state.Coords, "the previous map stays committed while recomputing")
	assert.Contains(t, m.command.StatusMessage(), fmt.Sprintf("request #%d", before+1))

	m = settle(t, m, coord)
	assert.Equal(t, before+1, m.state.RequestID)
	assert.Len(t, m.state.Coords, 4)
}

func TestShiftSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    books.Filter
		delta int
		want  books.Filter
	}{
		{name: "forward", in: books.Filter{From: 1980, To: 1990}, delta: 1, want: books.Filter{From: 1981, To: 1991}},
		{name: "back at first year", in: books.Filter{From: 1980, To: 1990}, delta: -1, want: books.Filter{From: 1980, To: 1990}},
		{name: "forward at last year", in: books.Filter{From: 2010, To: 2020}, delta: 1, want: books.Filter{From: 2010, To: 2020}},
		{name: "keeps genre", in: books.Filter{From: 1990, To: 1995, Genre: "Horror"}, delta: -1, want: books.Filter{From: 1989, To: 1994, Genre: "Horror"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shiftSpan(tt.in, tt.delta))
		})
	}
}

func TestResizeSpan(t *testing.T) {
	t.Parallel()

	assert.Equal(t, books.Filter{From: 1980, To: 1991}, resizeSpan(books.Filter{From: 1980, To: 1990}, 1))
	assert.Equal(t, books.Filter{From: 1980, To: 1980}, resizeSpan(books.Filter{From: 1980, To: 1980}, -1))
	assert.Equal(t, books.Filter{From: 2000, To: 2020}, resizeSpan(books.Filter{From: 2000, To: 2020}, 1))
}

func TestNextGenre(t *testing.T) {
	t.Parallel()

	genres := []string{"Horror", "Romance", "Sci-Fi"}
	assert.Equal(t, "Horror", nextGenre(genres, ""))
	assert.Equal(t, "Romance", nextGenre(genres, "horror"))
	assert.Equal(t, "", nextGenre(genres, "Sci-Fi"))
	assert.Equal(t, "", nextGenre(genres, "Unknown"))
	assert.Equal(t, "", nextGenre(nil, ""))
}
