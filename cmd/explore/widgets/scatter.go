package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jespino/bookmap/pkg/projection"
)

// mapExtent is the side of the normalized coordinate square.
const mapExtent = 100.0

// ScatterPane draws the topic map on a character grid. Y grows upwards.
type ScatterPane struct {
	width     int
	height    int
	coords    projection.Coordinates
	genreOf   map[int]string
	colors    map[string]lipgloss.Style
	cursor    projection.Point
	selected  int
	computing bool
	spinner   string
	request   uint64
}

func NewScatterPane() ScatterPane {
	return ScatterPane{
		cursor:   projection.Point{mapExtent / 2, mapExtent / 2},
		selected: -1,
	}
}

// SetSize sets the pane size, including the title line.
func (p *ScatterPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetPoints replaces the plotted coordinates. genreOf colors each point.
func (p *ScatterPane) SetPoints(coords projection.Coordinates, genreOf map[int]string, colors map[string]lipgloss.Style) {
	p.coords = coords
	p.genreOf = genreOf
	p.colors = colors
	if _, ok := coords[p.selected]; !ok {
		p.selected = -1
	}
}

func (p *ScatterPane) SetComputing(computing bool, request uint64) {
	p.computing = computing
	p.request = request
}

// SetSpinner sets the frame shown while a layout is computing.
func (p *ScatterPane) SetSpinner(frame string) {
	p.spinner = frame
}

func (p *ScatterPane) Cursor() projection.Point {
	return p.cursor
}

func (p *ScatterPane) SetCursor(pt projection.Point) {
	p.cursor = projection.Point{clamp(pt[0]), clamp(pt[1])}
}

// MoveCursor moves the cursor by one grid cell per step.
func (p *ScatterPane) MoveCursor(dx, dy int) {
	cols, rows := p.grid()
	stepX := mapExtent / float64(max(cols-1, 1))
	stepY := mapExtent / float64(max(rows-1, 1))
	p.SetCursor(projection.Point{p.cursor[0] + float64(dx)*stepX, p.cursor[1] + float64(dy)*stepY})
}

func (p *ScatterPane) Selected() int {
	return p.selected
}

func (p *ScatterPane) SetSelected(id int) {
	p.selected = id
}

func (p *ScatterPane) grid() (cols, rows int) {
	return max(p.width, 1), max(p.height-1, 1)
}

// Cell maps a map point to its grid column and row.
func (p *ScatterPane) Cell(pt projection.Point) (col, row int) {
	cols, rows := p.grid()
	col = int(math.Round(clamp(pt[0]) / mapExtent * float64(cols-1)))
	row = int(math.Round((mapExtent - clamp(pt[1])) / mapExtent * float64(rows-1)))
	return col, row
}

// PointAt maps a grid cell back to map coordinates.
func (p *ScatterPane) PointAt(col, row int) projection.Point {
	cols, rows := p.grid()
	x := float64(col) / float64(max(cols-1, 1)) * mapExtent
	y := mapExtent - float64(row)/float64(max(rows-1, 1))*mapExtent
	return projection.Point{clamp(x), clamp(y)}
}

func (p *ScatterPane) View() string {
	cols, rows := p.grid()

	cells := make([][]string, rows)
	counts := make([][]int, rows)
	for r := range cells {
		cells[r] = make([]string, cols)
		counts[r] = make([]int, cols)
		for c := range cells[r] {
			cells[r][c] = " "
		}
	}

	for _, id := range p.coords.IDs() {
		col, row := p.Cell(p.coords[id])
		counts[row][col]++
		glyph := "•"
		if counts[row][col] > 1 {
			glyph = "●"
		}
		style, ok := p.colors[p.genreOf[id]]
		if !ok {
			style = infoStyle
		}
		cells[row][col] = style.Render(glyph)
	}

	if pt, ok := p.coords[p.selected]; ok {
		col, row := p.Cell(pt)
		cells[row][col] = cursorStyle.Render("◉")
	}

	col, row := p.Cell(p.cursor)
	if counts[row][col] == 0 {
		cells[row][col] = cursorStyle.Render("+")
	}

	lines := make([]string, rows)
	for r := range cells {
		lines[r] = strings.Join(cells[r], "")
	}

	body := strings.Join(lines, "\n")
	if len(p.coords) == 0 && !p.computing {
		body = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center,
			infoStyle.Render("No books in this range"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, p.title(), body)
}

func (p *ScatterPane) title() string {
	if p.computing {
		return titleStyle.Render("Topic map: ") + p.spinner + infoStyle.Render(fmt.Sprintf(" computing layout #%d", p.request))
	}
	return titleStyle.Render("Topic map: ") + statusStyle.Render("●") +
		infoStyle.Render(fmt.Sprintf(" %d books placed", len(p.coords)))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(mapExtent, v))
}
