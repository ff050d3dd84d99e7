package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jespino/bookmap/pkg/books"
)

// blocks holds the eighth-height bar glyphs, from empty to full.
var blocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// HistogramPane draws books per year as a vertical bar chart, one column
// per year. Years inside the selected span are highlighted.
type HistogramPane struct {
	rows  int
	bins  []books.YearBin
	from  int
	to    int
	genre string
}

func NewHistogramPane(rows int) HistogramPane {
	return HistogramPane{rows: max(rows, 1)}
}

func (h *HistogramPane) SetBins(bins []books.YearBin) {
	h.bins = bins
}

func (h *HistogramPane) SetRange(from, to int, genre string) {
	h.from, h.to, h.genre = from, to, genre
}

// Height is the number of lines View renders.
func (h *HistogramPane) Height() int {
	return h.rows + 2
}

func (h *HistogramPane) View() string {
	title := "Books per year"
	if h.genre != "" {
		title += " (" + h.genre + ")"
	}
	if len(h.bins) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), infoStyle.Render("No data"))
	}

	peak := 0
	for _, bin := range h.bins {
		peak = max(peak, bin.Count)
	}

	lines := make([]string, h.rows)
	for r := range lines {
		var sb strings.Builder
		for _, bin := range h.bins {
			glyph := blocks[barCell(bin.Count, peak, h.rows, h.rows-1-r)]
			if bin.Year >= h.from && bin.Year <= h.to {
				sb.WriteString(selectedBinStyle.Render(glyph))
			} else {
				sb.WriteString(subtleStyle.Render(glyph))
			}
		}
		lines[r] = sb.String()
	}

	first, last := h.bins[0].Year, h.bins[len(h.bins)-1].Year
	axis := fmt.Sprintf("%d", first)
	if gap := len(h.bins) - 2*len(axis); gap > 0 {
		axis += strings.Repeat(" ", gap) + fmt.Sprintf("%d", last)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title)+infoStyle.Render(fmt.Sprintf("  %d-%d", h.from, h.to)),
		strings.Join(lines, "\n"),
		subtleStyle.Render(axis),
	)
}

// barCell returns the glyph index for the given row of a bar, counting
// rows from the bottom. Non-zero counts always show at least one eighth.
func barCell(count, peak, rows, row int) int {
	if count <= 0 || peak <= 0 {
		return 0
	}
	height := max(count*rows*8/peak, 1)
	fill := height - row*8
	return min(max(fill, 0), 8)
}
