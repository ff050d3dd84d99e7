package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jespino/bookmap/cmd/stats"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/topics"
)

const topCountries = 5

// InsightsPane shows the statistics of the filtered books and the details
// of the book under the cursor.
type InsightsPane struct {
	viewport viewport.Model
	report   stats.Report
	selected *books.Book
	output   string
	colors   map[string]lipgloss.Style
}

func NewInsightsPane() InsightsPane {
	return InsightsPane{viewport: viewport.New(0, 0)}
}

func (p *InsightsPane) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = max(height-1, 1)
	p.refresh()
}

func (p *InsightsPane) SetReport(report stats.Report, colors map[string]lipgloss.Style) {
	p.report = report
	p.colors = colors
	p.refresh()
}

// SetSelected shows b in the details section. A nil book clears it.
func (p *InsightsPane) SetSelected(b *books.Book) {
	p.selected = b
	p.refresh()
}

// SetOutput shows the output of the last command below the statistics.
func (p *InsightsPane) SetOutput(output string) {
	p.output = output
	p.refresh()
}

func (p *InsightsPane) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// Content renders the text shown in the viewport.
func (p *InsightsPane) Content() string {
	var sb strings.Builder
	r := p.report

	fmt.Fprintf(&sb, "%s %d - %d\n", labelStyle.Render("Time span:"), r.Filter.From, r.Filter.To)
	fmt.Fprintf(&sb, "%s %d\n", labelStyle.Render("Books found:"), r.Books)
	fmt.Fprintf(&sb, "%s %d\n", labelStyle.Render("Published abroad:"), r.Migrations)

	sb.WriteString("\n" + labelStyle.Render("Genre distribution") + "\n")
	if len(r.Genres) == 0 {
		sb.WriteString(infoStyle.Render("No books in this range") + "\n")
	}
	for _, g := range r.Genres {
		style, ok := p.colors[g.Genre]
		if !ok {
			style = infoStyle
		}
		bar := strings.Repeat("█", int(g.Percentage/10+0.5))
		fmt.Fprintf(&sb, "%-12s %5.1f%% %s\n", g.Genre, g.Percentage, style.Render(bar))
	}

	if len(r.Countries) > 0 {
		sb.WriteString("\n" + labelStyle.Render("Author countries") + "\n")
		for i, c := range r.Countries {
			if i >= topCountries {
				break
			}
			fmt.Fprintf(&sb, "%-16s %d\n", c.Country, c.Count)
		}
	}

	if b := p.selected; b != nil {
		sb.WriteString("\n" + labelStyle.Render("Selected") + "\n")
		fmt.Fprintf(&sb, "%s\n%s, %d\n%s / %s\n", b.Title, b.Author, b.Year, b.Genre, b.AuthorCountry)
		if b.Migrated() {
			fmt.Fprintf(&sb, "Published in %s\n", b.PublicationCountry)
		}
		fmt.Fprintf(&sb, "%s\n", infoStyle.Render(strings.Join(topics.Parse(b.Topics), ", ")))
	}

	if p.output != "" {
		sb.WriteString("\n" + labelStyle.Render("Output") + "\n" + p.output + "\n")
	}

	return sb.String()
}

func (p *InsightsPane) refresh() {
	p.viewport.SetContent(p.Content())
}

func (p *InsightsPane) View() string {
	var indicator string
	if p.viewport.ScrollPercent() < 1.0 {
		indicator = subtleStyle.Render(" ↓")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Insights")+indicator,
		p.viewport.View(),
	)
}
