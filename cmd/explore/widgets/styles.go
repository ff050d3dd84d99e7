package widgets

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// Subtle style for axes and empty bins
	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// Status indicators
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231"))

	selectedBinStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)
)

// genrePalette colors points by genre, in order of first appearance.
var genrePalette = []lipgloss.Color{"39", "208", "112", "199", "220", "45", "160", "141", "250"}

// GenreColors assigns a palette color to every genre.
func GenreColors(genres []string) map[string]lipgloss.Style {
	styles := make(map[string]lipgloss.Style, len(genres))
	for i, genre := range genres {
		styles[genre] = lipgloss.NewStyle().Foreground(genrePalette[i%len(genrePalette)])
	}
	return styles
}
