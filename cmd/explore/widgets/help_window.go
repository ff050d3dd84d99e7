package widgets

const helpText = `
Keyboard shortcuts:
  q, ctrl+c        Quit
  ?                Toggle help
  :                Enter a command
  ←↓↑→, hjkl       Move the cursor over the map
  mouse            Point at a book
  [ / ]            Shift the year span back / forward
  - / +            Shrink / grow the year span
  g / G            Next genre / clear genre
  pgup/pgdn        Scroll the insights pane
  r                Recompute the layout

Commands:
  years <from> <to>   Set the publication year span
  genre [name]        Filter by genre
  country [name]      Filter by author country
  similar <id> [k]    Books with the most similar topics
  near <x> <y>        Book closest to a point of the map
  status, genres, stats, help, quit

Press any key to close help
`

type HelpWindow struct {
	visible bool
}

func NewHelpWindow() HelpWindow {
	return HelpWindow{}
}

func (h *HelpWindow) Toggle() {
	h.visible = !h.visible
}

func (h *HelpWindow) Visible() bool {
	return h.visible
}

func (h *HelpWindow) View() string {
	if !h.visible {
		return ""
	}
	return helpText
}
