package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jespino/bookmap/cmd/similar"
	"github.com/jespino/bookmap/cmd/stats"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/coordinator"
	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/neighbors"
)

const helpText = `Commands:
  years <from> <to>   Set the publication year span
  genre [name]        Filter by genre (no name clears it)
  country [name]      Filter by author country (no name clears it)
  genres              List the genres in the dataset
  status              Show the current layout request
  wait                Block until the layout is ready
  show [n]            Print the first n coordinates (default 10)
  near <x> <y>        Book closest to a point of the map
  similar <id> [k]    Books with the most similar topics
  stats               Genre, country and year statistics
  help                Show this help
  quit                Leave the shell`

// Session holds the shell state: the dataset, the active filter and the
// coordinator that recomputes the map whenever the filter changes.
type Session struct {
	books    []books.Book
	byID     map[int]books.Book
	filter   books.Filter
	coord    *coordinator.Coordinator
	pipeline *layout.Pipeline
	out      io.Writer
}

func NewSession(list []books.Book, filter books.Filter, coord *coordinator.Coordinator, pipeline *layout.Pipeline, out io.Writer) *Session {
	return &Session{
		books:    list,
		byID:     books.ByID(list),
		filter:   filter,
		coord:    coord,
		pipeline: pipeline,
		out:      out,
	}
}

// Filter returns the active filter.
func (s *Session) Filter() books.Filter {
	return s.filter
}

// SetFilter replaces the active filter and recomputes the layout.
func (s *Session) SetFilter(f books.Filter) coordinator.RequestID {
	s.filter = f
	return s.Submit()
}

// Books returns the whole dataset.
func (s *Session) Books() []books.Book {
	return s.books
}

// Book looks a book up by id.
func (s *Session) Book(id int) (books.Book, bool) {
	b, ok := s.byID[id]
	return b, ok
}

// Filtered returns the books matching the active filter.
func (s *Session) Filtered() []books.Book {
	return s.filtered()
}

// SetBooks replaces the dataset and recomputes the layout, even when the
// filtered ids did not change.
func (s *Session) SetBooks(list []books.Book) coordinator.RequestID {
	s.books = list
	s.byID = books.ByID(list)
	return s.Resubmit()
}

// Resubmit recomputes the layout of the filtered books unconditionally.
func (s *Session) Resubmit() coordinator.RequestID {
	s.coord.Invalidate()
	return s.Submit()
}

// Submit sends the filtered books to the coordinator.
func (s *Session) Submit() coordinator.RequestID {
	return s.coord.Submit(books.Items(s.filtered()))
}

func (s *Session) filtered() []books.Book {
	return books.Apply(s.books, s.filter)
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Session) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "years":
		return false, s.years(args)
	case "genre":
		s.filter.Genre = strings.Join(args, " ")
		s.announce()
	case "country":
		s.filter.Country = strings.Join(args, " ")
		s.announce()
	case "genres":
		fmt.Fprintln(s.out, strings.Join(books.Genres(s.books), ", "))
	case "status":
		s.status(s.coord.State())
	case "wait":
		state, err := s.coord.Wait(ctx)
		if err != nil {
			return false, err
		}
		s.status(state)
	case "show":
		return false, s.show(args)
	case "near":
		return false, s.near(args)
	case "similar":
		return false, s.similar(args)
	case "stats":
		stats.Render(s.out, stats.NewReport(s.books, s.filter))
	default:
		return false, fmt.Errorf("unknown command %q, try help", name)
	}
	return false, nil
}

func (s *Session) years(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: years <from> <to>")
	}
	from, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid year %q", args[0])
	}
	to, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid year %q", args[1])
	}
	s.filter.From, s.filter.To = from, to
	s.announce()
	return nil
}

func (s *Session) announce() {
	id := s.Submit()
	fmt.Fprintf(s.out, "%d books match, layout request #%d\n", len(s.filtered()), id)
}

func (s *Session) status(state coordinator.State) {
	status := "ready"
	if state.Computing {
		status = "computing"
	}
	fmt.Fprintf(s.out, "request #%d %s (%s), %d points, years %d-%d",
		state.RequestID, status, s.coord.Mode(), len(state.Coords), s.filter.From, s.filter.To)
	if s.filter.Genre != "" {
		fmt.Fprintf(s.out, ", genre %s", s.filter.Genre)
	}
	if s.filter.Country != "" {
		fmt.Fprintf(s.out, ", country %s", s.filter.Country)
	}
	fmt.Fprintln(s.out)
}

func (s *Session) show(args []string) error {
	n := 10
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid count %q", args[0])
		}
	}

	coords := s.coord.State().Coords
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tX\tY\tTITLE")
	for i, id := range coords.IDs() {
		if i >= n {
			break
		}
		p := coords[id]
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%s\n", id, p[0], p[1], s.byID[id].Title)
	}
	return w.Flush()
}

func (s *Session) near(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: near <x> <y>")
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q", args[0])
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q", args[1])
	}

	state := s.coord.State()
	id, ok := neighbors.FromCoordinates(state.Coords).NearestPoint([2]float64{x, y})
	if !ok {
		return fmt.Errorf("no layout available yet")
	}
	b := s.byID[id]
	p := state.Coords[id]
	fmt.Fprintf(s.out, "#%d %s by %s (%d, %s) at %.1f,%.1f\n  %s\n", b.ID, b.Title, b.Author, b.Year, b.Genre, p[0], p[1], b.Topics)
	return nil
}

func (s *Session) similar(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: similar <id> [k]")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid book id %q", args[0])
	}
	k := 5
	if len(args) == 2 {
		if k, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid count %q", args[1])
		}
	}

	filtered := s.filtered()
	if _, ok := books.ByID(filtered)[id]; !ok {
		return fmt.Errorf("book %d is not in the filtered set", id)
	}

	ids, _ := similar.Nearest(s.pipeline, books.Items(filtered), id, k)
	for _, other := range ids {
		b := s.byID[other]
		fmt.Fprintf(s.out, "#%d %s (%s)\n", b.ID, b.Title, b.Topics)
	}
	return nil
}
