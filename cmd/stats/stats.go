package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/internal/app"
	"github.com/jespino/bookmap/pkg/books"
)

const topGenres = 5

// Report summarises a filtered set of books.
type Report struct {
	Filter     books.Filter         `json:"filter"`
	Books      int                  `json:"books"`
	Migrations int                  `json:"migrations"`
	Genres     []books.GenreStat    `json:"genres"`
	Countries  []books.CountryCount `json:"countries"`
	Histogram  []books.YearBin      `json:"histogram"`
}

// NewReport computes the report for list under filter. The histogram spans
// the full year range and counts only the selected genre, if any.
func NewReport(list []books.Book, filter books.Filter) Report {
	filtered := books.Apply(list, filter)
	return Report{
		Filter:     filter,
		Books:      len(filtered),
		Migrations: books.Migrations(filtered),
		Genres:     books.GenreStats(filtered, topGenres),
		Countries:  books.CountryCounts(filtered),
		Histogram:  books.YearHistogram(list, filter.Genre, books.FirstYear, books.LastYear),
	}
}

func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show genre, country and year statistics for the filtered books",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Load(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			list, _, err := env.Books()
			if err != nil {
				return err
			}

			report := NewReport(list, app.FilterFromFlags(cmd))

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			Render(cmd.OutOrStdout(), report)
			return nil
		},
	}

	app.AddFilterFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the report as JSON")

	return cmd
}

// Render writes a plain-text version of report.
func Render(w io.Writer, report Report) {
	fmt.Fprintf(w, "Time span:   %d - %d\n", report.Filter.From, report.Filter.To)
	fmt.Fprintf(w, "Books found: %d\n", report.Books)
	fmt.Fprintf(w, "Published abroad: %d\n", report.Migrations)

	fmt.Fprintln(w, "\nGenre distribution")
	if len(report.Genres) == 0 {
		fmt.Fprintln(w, "  No books in this range")
	}
	for _, g := range report.Genres {
		bar := strings.Repeat("█", int(g.Percentage/5+0.5))
		fmt.Fprintf(w, "  %-12s %5.1f%% %s\n", g.Genre, g.Percentage, bar)
	}

	fmt.Fprintln(w, "\nAuthor countries")
	for _, c := range report.Countries {
		fmt.Fprintf(w, "  %-16s %d\n", c.Country, c.Count)
	}

	fmt.Fprintln(w, "\nBooks per year")
	peak := 0
	for _, bin := range report.Histogram {
		peak = max(peak, bin.Count)
	}
	for _, bin := range report.Histogram {
		marker := " "
		if bin.Year >= report.Filter.From && bin.Year <= report.Filter.To {
			marker = "*"
		}
		fmt.Fprintf(w, " %s%d %s %d\n", marker, bin.Year, strings.Repeat("▇", barWidth(bin.Count, peak)), bin.Count)
	}
}

const maxBarWidth = 50

func barWidth(count, peak int) int {
	if peak <= maxBarWidth {
		return count
	}
	return count * maxBarWidth / peak
}
