package similar

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/internal/app"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/neighbors"
)

func SimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <book-id>",
		Short: "List the books whose topics are closest to a given book",
		Long: `Find the books whose topic vectors are nearest to the given book.

Vectors are built over the vocabulary of the filtered set, so the answer
depends on the active filters just like the map does.`,
		Args: cobra.ExactArgs(1),
		RunE: runSimilar,
	}

	app.AddFilterFlags(cmd)
	cmd.Flags().IntP("limit", "k", 5, "Number of books to show")

	return cmd
}

func runSimilar(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid book id %q: %w", args[0], err)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	env, err := app.Load(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	list, _, err := env.Books()
	if err != nil {
		return err
	}
	filtered := books.Apply(list, app.FilterFromFlags(cmd))

	byID := books.ByID(filtered)
	target, ok := byID[id]
	if !ok {
		return fmt.Errorf("book %d is not in the filtered set", id)
	}

	ids, topics := Nearest(env.Pipeline(), books.Items(filtered), id, limit)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Books similar to %q (%s)\n", target.Title, target.Topics)
	fmt.Fprintf(out, "Vocabulary: %s\n\n", strings.Join(topics, ", "))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tYEAR\tGENRE\tTITLE\tTOPICS")
	for _, other := range ids {
		b := byID[other]
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", b.ID, b.Year, b.Genre, b.Title, b.Topics)
	}
	return w.Flush()
}

// Nearest vectorizes items and returns up to limit ids closest to id
// together with the batch vocabulary.
func Nearest(pipeline *layout.Pipeline, items []layout.Item, id, limit int) ([]int, []string) {
	vocab, vectors := pipeline.Vectorize(items)
	idx := neighbors.FromVectors(layout.IDs(items), vectors)
	return idx.Similar(id, limit), vocab.Words()
}
