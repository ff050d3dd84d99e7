package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/internal/app"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/coordinator"
	"github.com/jespino/bookmap/pkg/projection"
)

type output struct {
	RequestID coordinator.RequestID  `json:"request"`
	Mode      coordinator.Mode       `json:"mode"`
	Books     int                    `json:"books"`
	Coords    projection.Coordinates `json:"coords"`
}

func LayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute the topic map of the filtered books",
		Long: `Compute 2-D coordinates for the books matching the filters.

Coordinates are percentages in [padding, 100-padding] on both axes, keyed by
book id. Fewer than three matching books produce an empty map.`,
		RunE: runLayout,
	}

	app.AddFilterFlags(cmd)
	app.AddModeFlag(cmd)
	cmd.Flags().String("format", "json", "Output format: json or table")

	return cmd
}

func runLayout(cmd *cobra.Command, args []string) error {
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

	mode, _ := cmd.Flags().GetString("mode")
	pipeline := env.Pipeline()
	coord, err := env.Coordinator(pipeline, mode)
	if err != nil {
		return err
	}
	defer coord.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	coord.Submit(books.Items(filtered))
	state, err := coord.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted")
		}
		return err
	}

	stats := pipeline.Parser().Stats()
	env.Logger.Debug().
		Int("cache_size", stats.Size).
		Float64("cache_hit_rate", pipeline.Parser().HitRate()).
		Msg("tag parser cache")

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(output{
			RequestID: state.RequestID,
			Mode:      coord.Mode(),
			Books:     len(filtered),
			Coords:    state.Coords,
		})
	case "table":
		byID := books.ByID(filtered)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tX\tY\tGENRE\tTITLE")
		for _, id := range state.Coords.IDs() {
			p := state.Coords[id]
			b := byID[id]
			fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%s\t%s\n", id, p[0], p[1], b.Genre, b.Title)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
