package explore

import (
	"bytes"
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/cmd/shell"
	"github.com/jespino/bookmap/internal/app"
	"github.com/jespino/bookmap/pkg/books"
)

func ExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore the topic map in a terminal UI",
		Long: `Open a full-screen explorer showing the topic map of the filtered books,
the number of books per year and genre statistics. Changing the filter
recomputes the map in the background; the previous map stays visible
until the new one is ready.`,
		RunE: runExplore,
	}

	app.AddFilterFlags(cmd)
	app.AddModeFlag(cmd)
	cmd.Flags().Bool("watch", false, "Reload the dataset when it changes on disk")

	return cmd
}

func runExplore(cmd *cobra.Command, args []string) error {
	env, err := app.Load(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	// Console logs would draw over the UI.
	if env.Config.Log.File == "" {
		env.Config.Log.Level = zerolog.Disabled.String()
		env.Logger = zerolog.Nop()
	}

	list, path, err := env.Books()
	if err != nil {
		return err
	}

	mode, _ := cmd.Flags().GetString("mode")
	pipeline := env.Pipeline()
	coord, err := env.Coordinator(pipeline, mode)
	if err != nil {
		return err
	}
	defer coord.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var out bytes.Buffer
	session := shell.NewSession(list, app.FilterFromFlags(cmd), coord, pipeline, &out)
	session.Submit()

	p := tea.NewProgram(
		newModel(ctx, session, coord, &out),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		go func() {
			err := books.Watch(ctx, path, books.DefaultDebounce, env.Logger, func(list []books.Book) {
				p.Send(booksMsg(list))
			})
			if err != nil {
				env.Logger.Error().Err(err).Msg("dataset watcher stopped")
			}
		}()
	}

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
