package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/internal/app"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/coordinator"
)

func ShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive line shell over the topic map",
		Long: `Start an interactive shell. Every filter change submits a new layout
request; results are announced as soon as they are committed.`,
		RunE: runShell,
	}

	app.AddFilterFlags(cmd)
	app.AddModeFlag(cmd)

	return cmd
}

func runShell(cmd *cobra.Command, args []string) error {
	env, err := app.Load(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

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

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".bookmap_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bookmap> ",
		HistoryFile:     historyFile,
		AutoComplete:    newCompleter(list),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	session := NewSession(list, app.FilterFromFlags(cmd), coord, pipeline, out)
	fmt.Fprintf(out, "Loaded %d books from %s. Type help for commands.\n", len(list), path)

	ctx := cmd.Context()
	go announceUpdates(coord, out)
	session.announce()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := session.Exec(ctx, line)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		if quit {
			return nil
		}
	}
}

// announceUpdates prints a line whenever a layout is committed. It returns
// when the process exits.
func announceUpdates(coord *coordinator.Coordinator, out io.Writer) {
	for state := range coord.Updates() {
		if state.Computing {
			continue
		}
		fmt.Fprintf(out, "layout #%d ready: %d books placed\n", state.RequestID, len(state.Coords))
	}
}

func newCompleter(list []books.Book) *readline.PrefixCompleter {
	var genres []readline.PrefixCompleterInterface
	for _, genre := range books.Genres(list) {
		genres = append(genres, readline.PcItem(genre))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("years"),
		readline.PcItem("genre", genres...),
		readline.PcItem("country"),
		readline.PcItem("genres"),
		readline.PcItem("status"),
		readline.PcItem("wait"),
		readline.PcItem("show"),
		readline.PcItem("near"),
		readline.PcItem("similar"),
		readline.PcItem("stats"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}
