package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/internal/config"
)

func ConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Configure bookmap settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			return runConfig(cmd.InOrStdin(), cmd.OutOrStdout(), path)
		},
	}
}

func runConfig(in io.Reader, out io.Writer, path string) error {
	reader := bufio.NewReader(in)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(out, "Ignoring invalid configuration: %v\n", err)
		cfg = config.Default()
	}

	fmt.Fprintln(out, "\nDataset")
	fmt.Fprintln(out, "=======")
	fmt.Fprintln(out, "Leave empty to look for books.json in the working directory and its parents.")
	cfg.Dataset.Path = prompt(reader, out, "Dataset path", cfg.Dataset.Path)

	fmt.Fprintln(out, "\nLayout computation")
	fmt.Fprintln(out, "==================")
	fmt.Fprintln(out, "Offloaded execution keeps the interface responsive and cancels superseded layouts.")
	fmt.Fprintln(out, "Isolation is either goroutine (same process) or process (a bookmap worker child).")
	offloaded := prompt(reader, out, "Use offloaded execution (y/n)", yesNo(cfg.Worker.UseOffloadedExecution))
	cfg.Worker.UseOffloadedExecution = strings.HasPrefix(strings.ToLower(offloaded), "y")
	if cfg.Worker.UseOffloadedExecution {
		cfg.Worker.Isolation = strings.ToLower(prompt(reader, out, "Isolation", string(cfg.Isolation())))
	}

	if n, err := strconv.Atoi(prompt(reader, out, "Max topics", strconv.Itoa(cfg.Layout.MaxTopics))); err == nil {
		cfg.Layout.MaxTopics = n
	}
	if f, err := strconv.ParseFloat(prompt(reader, out, "Padding", strconv.FormatFloat(cfg.Layout.Padding, 'g', -1, 64)), 64); err == nil {
		cfg.Layout.Padding = f
	}

	fmt.Fprintln(out, "\nLogging")
	fmt.Fprintln(out, "=======")
	cfg.Log.Level = prompt(reader, out, "Log level", cfg.Log.Level)
	cfg.Log.File = prompt(reader, out, "Log file (empty for stderr)", cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nConfiguration saved.")
	return nil
}

// prompt asks for a value, keeping current when the answer is empty.
func prompt(reader *bufio.Reader, out io.Writer, label, current string) string {
	fmt.Fprintf(out, "%s [%s]: ", label, current)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return current
	}
	return answer
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
