package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/cmd/config"
	"github.com/jespino/bookmap/cmd/explore"
	"github.com/jespino/bookmap/cmd/layout"
	"github.com/jespino/bookmap/cmd/shell"
	"github.com/jespino/bookmap/cmd/similar"
	"github.com/jespino/bookmap/cmd/stats"
	"github.com/jespino/bookmap/cmd/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bookmap",
		Short:         "Bookmap - Topic maps of book collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Configuration file (default ~/.bookmap.toml)")
	rootCmd.PersistentFlags().String("dataset", "", "Books JSON file (default: discover books.json)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error, disabled)")

	rootCmd.AddCommand(
		explore.ExploreCmd(),
		shell.ShellCmd(),
		layout.LayoutCmd(),
		similar.SimilarCmd(),
		stats.StatsCmd(),
		config.ConfigCmd(),
		worker.WorkerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
