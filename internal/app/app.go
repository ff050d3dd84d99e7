// Package app wires configuration, logging, the dataset and the layout
// coordinator together for the commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/internal/config"
	"github.com/jespino/bookmap/internal/logging"
	"github.com/jespino/bookmap/pkg/books"
	"github.com/jespino/bookmap/pkg/coordinator"
	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/utils"
)

// Env is the per-invocation state shared by commands.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Logger     zerolog.Logger
	closer     io.Closer
}

// Load reads the root persistent flags, the configuration and sets up the
// logger.
func Load(cmd *cobra.Command) (*Env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if dataset, _ := cmd.Flags().GetString("dataset"); dataset != "" {
		cfg.Dataset.Path = dataset
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	logger, closer, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	return &Env{Config: cfg, ConfigPath: configPath, Logger: logger, closer: closer}, nil
}

func (e *Env) Close() error {
	return e.closer.Close()
}

// DatasetPath resolves the dataset from the configuration or by discovery.
func (e *Env) DatasetPath() (string, error) {
	return utils.FindDataset(e.Config.Dataset.Path)
}

// Books loads the dataset.
func (e *Env) Books() ([]books.Book, string, error) {
	path, err := e.DatasetPath()
	if err != nil {
		return nil, "", err
	}
	list, err := books.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	e.Logger.Debug().Str("path", path).Int("books", len(list)).Msg("dataset loaded")
	return list, path, nil
}

// Pipeline builds the layout pipeline from the configuration.
func (e *Env) Pipeline() *layout.Pipeline {
	return layout.NewPipeline(e.Config.LayoutOptions(), e.Logger)
}

// Coordinator builds a coordinator around pipeline. mode overrides the
// configured execution mode when not empty.
func (e *Env) Coordinator(pipeline *layout.Pipeline, mode string) (*coordinator.Coordinator, error) {
	opts := coordinator.ExecutorOptions{
		UseOffloaded: e.Config.Worker.UseOffloadedExecution,
		Isolation:    e.Config.Isolation(),
		Computer:     pipeline,
		Command:      e.workerCommand,
		Logger:       e.Logger,
	}

	switch coordinator.Mode(mode) {
	case "":
	case coordinator.ModeInline:
		opts.UseOffloaded = false
	case coordinator.ModeGoroutine, coordinator.ModeProcess:
		opts.UseOffloaded = true
		opts.Isolation = coordinator.Mode(mode)
	default:
		return nil, fmt.Errorf("unknown mode %q (want goroutine, process or inline)", mode)
	}

	executor, err := coordinator.NewExecutor(opts)
	if err != nil {
		return nil, err
	}
	return coordinator.New(executor, e.Logger), nil
}

// workerCommand starts `bookmap worker` with the same configuration file
// and log level as the parent.
func (e *Env) workerCommand(ctx context.Context) *exec.Cmd {
	cmd := coordinator.SelfCommand(ctx)
	if e.ConfigPath != "" {
		cmd.Args = append(cmd.Args, "--config", e.ConfigPath)
	}
	cmd.Args = append(cmd.Args, "--log-level", e.Config.Log.Level)
	return cmd
}

// AddFilterFlags registers the dataset filter flags on cmd.
func AddFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("from", books.DefaultFrom, "First publication year (inclusive)")
	cmd.Flags().Int("to", books.DefaultTo, "Last publication year (inclusive)")
	cmd.Flags().String("genre", "", "Only books of this genre")
	cmd.Flags().String("country", "", "Only books by authors from this country")
}

// FilterFromFlags reads the flags registered by AddFilterFlags.
func FilterFromFlags(cmd *cobra.Command) books.Filter {
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	genre, _ := cmd.Flags().GetString("genre")
	country, _ := cmd.Flags().GetString("country")
	return books.Filter{From: from, To: to, Genre: genre, Country: country}
}

// AddModeFlag registers --mode on cmd.
func AddModeFlag(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Execution mode override: goroutine, process or inline")
}
