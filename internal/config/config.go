package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jespino/bookmap/pkg/coordinator"
	"github.com/jespino/bookmap/pkg/embedding"
	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/projection"
	"github.com/jespino/bookmap/pkg/topics"
)

const FileName = ".bookmap.toml"

// MinTopics is the smallest accepted vocabulary cap. The largest is
// embedding.MaxTopics.
const MinTopics = 60

type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Worker  WorkerConfig  `toml:"worker"`
	Dataset DatasetConfig `toml:"dataset"`
	Log     LogConfig     `toml:"log"`
}

type LayoutConfig struct {
	MaxTopics         int     `toml:"max_topics"`
	Padding           float64 `toml:"padding"`
	TagCacheSize      int     `toml:"tag_cache_size"`
	LearningRate      float64 `toml:"learning_rate"`
	PerplexityDivisor int     `toml:"perplexity_divisor"`
	MinPerplexity     float64 `toml:"min_perplexity"`
	MaxPerplexity     float64 `toml:"max_perplexity"`
	IterationBudget   int     `toml:"iteration_budget"`
	MinIterations     int     `toml:"min_iterations"`
	MaxIterations     int     `toml:"max_iterations"`
}

type WorkerConfig struct {
	UseOffloadedExecution bool   `toml:"use_offloaded_execution"`
	Isolation             string `toml:"isolation"`
}

type DatasetConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	policy := projection.DefaultPolicy()
	return &Config{
		Layout: LayoutConfig{
			MaxTopics:         embedding.MaxTopics,
			Padding:           projection.DefaultPadding,
			TagCacheSize:      topics.DefaultCacheSize,
			LearningRate:      policy.LearningRate,
			PerplexityDivisor: policy.PerplexityDivisor,
			MinPerplexity:     policy.MinPerplexity,
			MaxPerplexity:     policy.MaxPerplexity,
			IterationBudget:   policy.IterationBudget,
			MinIterations:     policy.MinIterations,
			MaxIterations:     policy.MaxIterations,
		},
		Worker: WorkerConfig{
			UseOffloadedExecution: true,
			Isolation:             string(coordinator.ModeGoroutine),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.bookmap.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, FileName), nil
}

// LoadConfig builds the configuration from defaults, the TOML file at path
// (DefaultPath when empty), a .env file in the working directory and
// BOOKMAP_* environment variables, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	// Try to load config file
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BOOKMAP_MAX_TOPICS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BOOKMAP_MAX_TOPICS: %w", err)
		}
		c.Layout.MaxTopics = n
	}
	if v := os.Getenv("BOOKMAP_PADDING"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid BOOKMAP_PADDING: %w", err)
		}
		c.Layout.Padding = f
	}
	if v := os.Getenv("BOOKMAP_USE_OFFLOADED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BOOKMAP_USE_OFFLOADED: %w", err)
		}
		c.Worker.UseOffloadedExecution = b
	}
	if v := os.Getenv("BOOKMAP_WORKER_ISOLATION"); v != "" {
		c.Worker.Isolation = strings.ToLower(v)
	}
	if v := os.Getenv("BOOKMAP_DATASET"); v != "" {
		c.Dataset.Path = v
	}
	if v := os.Getenv("BOOKMAP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BOOKMAP_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	return nil
}

// Validate rejects settings the layout engine cannot work with.
func (c *Config) Validate() error {
	if c.Layout.MaxTopics < MinTopics || c.Layout.MaxTopics > embedding.MaxTopics {
		return fmt.Errorf("layout.max_topics must be in [%d, %d], got %d", MinTopics, embedding.MaxTopics, c.Layout.MaxTopics)
	}
	if c.Layout.Padding < 0 || c.Layout.Padding >= 50 {
		return fmt.Errorf("layout.padding must be in [0, 50), got %g", c.Layout.Padding)
	}
	if c.Layout.LearningRate <= 0 {
		return fmt.Errorf("layout.learning_rate must be positive, got %g", c.Layout.LearningRate)
	}
	if c.Layout.PerplexityDivisor <= 0 {
		return fmt.Errorf("layout.perplexity_divisor must be positive, got %d", c.Layout.PerplexityDivisor)
	}
	if c.Layout.MinPerplexity <= 0 {
		return fmt.Errorf("layout.min_perplexity must be positive, got %g", c.Layout.MinPerplexity)
	}
	if c.Layout.MinPerplexity > c.Layout.MaxPerplexity {
		return fmt.Errorf("layout.min_perplexity (%g) exceeds layout.max_perplexity (%g)", c.Layout.MinPerplexity, c.Layout.MaxPerplexity)
	}
	if c.Layout.IterationBudget <= 0 {
		return fmt.Errorf("layout.iteration_budget must be positive, got %d", c.Layout.IterationBudget)
	}
	if c.Layout.MinIterations <= 0 || c.Layout.MinIterations > c.Layout.MaxIterations {
		return fmt.Errorf("layout iterations must satisfy 0 < min_iterations <= max_iterations, got %d..%d", c.Layout.MinIterations, c.Layout.MaxIterations)
	}
	switch coordinator.Mode(c.Worker.Isolation) {
	case "", coordinator.ModeGoroutine, coordinator.ModeProcess:
	default:
		return fmt.Errorf("worker.isolation must be %q or %q, got %q", coordinator.ModeGoroutine, coordinator.ModeProcess, c.Worker.Isolation)
	}
	return nil
}

// Policy returns the t-SNE hyperparameter policy.
func (c *Config) Policy() projection.Policy {
	return projection.Policy{
		PerplexityDivisor: c.Layout.PerplexityDivisor,
		MinPerplexity:     c.Layout.MinPerplexity,
		MaxPerplexity:     c.Layout.MaxPerplexity,
		IterationBudget:   c.Layout.IterationBudget,
		MinIterations:     c.Layout.MinIterations,
		MaxIterations:     c.Layout.MaxIterations,
		LearningRate:      c.Layout.LearningRate,
	}
}

// LayoutOptions returns the pipeline options.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		MaxTopics:    c.Layout.MaxTopics,
		Padding:      c.Layout.Padding,
		TagCacheSize: c.Layout.TagCacheSize,
		Policy:       c.Policy(),
	}
}

// Isolation returns the configured offloaded isolation mode.
func (c *Config) Isolation() coordinator.Mode {
	if c.Worker.Isolation == "" {
		return coordinator.ModeGoroutine
	}
	return coordinator.Mode(c.Worker.Isolation)
}

// SaveConfig writes config to path, or DefaultPath when path is empty.
func SaveConfig(config *Config, path string) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
