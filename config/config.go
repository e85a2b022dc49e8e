// Package config builds a nest.Directory from a YAML file or the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/xraph/go-utils/log"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/xraph/nest"
	"github.com/xraph/nest/diagram"
	"github.com/xraph/nest/instrument"
)

// Config is the typed configuration of a scope directory.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Diagrams DiagramsConfig `yaml:"diagrams"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // development | production | none
}

// DiagramsConfig controls the dependency diagram observers.
type DiagramsConfig struct {
	OutputDir string `yaml:"output_dir"`
	Title     string `yaml:"title"`
	Console   bool   `yaml:"console"`
}

// MetricsConfig controls the Prometheus observer.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when nothing is set: no logging,
// no diagrams and no metrics.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "none",
		},
		Diagrams: DiagramsConfig{
			Title: "Dependencies",
		},
		Metrics: MetricsConfig{
			Namespace: "nest",
		},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// FromEnv loads the given .env files (".env" when none are named) and builds
// a Config from NEST_* environment variables on top of Default. Files that do
// not exist are skipped; any other read or parse failure is returned.
func FromEnv(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	cfg := Default()

	return &Config{
		Log: LogConfig{
			Level:  env("NEST_LOG_LEVEL", cfg.Log.Level),
			Format: env("NEST_LOG_FORMAT", cfg.Log.Format),
		},
		Diagrams: DiagramsConfig{
			OutputDir: env("NEST_DIAGRAMS_DIR", cfg.Diagrams.OutputDir),
			Title:     env("NEST_DIAGRAMS_TITLE", cfg.Diagrams.Title),
			Console:   envBool("NEST_DIAGRAMS_CONSOLE", cfg.Diagrams.Console),
		},
		Metrics: MetricsConfig{
			Enabled:   envBool("NEST_METRICS_ENABLED", cfg.Metrics.Enabled),
			Namespace: env("NEST_METRICS_NAMESPACE", cfg.Metrics.Namespace),
		},
	}, nil
}

// Logger builds the logger selected by the log section.
func (c *Config) Logger() (log.Logger, error) {
	switch c.Log.Format {
	case "", "none":
		return log.NewNoopLogger(), nil
	case "production":
		return log.NewProductionLogger(), nil
	case "development":
		level, err := zapcore.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
		}

		return log.NewDevelopmentLoggerWithLevel(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
}

// Setup is what Options wired up, for callers that want to serve diagrams or
// metrics.
type Setup struct {
	Options []nest.Option
	Mermaid *diagram.Mermaid
	Metrics *instrument.Metrics
}

// Options turns the configuration into directory options.
func (c *Config) Options() (*Setup, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	setup := &Setup{Options: []nest.Option{nest.WithLogger(logger)}}

	if c.Diagrams.OutputDir != "" {
		setup.Mermaid = diagram.NewMermaid(c.Diagrams.Title,
			diagram.WithOutputDir(c.Diagrams.OutputDir),
			diagram.WithLogger(logger),
		)
		setup.Options = append(setup.Options, nest.WithObserver(setup.Mermaid))
	}

	if c.Diagrams.Console {
		setup.Options = append(setup.Options, nest.WithObserver(diagram.NewConsole(os.Stderr)))
	}

	if c.Metrics.Enabled {
		setup.Metrics = instrument.New(c.Metrics.Namespace)
		setup.Options = append(setup.Options, nest.WithObserver(setup.Metrics))
	}

	return setup, nil
}

// NewDirectory creates a directory configured by c plus any extra options.
func NewDirectory(c *Config, extra ...nest.Option) (*nest.Directory, *Setup, error) {
	setup, err := c.Options()
	if err != nil {
		return nil, nil, err
	}

	opts := append(setup.Options, extra...)

	return nest.NewDirectory(opts...), setup, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}

	return b
}
