package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"morphsplit/internal/adapter/codec"
	"morphsplit/internal/domain"
	"morphsplit/internal/logging"
)

// FileName is the config file looked up in the working directory.
const FileName = "morphsplit.yaml"

// DefaultSnapshot is the snapshot file used when no path is given.
const DefaultSnapshot = "segmenter.snapshot"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MORPHSPLIT_"

// Config holds all configuration for morphsplit.
type Config struct {
	Resources ResourcesConfig `yaml:"resources"`
	Formats   FormatsConfig   `yaml:"formats"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Logging   LoggingConfig   `yaml:"logging"`
	Progress  bool            `yaml:"progress"`
	// SegmentCache is the number of distinct tokens whose segmentation is
	// memoized during a run. 0, the default, sends every sentence to the
	// model.
	SegmentCache int `yaml:"segment_cache"`
}

// ResourcesConfig holds the lexical resource paths.
type ResourcesConfig struct {
	Derinet  string `yaml:"derinet"`  // base dictionary, required
	Morfflex string `yaml:"morfflex"` // enrichment dictionary
	Analyzer string `yaml:"analyzer"`
}

// FormatsConfig holds the input and output format names.
type FormatsConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// SnapshotConfig holds model snapshot configuration.
type SnapshotConfig struct {
	Save       string `yaml:"save"`
	Load       string `yaml:"load"`
	CheckFresh bool   `yaml:"check_fresh"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Formats: FormatsConfig{
			From: codec.FormatSPL,
			To:   codec.FormatVBPE,
		},
		Snapshot: SnapshotConfig{
			Save: DefaultSnapshot,
			Load: DefaultSnapshot,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for morphsplit.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return DefaultConfig(), nil
}

// LoadDotEnv loads a .env file into the process environment. Variables
// that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from MORPHSPLIT_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DERINET":       &c.Resources.Derinet,
		"MORFFLEX":      &c.Resources.Morfflex,
		"ANALYZER":      &c.Resources.Analyzer,
		"FROM":          &c.Formats.From,
		"TO":            &c.Formats.To,
		"SAVE_SNAPSHOT": &c.Snapshot.Save,
		"LOAD_SNAPSHOT": &c.Snapshot.Load,
		"LOG_LEVEL":     &c.Logging.Level,
		"LOG_FORMAT":    &c.Logging.Format,
	}
	for name, field := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*field = v
		}
	}

	bools := map[string]*bool{
		"CHECK_FRESH": &c.Snapshot.CheckFresh,
		"PROGRESS":    &c.Progress,
	}
	for name, field := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigError{Field: EnvPrefix + name, Message: fmt.Sprintf("expected a boolean, got %q", v)}
		}
		*field = b
	}

	if v, ok := lookup(EnvPrefix + "SEGMENT_CACHE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Field: EnvPrefix + "SEGMENT_CACHE", Message: fmt.Sprintf("expected an integer, got %q", v)}
		}
		c.SegmentCache = n
	}
	return nil
}

// Validate checks the configuration before any resource is opened.
func (c *Config) Validate() error {
	formats := codec.Names()
	for field, name := range map[string]string{"from": c.Formats.From, "to": c.Formats.To} {
		if !slices.Contains(formats, name) {
			return &domain.ConfigError{
				Field:   field,
				Message: fmt.Sprintf("unsupported format %q (available: %s)", name, strings.Join(formats, ", ")),
			}
		}
	}
	if c.Resources.Derinet == "" {
		return &domain.ConfigError{Field: "base dictionary", Message: "path is required"}
	}
	if c.Snapshot.Save == "" || c.Snapshot.Load == "" {
		return &domain.ConfigError{Field: "snapshot", Message: "save and load paths must not be empty"}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &domain.ConfigError{Field: "log level", Message: err.Error()}
	}
	if c.SegmentCache < 0 {
		return &domain.ConfigError{Field: "segment_cache", Message: "must not be negative"}
	}
	switch c.Logging.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return &domain.ConfigError{Field: "log format", Message: fmt.Sprintf("unsupported log format %q", c.Logging.Format)}
	}
	return nil
}

// Refs returns the resource references for the model cache.
func (c *Config) Refs() domain.ResourceRefs {
	return domain.ResourceRefs{
		Base:       c.Resources.Derinet,
		Enrichment: c.Resources.Morfflex,
		Analyzer:   c.Resources.Analyzer,
	}
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
