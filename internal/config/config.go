// Package config provides configuration loading for logcourse.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default record counts, matching the volumes shipped with the course.
const (
	DefaultDays        = 30
	DefaultAccessCount = 131645
	DefaultAuditCount  = 44097
	DefaultSecureCount = 63884
	DefaultWorkers     = 1
	maxWorkers         = 256
)

// Config contains all logcourse configuration settings.
type Config struct {
	// Generation controls dataset synthesis.
	Generation GenerationConfig `json:"generation" yaml:"generation"`

	// Validation controls the course validator.
	Validation ValidationConfig `json:"validation" yaml:"validation"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Metrics contains settings for the generation metrics export.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// GenerationConfig configures a generation run.
type GenerationConfig struct {
	// Days is the width of the sampling window ending now. Zero pins every
	// timestamp to the run instant.
	Days int `json:"days" yaml:"days"`

	// OutputDir receives the datasets and the .logcourse state directory.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Seed makes a run reproducible. Zero derives a seed from the clock.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Workers is the number of goroutines synthesizing each dataset.
	Workers int `json:"workers" yaml:"workers"`

	// Compress writes gzip-encoded datasets with a .gz suffix.
	Compress bool `json:"compress" yaml:"compress"`

	// CatalogPath points at a products.csv replacing the embedded catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`

	// WriteCatalog copies the catalog into OutputDir when it is absent there.
	WriteCatalog bool `json:"write_catalog" yaml:"write_catalog"`

	// Counts is the number of records per dataset.
	Counts CountsConfig `json:"counts" yaml:"counts"`
}

// CountsConfig holds per-dataset record counts.
type CountsConfig struct {
	Access int `json:"access" yaml:"access"`
	Audit  int `json:"audit" yaml:"audit"`
	Secure int `json:"secure" yaml:"secure"`
}

// ValidationConfig configures the course validator.
type ValidationConfig struct {
	// CourseRoot is the directory holding labs/, presentations/ and scripts/.
	CourseRoot string `json:"course_root" yaml:"course_root"`

	// RequiredDataFiles overrides the files expected under labs/data.
	// Empty uses the validator's built-in list.
	RequiredDataFiles []string `json:"required_data_files,omitempty" yaml:"required_data_files,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" and "trace" also append events to .logcourse/events.jsonl.
	Level string `json:"level" yaml:"level"`
}

// MetricsConfig configures the metrics export.
type MetricsConfig struct {
	// Textfile is a path for a node-exporter textfile. Empty disables export.
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// Default returns a Config with the course defaults.
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			Days:      DefaultDays,
			OutputDir: ".",
			Workers:   DefaultWorkers,
			Counts: CountsConfig{
				Access: DefaultAccessCount,
				Audit:  DefaultAuditCount,
				Secure: DefaultSecureCount,
			},
		},
		Validation: ValidationConfig{
			CourseRoot: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.logcourse/config.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".logcourse", "config.yaml")
}

// Load loads configuration from the default location and environment variables.
// Order: defaults -> ~/.logcourse/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	if path := DefaultPath(); path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			fileConfig, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadWithFile is Load with an explicit file in place of the default one.
// The file must exist.
func LoadWithFile(path string) (*Config, error) {
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Fields the
// file omits keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Generation.OutputDir = expandEnvVars(config.Generation.OutputDir)
	config.Generation.CatalogPath = expandEnvVars(config.Generation.CatalogPath)
	config.Validation.CourseRoot = expandEnvVars(config.Validation.CourseRoot)
	config.Metrics.Textfile = expandEnvVars(config.Metrics.Textfile)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	g := c.Generation
	if g.Days < 0 {
		return fmt.Errorf("days must be non-negative, got %d", g.Days)
	}
	if g.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if g.Workers < 1 || g.Workers > maxWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", maxWorkers, g.Workers)
	}
	for name, n := range map[string]int{"access": g.Counts.Access, "audit": g.Counts.Audit, "secure": g.Counts.Secure} {
		if n < 0 {
			return fmt.Errorf("counts.%s must be non-negative, got %d", name, n)
		}
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies LOGCOURSE_* environment variables to the config.
// Malformed numbers are reported rather than ignored.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("LOGCOURSE_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOGCOURSE_DAYS: %w", err)
		}
		config.Generation.Days = n
	}

	if v := os.Getenv("LOGCOURSE_OUTPUT_DIR"); v != "" {
		config.Generation.OutputDir = v
	}

	if v := os.Getenv("LOGCOURSE_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LOGCOURSE_SEED: %w", err)
		}
		config.Generation.Seed = n
	}

	if v := os.Getenv("LOGCOURSE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOGCOURSE_WORKERS: %w", err)
		}
		config.Generation.Workers = n
	}

	if v := os.Getenv("LOGCOURSE_COURSE_ROOT"); v != "" {
		config.Validation.CourseRoot = v
	}

	if v := os.Getenv("LOGCOURSE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("LOGCOURSE_METRICS_FILE"); v != "" {
		config.Metrics.Textfile = v
	}

	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
