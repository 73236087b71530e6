package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// Config holds the datasplit configuration.
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Split    SplitConfig    `yaml:"split"`
	Manifest ManifestConfig `yaml:"manifest"`
	Publish  PublishConfig  `yaml:"publish"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatasetConfig holds the input and output layout.
type DatasetConfig struct {
	ImagesDir string `yaml:"images_dir"`
	LabelsDir string `yaml:"labels_dir"`
	OutputDir string `yaml:"output_dir"`
	ImageExt  string `yaml:"image_ext"`
	LabelExt  string `yaml:"label_ext"`
}

// SplitConfig holds the allocation settings.
type SplitConfig struct {
	Seed        int64   `yaml:"seed"` // default 42 when the key is absent; 0 is a valid seed
	Train       float64 `yaml:"train"`
	Val         float64 `yaml:"val"`
	Test        float64 `yaml:"test"`
	MergePolicy string  `yaml:"merge_policy"` // split-order (default) | primary-class
}

// ManifestConfig holds the optional assignment export.
type ManifestConfig struct {
	Path   string `yaml:"path"`   // empty = disabled
	Format string `yaml:"format"` // parquet | yaml (default: from extension, else parquet)
}

// PublishConfig holds the optional split registry connection.
type PublishConfig struct {
	Driver           string   `yaml:"driver"` // "" (disabled), redis, valkey
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	RunID            string   `yaml:"run_id"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Addr     string `yaml:"addr"`     // e.g. ":9090"; empty = no server
	Textfile string `yaml:"textfile"` // node_exporter textfile path; empty = disabled
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

const defaultSeed = 42

// Default returns the configuration used when no file is present.
func Default() Config {
	c := Config{Split: SplitConfig{Seed: defaultSeed}}
	c.ApplyDefaults()
	return c
}

// Load reads configuration from an explicit path, or from config/<env>.yaml when path is empty.
// A missing env file yields defaults; a missing explicit path is an error.
func Load(env, path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = findConfigPath(env)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	// Seed has no zero sentinel; an absent key keeps the default.
	cfg := Config{Split: SplitConfig{Seed: defaultSeed}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
// Ratios default to 0.70/0.15/0.15 only when all three are unset.
// Seed is left alone: zero is a legitimate seed, so its default comes from Default and Load.
func (c *Config) ApplyDefaults() {
	if c.Dataset.ImagesDir == "" {
		c.Dataset.ImagesDir = "images"
	}
	if c.Dataset.LabelsDir == "" {
		c.Dataset.LabelsDir = "labels"
	}
	if c.Dataset.OutputDir == "" {
		c.Dataset.OutputDir = "dataset_split"
	}
	if c.Dataset.ImageExt == "" {
		c.Dataset.ImageExt = ".jpg"
	}
	if c.Dataset.LabelExt == "" {
		c.Dataset.LabelExt = ".txt"
	}
	if c.Split.Train == 0 && c.Split.Val == 0 && c.Split.Test == 0 {
		c.Split.Train, c.Split.Val, c.Split.Test = 0.70, 0.15, 0.15
	}
	if c.Split.MergePolicy == "" {
		c.Split.MergePolicy = "split-order"
	}
	if c.Manifest.Path != "" && c.Manifest.Format == "" {
		c.Manifest.Format = formatFromPath(c.Manifest.Path)
	}
	if c.Publish.Driver != "" && c.Publish.KeyPrefix == "" {
		c.Publish.KeyPrefix = "datasplit:"
	}
	if c.Publish.ReadinessTimeout <= 0 {
		c.Publish.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Dataset.ImageExt, ".") {
		return fmt.Errorf("dataset.image_ext must start with a dot, got %q", c.Dataset.ImageExt)
	}
	if !strings.HasPrefix(c.Dataset.LabelExt, ".") {
		return fmt.Errorf("dataset.label_ext must start with a dot, got %q", c.Dataset.LabelExt)
	}
	if c.Dataset.ImageExt == c.Dataset.LabelExt {
		return fmt.Errorf("dataset.image_ext and dataset.label_ext must differ, both are %q", c.Dataset.ImageExt)
	}
	if err := c.Ratios().Validate(); err != nil {
		return fmt.Errorf("split: %w", err)
	}
	switch c.Split.MergePolicy {
	case "split-order", "primary-class":
		// ok
	default:
		return fmt.Errorf(
			"split.merge_policy must be \"split-order\" or \"primary-class\", got %q", c.Split.MergePolicy,
		)
	}
	if c.Manifest.Path != "" {
		switch c.Manifest.Format {
		case "parquet", "yaml":
			// ok
		default:
			return fmt.Errorf("manifest.format must be \"parquet\" or \"yaml\", got %q", c.Manifest.Format)
		}
	}
	switch c.Publish.Driver {
	case "":
		// disabled
	case "redis", "valkey":
		if len(c.Publish.Addrs) == 0 {
			return fmt.Errorf("publish.addrs is required for driver %q", c.Publish.Driver)
		}
	default:
		return fmt.Errorf("publish.driver must be \"redis\" or \"valkey\", got %q", c.Publish.Driver)
	}
	return nil
}

// Ratios returns the configured split ratios.
func (c *Config) Ratios() domsplit.Ratios {
	return domsplit.Ratios{Train: c.Split.Train, Val: c.Split.Val, Test: c.Split.Test}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "parquet"
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
