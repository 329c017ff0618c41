// Package config provides configuration management for ClipForge.
//
// Values are resolved in order: built-in defaults, an optional YAML file
// named by CLIPFORGE_CONFIG, an optional .env file, then CLIPFORGE_*
// environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort               = 8797
	DefaultLogLevel           = "info"
	DefaultDataDir            = ".clipforge"
	DefaultFFprobePath        = "ffprobe"
	DefaultProbeTimeout       = 30 * time.Second
	DefaultProbeCacheSize     = 512
	DefaultProbeCacheTTL      = 10 * time.Minute
	DefaultSaveDebounce       = 400 * time.Millisecond
	DefaultResolveConcurrency = 4
	DefaultEnvFile            = ".env"

	// Environment variable names
	EnvConfigFile         = "CLIPFORGE_CONFIG"
	EnvEnvFile            = "CLIPFORGE_ENV_FILE"
	EnvPort               = "CLIPFORGE_PORT"
	EnvLogLevel           = "CLIPFORGE_LOG_LEVEL"
	EnvDataDir            = "CLIPFORGE_DATA_DIR"
	EnvFFprobePath        = "CLIPFORGE_FFPROBE_PATH"
	EnvProbeTimeout       = "CLIPFORGE_PROBE_TIMEOUT"
	EnvProbeCacheSize     = "CLIPFORGE_PROBE_CACHE_SIZE"
	EnvProbeCacheTTL      = "CLIPFORGE_PROBE_CACHE_TTL"
	EnvSaveDebounce       = "CLIPFORGE_SAVE_DEBOUNCE"
	EnvResolveConcurrency = "CLIPFORGE_RESOLVE_CONCURRENCY"
	EnvWatchMedia         = "CLIPFORGE_WATCH_MEDIA"

	// Database filename
	DBFilename = "clipforge.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	ExportsDir() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	ProbeCacheSize() int
	ProbeCacheTTL() time.Duration
	SaveDebounce() time.Duration
	ResolveConcurrency() int
	WatchMedia() bool
}

// settings is the YAML shape and the unit of validation.
type settings struct {
	Port               int           `yaml:"port" validate:"min=1,max=65535"`
	LogLevel           string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	DataDir            string        `yaml:"data_dir" validate:"required"`
	FFprobePath        string        `yaml:"ffprobe_path" validate:"required"`
	ProbeTimeout       time.Duration `yaml:"probe_timeout" validate:"gt=0"`
	ProbeCacheSize     int           `yaml:"probe_cache_size" validate:"min=1"`
	ProbeCacheTTL      time.Duration `yaml:"probe_cache_ttl" validate:"gt=0"`
	SaveDebounce       time.Duration `yaml:"save_debounce" validate:"gt=0"`
	ResolveConcurrency int           `yaml:"resolve_concurrency" validate:"min=1,max=64"`
	WatchMedia         bool          `yaml:"watch_media"`
}

// EnvConfig is the resolved configuration.
type EnvConfig struct {
	s settings
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates a new EnvConfig with defaults, file and environment overrides
func New() (*EnvConfig, error) {
	s := settings{
		Port:               DefaultPort,
		LogLevel:           DefaultLogLevel,
		DataDir:            defaultDataDir(),
		FFprobePath:        DefaultFFprobePath,
		ProbeTimeout:       DefaultProbeTimeout,
		ProbeCacheSize:     DefaultProbeCacheSize,
		ProbeCacheTTL:      DefaultProbeCacheTTL,
		SaveDebounce:       DefaultSaveDebounce,
		ResolveConcurrency: DefaultResolveConcurrency,
		WatchMedia:         true,
	}

	dotenv, err := readEnvFile()
	if err != nil {
		return nil, err
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}

	if path := lookup(EnvConfigFile); path != "" {
		if err := loadFile(path, &s); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&s, lookup); err != nil {
		return nil, err
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &EnvConfig{s: s}, nil
}

// readEnvFile reads CLIPFORGE_ENV_FILE (default .env) without touching the
// process environment. A missing file is not an error.
func readEnvFile() (map[string]string, error) {
	path := os.Getenv(EnvEnvFile)
	if path == "" {
		path = DefaultEnvFile
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vals, nil
}

func loadFile(path string, s *settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(s *settings, lookup func(string) string) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvPort, &s.Port},
		{EnvProbeCacheSize, &s.ProbeCacheSize},
		{EnvResolveConcurrency, &s.ResolveConcurrency},
	}
	for _, f := range ints {
		if v := lookup(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvProbeTimeout, &s.ProbeTimeout},
		{EnvProbeCacheTTL, &s.ProbeCacheTTL},
		{EnvSaveDebounce, &s.SaveDebounce},
	}
	for _, f := range durations {
		if v := lookup(f.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", f.key, err)
			}
			*f.dst = d
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvLogLevel, &s.LogLevel},
		{EnvDataDir, &s.DataDir},
		{EnvFFprobePath, &s.FFprobePath},
	}
	for _, f := range strs {
		if v := lookup(f.key); v != "" {
			*f.dst = v
		}
	}

	if v := lookup(EnvWatchMedia); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWatchMedia, err)
		}
		s.WatchMedia = b
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.s.Port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.s.LogLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.s.DataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.s.DataDir, DBFilename)
}

// MediaDir is where imported media is copied.
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.s.DataDir, "media")
}

func (c *EnvConfig) ExportsDir() string {
	return filepath.Join(c.s.DataDir, "exports")
}

func (c *EnvConfig) FFprobePath() string {
	return c.s.FFprobePath
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return c.s.ProbeTimeout
}

func (c *EnvConfig) ProbeCacheSize() int {
	return c.s.ProbeCacheSize
}

func (c *EnvConfig) ProbeCacheTTL() time.Duration {
	return c.s.ProbeCacheTTL
}

// SaveDebounce is the quiet period before an edited project is written.
func (c *EnvConfig) SaveDebounce() time.Duration {
	return c.s.SaveDebounce
}

func (c *EnvConfig) ResolveConcurrency() int {
	return c.s.ResolveConcurrency
}

// WatchMedia reports whether the media directory is watched for changes.
func (c *EnvConfig) WatchMedia() bool {
	return c.s.WatchMedia
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
