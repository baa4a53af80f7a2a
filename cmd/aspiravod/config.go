package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/download"
	"github.com/simulot/aspiravod/mylog"
)

// envPrefix of environment variables, ex: ASPIRAVOD_TARGET
const envPrefix = "ASPIRAVOD"

// Config holds settings from configuration file, environment and command line
type Config struct {
	Provider     string       `toml:"provider" yaml:"provider" envconfig:"PROVIDER"`
	Target       string       `toml:"target" yaml:"target" envconfig:"TARGET"`             // Download directory
	Transcoder   string       `toml:"transcoder" yaml:"transcoder" envconfig:"TRANSCODER"` // ffmpeg or avconv path
	LogLevel     string       `toml:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFile      string       `toml:"log_file" yaml:"log_file" envconfig:"LOG_FILE"`
	WrapWidth    int          `toml:"wrap_width" yaml:"wrap_width" envconfig:"WRAP_WIDTH"`
	Headless     bool         `toml:"headless" yaml:"headless" envconfig:"HEADLESS"` // No progress bars
	RequestRate  float64      `toml:"request_rate" yaml:"request_rate" envconfig:"REQUEST_RATE"`
	RequestBurst int          `toml:"request_burst" yaml:"request_burst" envconfig:"REQUEST_BURST"`
	StallTimeout textDuration `toml:"stall_timeout" yaml:"stall_timeout" envconfig:"STALL_TIMEOUT"`
	MaxTasks     int          `toml:"max_tasks" yaml:"max_tasks" envconfig:"MAX_TASKS"` // Concurrent downloads
}

// Handle Duration as string in configuration files
type textDuration time.Duration

func (t textDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(t).String()), nil
}

func (t *textDuration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*t = textDuration(v)
	return nil
}

func (t *textDuration) UnmarshalYAML(n *yaml.Node) error {
	return t.UnmarshalText([]byte(n.Value))
}

// defaultConfig is used when no configuration is given
func defaultConfig() Config {
	return Config{
		Provider:     "canalplus",
		Target:       "~/Downloads",
		Transcoder:   download.DefaultTool,
		LogLevel:     "ERROR",
		WrapWidth:    catalog.DefaultWrapWidth,
		RequestRate:  3,
		RequestBurst: 5,
		StallTimeout: textDuration(60 * time.Second),
		MaxTasks:     2,
	}
}

// defaultConfigFile is $XDG_CONFIG_HOME/aspiravod/config.toml
func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "aspiravod", "config.toml")
}

// LoadConfig reads the configuration file and applies the environment.
// When path is empty, the default file is read if it exists.
func LoadConfig(path string) (Config, error) {
	c := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile()
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeConfig(path, b, &c); err != nil {
				return c, err
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return c, fmt.Errorf("can't read configuration file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return c, fmt.Errorf("can't process environment: %w", err)
	}
	return c, nil
}

func decodeConfig(path string, b []byte, c *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		err = toml.Unmarshal(b, c)
	}
	if err != nil {
		return fmt.Errorf("can't decode configuration file %s: %w", path, err)
	}
	return nil
}

// Check the configuration and expand paths
func (c *Config) Check() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if !slices.Contains(catalog.Names(), c.Provider) {
		return fmt.Errorf("unknown provider %q, available: %s", c.Provider, strings.Join(catalog.Names(), ", "))
	}
	if _, err := mylog.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.WrapWidth <= 0 {
		c.WrapWidth = catalog.DefaultWrapWidth
	}
	if c.RequestRate <= 0 {
		return fmt.Errorf("request rate must be positive, got %g", c.RequestRate)
	}
	if c.RequestBurst < 1 {
		return fmt.Errorf("request burst must be at least 1, got %d", c.RequestBurst)
	}
	if c.StallTimeout < 0 {
		return fmt.Errorf("stall timeout can't be negative")
	}
	if c.MaxTasks < 1 {
		c.MaxTasks = 1
	}
	if c.Transcoder == "" {
		c.Transcoder = download.DefaultTool
	}

	var err error
	if c.Target, err = download.PathClean(c.Target); err != nil {
		return err
	}
	if c.LogFile != "" {
		if c.LogFile, err = download.PathClean(c.LogFile); err != nil {
			return err
		}
	}
	if strings.ContainsRune(c.Transcoder, os.PathSeparator) {
		if c.Transcoder, err = download.PathClean(c.Transcoder); err != nil {
			return err
		}
	}
	return nil
}
