// Package config loads ptree settings from a YAML file, PTREE_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/juanibiapina/ptree/internal/dispatch"
	"github.com/juanibiapina/ptree/internal/process"
	"github.com/juanibiapina/ptree/internal/tree"
)

// ErrInvalidPID is returned by ParsePID for anything that is not a positive
// integer.
var ErrInvalidPID = errors.New("invalid pid")

// Config is the resolved ptree configuration.
type Config struct {
	ProcRoot  string          `mapstructure:"proc_root"`
	Source    string          `mapstructure:"source"`
	MaxHops   int             `mapstructure:"max_hops"`
	Kill      KillConfig      `mapstructure:"kill"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

type KillConfig struct {
	WarnThreshold int `mapstructure:"warn_threshold"`
}

// LogConfig describes the rotating log file. Rotation parameters follow
// lumberjack semantics.
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type MetricsConfig struct {
	// Textfile is written in node_exporter textfile format on exit.
	Textfile string `mapstructure:"textfile"`
}

type TelemetryConfig struct {
	Key      string `mapstructure:"key"`
	Endpoint string `mapstructure:"endpoint"`
}

type TUIConfig struct {
	Refresh time.Duration `mapstructure:"refresh"`
}

// DefaultPath returns $XDG_CONFIG_HOME/ptree/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "ptree", "config.yaml")
}

// SetDefaults registers every key with its default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("proc_root", process.DefaultProcRoot)
	v.SetDefault("source", "procfs")
	v.SetDefault("max_hops", tree.DefaultMaxHops)
	v.SetDefault("kill.warn_threshold", dispatch.DefaultWarnThreshold)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("telemetry.key", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("tui.refresh", time.Second)
}

// Load reads the config file at path into v and returns the merged result.
// An empty path falls back to DefaultPath, and a missing default file is not
// an error. An explicit path that does not exist is.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("PTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	// SetConfigFile bypasses the search path, so a missing file surfaces
	// as a plain fs error.
	return errors.Is(err, fs.ErrNotExist)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MaxHops <= 0 {
		return fmt.Errorf("max_hops must be positive, got %d", c.MaxHops)
	}
	if c.Kill.WarnThreshold < 0 {
		return fmt.Errorf("kill.warn_threshold must not be negative, got %d", c.Kill.WarnThreshold)
	}
	switch c.Source {
	case "procfs", "gopsutil":
	default:
		return fmt.Errorf("unknown source %q (expected procfs or gopsutil)", c.Source)
	}
	if c.TUI.Refresh <= 0 {
		return fmt.Errorf("tui.refresh must be positive, got %s", c.TUI.Refresh)
	}
	return nil
}

// ParsePID parses a command line PID. Only positive integers are accepted.
func ParsePID(s string) (int, error) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPID, s)
	}
	return pid, nil
}
