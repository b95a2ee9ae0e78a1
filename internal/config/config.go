package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML schema. Values are supplied via YAML with env
// expansion; Validate() enforces the few invariants the daemon relies on.
type Config struct {
	Version int     `yaml:"version"`
	General General `yaml:"general"`
	Network Network `yaml:"network"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	Metrics Metrics `yaml:"metrics"`
}

type General struct {
	// DataRoot holds the state database and, unless SettingsPath overrides
	// it, the routing settings file.
	DataRoot     string `yaml:"data_root"`
	DownloadRoot string `yaml:"download_root"`
	SettingsPath string `yaml:"settings_path"`
}

type Network struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type Server struct {
	Listen string `yaml:"listen"` // host:port for the message/event API
}

type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // human|json
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.General.SettingsPath == "" {
		c.General.SettingsPath = filepath.Join(c.General.DataRoot, "settings.yml")
	}
	return &c, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.General.DataRoot, err = expandTilde(c.General.DataRoot); err != nil {
		return err
	}
	if c.General.DownloadRoot, err = expandTilde(c.General.DownloadRoot); err != nil {
		return err
	}
	if c.General.SettingsPath, err = expandTilde(c.General.SettingsPath); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.General.DataRoot == "" {
		return errors.New("general.data_root is required")
	}
	if c.General.DownloadRoot == "" {
		return errors.New("general.download_root is required")
	}
	if c.Network.TimeoutSeconds < 0 {
		return errors.New("network.timeout_seconds must be >= 0")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	if c.Metrics.PrometheusTextfile.Enabled && c.Metrics.PrometheusTextfile.Path == "" {
		return errors.New("metrics.prometheus_textfile.path required when enabled")
	}
	return nil
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// EnsureDir creates path (and parents) when it does not exist yet.
func EnsureDir(path string, perm fs.FileMode) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, perm)
}
