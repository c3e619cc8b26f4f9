package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config captures the settings the bookclub client runs with.
type Config struct {
	Address         string
	User            string
	Timeout         time.Duration
	CodecPoolSize   int
	Workers         int
	RefreshInterval time.Duration
	LogFile         string
	MetricsListen   string
}

const (
	defaultConfigPath    = "~/.config/bookclub/config.toml"
	defaultAddress       = "http://localhost:8000/"
	defaultTimeout       = 10 * time.Second
	defaultCodecPoolSize = 10
	defaultWorkers       = 16
	defaultLogFile       = "~/.local/state/bookclub/bookclub.log"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Address:       defaultAddress,
		Timeout:       defaultTimeout,
		CodecPoolSize: defaultCodecPoolSize,
		Workers:       defaultWorkers,
		LogFile:       mustExpand(defaultLogFile),
	}
}

type raw struct {
	Address         string `toml:"address" yaml:"address"`
	User            string `toml:"user" yaml:"user"`
	Timeout         string `toml:"timeout" yaml:"timeout"`
	CodecPoolSize   int    `toml:"codec_pool_size" yaml:"codec_pool_size"`
	Workers         int    `toml:"workers" yaml:"workers"`
	RefreshInterval string `toml:"refresh_interval" yaml:"refresh_interval"`
	LogFile         string `toml:"log_file" yaml:"log_file"`
	MetricsListen   string `toml:"metrics_listen" yaml:"metrics_listen"`
}

// Load locates and parses the config, falling back to defaults when missing.
// Files ending in .yaml or .yml are read as YAML, anything else as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var r raw
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &r)
	default:
		err = toml.Unmarshal(bytes, &r)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(r.Address); v != "" {
		cfg.Address = v
	}
	cfg.User = strings.TrimSpace(r.User)
	if cfg.Timeout, err = parseDuration("timeout", r.Timeout, defaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval, err = parseDuration("refresh_interval", r.RefreshInterval, 0); err != nil {
		return Config{}, err
	}
	if r.CodecPoolSize > 0 {
		cfg.CodecPoolSize = r.CodecPoolSize
	}
	if r.Workers > 0 {
		cfg.Workers = r.Workers
	}
	if v := strings.TrimSpace(r.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.MetricsListen = strings.TrimSpace(r.MetricsListen)

	return cfg, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse config: %s must not be negative", key)
	}
	return d, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading tilde and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
