package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for filtertools.
type Config struct {
	File            *File
	Path            string
	Listen          string
	Target          string
	AdminAddr       string
	LogDir          string
	ShutdownTimeout time.Duration
}

// Load reads a pipeline YAML file and produces a runtime Config.
func Load(path string) (*Config, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return fromFile(f, path)
}

// LoadBytes parses YAML data and produces a runtime Config.
func LoadBytes(data []byte) (*Config, error) {
	f, err := LoadFileBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return fromFile(f, "")
}

func fromFile(f *File, path string) (*Config, error) {
	cfg := &Config{
		File:   f,
		Path:   path,
		Target: f.Settings.Target,
	}

	cfg.Listen = f.Settings.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}

	cfg.AdminAddr = f.Settings.AdminAddr
	if cfg.AdminAddr == "" {
		cfg.AdminAddr = DefaultAdminAddr
	}

	cfg.LogDir = f.Settings.LogDir
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir()
	}
	cfg.LogDir = expandHome(cfg.LogDir)

	if f.Settings.ShutdownTimeout != "" {
		d, err := time.ParseDuration(f.Settings.ShutdownTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid shutdown_timeout %q: %w", f.Settings.ShutdownTimeout, err)
		}
		cfg.ShutdownTimeout = d
	} else {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	// rego_file paths are relative to the pipeline file
	if path != "" {
		base := filepath.Dir(path)
		for i := range f.Filters {
			if m := f.Filters[i].When; m != nil && m.RegoFile != "" && !filepath.IsAbs(m.RegoFile) {
				m.RegoFile = filepath.Join(base, m.RegoFile)
			}
		}
	}

	return cfg, nil
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// MarshalYAML serializes the pipeline for display/export.
func (c *Config) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(c.File)
}
