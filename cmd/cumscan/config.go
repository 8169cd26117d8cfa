package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/cumscan/internal/slots"
)

// Config represents the cumscan configuration file (~/.config/cumscan/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	NumVal    *int64  `yaml:"num_val"`
	MaxVal    *int64  `yaml:"max_val"`
	UseAtomic *bool   `yaml:"use_atomic"`
	Seed      *uint64 `yaml:"seed"`

	// Variant names the slot access variant ("atomic" or "plain") and is
	// mutually exclusive with use_atomic.
	Variant string `yaml:"variant"`

	Dispatch string `yaml:"dispatch"`
	Order    string `yaml:"order"`
	Units    *int64 `yaml:"units"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string   `yaml:"server_address"`
	RateLimit     *float64 `yaml:"rate_limit"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cumscan", "config.yaml")
}

// loadConfig reads path, or the default location when path is empty. A
// missing default file yields a zero Config; a missing explicit file is an error.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Variant != "" {
		if cfg.UseAtomic != nil {
			return Config{}, fmt.Errorf("config %s: variant and use_atomic are mutually exclusive", path)
		}
		if _, err := slots.ParseVariant(cfg.Variant); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// applyConfig copies config values into o for every flag not set on the
// command line.
func applyConfig(c *cli.Command, cfg Config, o *options) {
	if cfg.NumVal != nil && !c.IsSet("num_val") {
		o.numVal = *cfg.NumVal
	}
	if cfg.MaxVal != nil && !c.IsSet("max_val") {
		o.maxVal = *cfg.MaxVal
	}
	if cfg.UseAtomic != nil && !c.IsSet("use_atomic") {
		o.useAtomic = *cfg.UseAtomic
	}
	if cfg.Variant != "" && !c.IsSet("use_atomic") {
		v, _ := slots.ParseVariant(cfg.Variant)
		o.useAtomic = v == slots.Atomic
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		o.seed = *cfg.Seed
	}
	if cfg.Dispatch != "" && !c.IsSet("dispatch") {
		o.dispatch = cfg.Dispatch
	}
	if cfg.Order != "" && !c.IsSet("order") {
		o.order = cfg.Order
	}
	if cfg.Units != nil && !c.IsSet("units") {
		o.units = *cfg.Units
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		o.logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		o.logFormat = cfg.LogFormat
	}
}
