// Package config loads wayfinder settings.
//
// Config file locations (priority order):
//  1. $WAYFINDER_CONFIG
//  2. ./wayfinder.yaml
//  3. ./wayfinder.toml
//  4. $XDG_CONFIG_HOME/wayfinder/config.yaml
//  5. ~/.config/wayfinder/config.yaml
//  6. /etc/wayfinder/config.yaml
//
// Files ending in .toml are read as TOML, everything else as YAML.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/minimap"
	"wayfinder/internal/viewport"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path, as TOML or YAML by extension
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Language == "" {
		c.Language = domain.DefaultLanguage
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.AssetDir == "" {
		c.Server.AssetDir = "./assets"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./wayfinder.db"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = Duration(10 * time.Second)
	}
	if len(c.Floors) == 0 {
		c.Floors = floor.DefaultFloors()
	}

	vp := viewport.DefaultOptions()
	if c.Viewport.ScaleMin == 0 {
		c.Viewport.ScaleMin = vp.ScaleMin
	}
	if c.Viewport.ScaleMax == 0 {
		c.Viewport.ScaleMax = vp.ScaleMax
	}
	if c.Viewport.FocusPadding == 0 {
		c.Viewport.FocusPadding = vp.FocusPadding
	}
	if c.Viewport.FocusMultiplier == 0 {
		c.Viewport.FocusMultiplier = vp.FocusMultiplier
	}
	if c.Viewport.FocusScaleMin == 0 {
		c.Viewport.FocusScaleMin = vp.FocusScaleMin
	}
	if c.Viewport.FocusScaleMax == 0 {
		c.Viewport.FocusScaleMax = vp.FocusScaleMax
	}
	if c.Viewport.AnimationMS == 0 {
		c.Viewport.AnimationMS = int(vp.Duration / time.Millisecond)
	}
	if c.Viewport.FitMargin == 0 {
		c.Viewport.FitMargin = vp.FitMargin
	}

	mm := minimap.DefaultOptions()
	if c.Path.StepMS == 0 {
		c.Path.StepMS = int(mm.PathStep / time.Millisecond)
	}
	if c.Path.TailMS == 0 {
		c.Path.TailMS = int(mm.PathTail / time.Millisecond)
	}
	if c.Hover.Radius == 0 {
		c.Hover.Radius = mm.HoverRadius
	}
	if c.Hover.DebounceMS == 0 {
		c.Hover.DebounceMS = int(mm.HoverDebounce / time.Millisecond)
	}
}

// FloorSet returns the configured floor images
func (c *Config) FloorSet() floor.Floors {
	return floor.Floors(c.Floors)
}

// ViewportOptions converts the viewport section
func (c *Config) ViewportOptions() viewport.Options {
	opts := viewport.DefaultOptions()
	opts.ScaleMin = c.Viewport.ScaleMin
	opts.ScaleMax = c.Viewport.ScaleMax
	opts.FocusPadding = c.Viewport.FocusPadding
	opts.FocusMultiplier = c.Viewport.FocusMultiplier
	opts.FocusScaleMin = c.Viewport.FocusScaleMin
	opts.FocusScaleMax = c.Viewport.FocusScaleMax
	opts.Duration = time.Duration(c.Viewport.AnimationMS) * time.Millisecond
	opts.FitMargin = c.Viewport.FitMargin
	return opts
}

// MinimapOptions converts the config into controller options
func (c *Config) MinimapOptions() minimap.Options {
	opts := minimap.DefaultOptions()
	opts.Viewport = c.ViewportOptions()
	opts.HoverRadius = c.Hover.Radius
	opts.HoverDebounce = time.Duration(c.Hover.DebounceMS) * time.Millisecond
	opts.PathStep = time.Duration(c.Path.StepMS) * time.Millisecond
	opts.PathTail = time.Duration(c.Path.TailMS) * time.Millisecond
	opts.Language = c.Language
	return opts
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Server: %s, Database: %s, Language: %s\n", c.Server.Addr, c.Database.Path, c.Language)
	summary += fmt.Sprintf("Floors: %s\n", strings.Join(c.FloorSet().Keys(), ", "))
	if c.Scenes.File != "" {
		summary += fmt.Sprintf("Scenes: %s (watch: %v)", c.Scenes.File, c.Scenes.Watch)
	} else {
		summary += "Scenes: none"
	}
	return summary
}
