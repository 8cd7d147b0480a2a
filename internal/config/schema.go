package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int               `yaml:"version" toml:"version"`
	Language string            `yaml:"language" toml:"language"`
	Server   ServerConfig      `yaml:"server" toml:"server"`
	Database DatabaseConfig    `yaml:"database" toml:"database"`
	API      APIConfig         `yaml:"api" toml:"api"`
	Floors   map[string]string `yaml:"floors" toml:"floors"`
	Viewport ViewportConfig    `yaml:"viewport" toml:"viewport"`
	Path     PathConfig        `yaml:"path" toml:"path"`
	Hover    HoverConfig       `yaml:"hover" toml:"hover"`
	Scenes   ScenesConfig      `yaml:"scenes" toml:"scenes"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
	// AssetDir is the local root that floor image paths resolve against
	AssetDir string `yaml:"asset_dir" toml:"asset_dir"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// APIConfig points clients (place, view, render) at a running server
type APIConfig struct {
	BaseURL string   `yaml:"base_url" toml:"base_url"`
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// ViewportConfig tunes zoom limits and camera animation
type ViewportConfig struct {
	ScaleMin        float64 `yaml:"scale_min" toml:"scale_min"`
	ScaleMax        float64 `yaml:"scale_max" toml:"scale_max"`
	FocusPadding    float64 `yaml:"focus_padding" toml:"focus_padding"`
	FocusMultiplier float64 `yaml:"focus_multiplier" toml:"focus_multiplier"`
	FocusScaleMin   float64 `yaml:"focus_scale_min" toml:"focus_scale_min"`
	FocusScaleMax   float64 `yaml:"focus_scale_max" toml:"focus_scale_max"`
	AnimationMS     int     `yaml:"animation_ms" toml:"animation_ms"`
	FitMargin       float64 `yaml:"fit_margin" toml:"fit_margin"`
}

// PathConfig controls how long a visualized path stays on screen:
// StepMS per step plus TailMS
type PathConfig struct {
	StepMS int `yaml:"step_ms" toml:"step_ms"`
	TailMS int `yaml:"tail_ms" toml:"tail_ms"`
}

// HoverConfig controls pointer hover detection
type HoverConfig struct {
	Radius     float64 `yaml:"radius" toml:"radius"`
	DebounceMS int     `yaml:"debounce_ms" toml:"debounce_ms"`
}

// ScenesConfig locates the scene catalogue imported at startup
type ScenesConfig struct {
	File  string `yaml:"file" toml:"file"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

// Duration wraps time.Duration so it reads as "10s" in YAML and TOML
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML)
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler (used by TOML)
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
