// Package config provides configuration types, defaults, and
// persistence for diffdeck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/diffdeck/internal/log"
)

// Config holds all configuration options for diffdeck.
type Config struct {
	// WorkDir is the worktree to diff against. Empty means the
	// current directory.
	WorkDir string `mapstructure:"work_dir"`

	// AutoRefresh reloads the uncommitted view when the worktree
	// changes on disk.
	AutoRefresh bool `mapstructure:"auto_refresh"`

	// AutoRefreshDebounce batches rapid file events (milliseconds).
	AutoRefreshDebounce int `mapstructure:"auto_refresh_debounce"`

	UI      UIConfig      `mapstructure:"ui"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Tracing TracingConfig `mapstructure:"tracing"`

	// Flags overrides feature flag defaults by name.
	Flags map[string]bool `mapstructure:"flags"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	// DiffStyle selects the diff layout: "unified" or "split".
	DiffStyle string `mapstructure:"diff_style"`
	// Theme identifies the color theme.
	Theme string `mapstructure:"theme"`
	// ShowStatusBar toggles the footer status bar.
	ShowStatusBar bool `mapstructure:"show_status_bar"`
	// WordDiff enables word-level highlighting inside changed lines.
	WordDiff bool `mapstructure:"word_diff"`

	// Optional hex color overrides. Empty keeps the built-in palette.
	ThemeMuted   string `mapstructure:"theme_muted"`
	ThemeError   string `mapstructure:"theme_error"`
	ThemeSuccess string `mapstructure:"theme_success"`
}

// EngineConfig exposes the diff engine tunables. The defaults are
// product-tuned for UI responsiveness, not correctness requirements,
// so every one of them is overridable.
type EngineConfig struct {
	// AutoCollapseThreshold: diffs with more files than this default
	// every file to collapsed.
	AutoCollapseThreshold int `mapstructure:"auto_collapse_threshold"`
	// ExpandBatchSize: files expanded per scheduler tick during
	// expand-all on large diffs.
	ExpandBatchSize int `mapstructure:"expand_batch_size"`
	// MaxPrefetch bounds how many file contents one prefetch pass
	// will load.
	MaxPrefetch int `mapstructure:"max_prefetch"`
	// FetchTimeoutMS bounds each individual file content fetch.
	FetchTimeoutMS int `mapstructure:"fetch_timeout_ms"`
	// HighlightMS is how long the focus highlight stays visible.
	HighlightMS int `mapstructure:"highlight_ms"`

	// Height estimation (abstract render units).
	CollapsedHeight int `mapstructure:"collapsed_height"`
	HeaderHeight    int `mapstructure:"header_height"`
	PerLineHeight   int `mapstructure:"per_line_height"`
	MinFileHeight   int `mapstructure:"min_file_height"`
	MaxFileHeight   int `mapstructure:"max_file_height"`
	// Overscan is the extra margin rendered above and below the
	// viewport, in the same units.
	Overscan int `mapstructure:"overscan"`
}

// FetchTimeout returns the per-file fetch timeout as a duration.
func (e EngineConfig) FetchTimeout() time.Duration {
	return time.Duration(e.FetchTimeoutMS) * time.Millisecond
}

// HighlightDuration returns the focus highlight lifetime as a duration.
func (e EngineConfig) HighlightDuration() time.Duration {
	return time.Duration(e.HighlightMS) * time.Millisecond
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "none", "file", "stdout", "otlp"
	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		AutoRefresh:         true,
		AutoRefreshDebounce: 1000,
		UI: UIConfig{
			DiffStyle:     "unified",
			Theme:         "default",
			ShowStatusBar: true,
			WordDiff:      true,
		},
		Engine: EngineConfig{
			AutoCollapseThreshold: 10,
			ExpandBatchSize:       5,
			MaxPrefetch:           20,
			FetchTimeoutMS:        5000,
			HighlightMS:           1500,
			CollapsedHeight:       40,
			HeaderHeight:          40,
			PerLineHeight:         18,
			MinFileHeight:         150,
			MaxFileHeight:         800,
			Overscan:              400,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks invariants the engine depends on.
func (c Config) Validate() error {
	if c.UI.DiffStyle != "unified" && c.UI.DiffStyle != "split" {
		return fmt.Errorf("ui.diff_style must be \"unified\" or \"split\", got %q", c.UI.DiffStyle)
	}
	e := c.Engine
	if e.AutoCollapseThreshold < 0 {
		return fmt.Errorf("engine.auto_collapse_threshold must be >= 0")
	}
	if e.ExpandBatchSize < 1 {
		return fmt.Errorf("engine.expand_batch_size must be >= 1")
	}
	if e.MaxPrefetch < 0 {
		return fmt.Errorf("engine.max_prefetch must be >= 0")
	}
	if e.MinFileHeight > e.MaxFileHeight {
		return fmt.Errorf("engine.min_file_height exceeds engine.max_file_height")
	}
	return nil
}

// DefaultConfigTemplate is the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# diffdeck configuration

# Reload the uncommitted view when the worktree changes on disk.
auto_refresh: true
# Debounce for file events, in milliseconds.
auto_refresh_debounce: 1000

ui:
  # "unified" or "split"
  diff_style: unified
  theme: default
  show_status_bar: true
  # Word-level highlighting inside changed lines.
  word_diff: true
  # Optional hex color overrides, e.g. "#696969".
  # theme_muted: ""
  # theme_error: ""
  # theme_success: ""

engine:
  # Diffs with more files than this start fully collapsed.
  auto_collapse_threshold: 10
  # Files expanded per tick during expand-all on large diffs.
  expand_batch_size: 5
  # How many file contents one prefetch pass loads.
  max_prefetch: 20
  # Per-file content fetch timeout, in milliseconds.
  fetch_timeout_ms: 5000
  # Focus highlight lifetime, in milliseconds.
  highlight_ms: 1500

tracing:
  enabled: false
  # "none", "file", "stdout" or "otlp"
  exporter: file
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Feature flag overrides, e.g.:
# flags:
#   mouse-selection: false
`
}

// WriteDefaultConfig creates a config file at the given path with
// default settings and comments.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
