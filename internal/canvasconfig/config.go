// Package canvasconfig provides configuration management for the canvas engine.
package canvasconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the canvas engine.
// Configuration precedence: CLI flags > environment variables > config file > defaults.
type Config struct {
	// BundleDir is the default directory new bundles are created under.
	BundleDir string

	// RenderDPI is the default PDF render resolution (independent of display DPI).
	RenderDPI int

	// CacheCapacity is K, the max entries held by each of the PDF and note LRU caches.
	CacheCapacity int

	// PrefetchDebounce is how long the page cache waits after a page change
	// before kicking off adjacent-page prefetch.
	PrefetchDebounce time.Duration

	// DefaultThickness holds the persisted per-tool stroke thickness.
	DefaultThickness ToolThickness

	// Inertia holds the touch-pan inertia tuning parameters.
	Inertia InertiaConfig

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string

	// LogFormat controls logging output (console, json).
	LogFormat string
}

// ToolThickness holds the default persisted thickness for each stroke tool.
type ToolThickness struct {
	Pen    float64
	Marker float64
	Eraser float64
}

// InertiaConfig holds touch-pan inertia tuning parameters (§4.G).
type InertiaConfig struct {
	// MinVelocity is the minimum |v| (canvas-units/ms) required to start inertia.
	MinVelocity float64

	// StopVelocity is the |v| below which inertia stops.
	StopVelocity float64

	// Friction is the per-tick velocity decay factor.
	Friction float64

	// TickRate is how often the inertia timer fires.
	TickRate time.Duration
}

// Load reads configuration from multiple sources and returns a Config instance.
// Sources are checked in this order: env vars > config file > defaults. Load
// reads no CLI flags; the CLI overlays its flags after Load returns.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(".speedynote")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK - we'll use env vars and defaults.
	}

	v.SetEnvPrefix("SPEEDYNOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	config := &Config{
		BundleDir:     v.GetString("bundle-dir"),
		RenderDPI:     v.GetInt("render-dpi"),
		CacheCapacity: v.GetInt("cache-capacity"),
		PrefetchDebounce: v.GetDuration("prefetch-debounce"),
		DefaultThickness: ToolThickness{
			Pen:    v.GetFloat64("thickness-pen"),
			Marker: v.GetFloat64("thickness-marker"),
			Eraser: v.GetFloat64("thickness-eraser"),
		},
		Inertia: InertiaConfig{
			MinVelocity:  v.GetFloat64("inertia-min-velocity"),
			StopVelocity: v.GetFloat64("inertia-stop-velocity"),
			Friction:     v.GetFloat64("inertia-friction"),
			TickRate:     v.GetDuration("inertia-tick-rate"),
		},
		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("bundle-dir", filepath.Join(home, "speedynote"))
	v.SetDefault("render-dpi", 192)
	v.SetDefault("cache-capacity", 6)
	v.SetDefault("prefetch-debounce", 1*time.Second)

	v.SetDefault("thickness-pen", 4.0)
	v.SetDefault("thickness-marker", 12.0)
	v.SetDefault("thickness-eraser", 20.0)

	v.SetDefault("inertia-min-velocity", 0.1)
	v.SetDefault("inertia-stop-velocity", 0.05)
	v.SetDefault("inertia-friction", 0.92)
	v.SetDefault("inertia-tick-rate", time.Second/60)

	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
}

// Validate checks that the configuration is valid and internally consistent.
func (c *Config) Validate() error {
	if c.BundleDir == "" {
		return fmt.Errorf("bundle-dir cannot be empty")
	}

	if strings.HasPrefix(c.BundleDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to expand home directory in bundle-dir: %w", err)
		}
		c.BundleDir = filepath.Join(home, c.BundleDir[2:])
	}

	if err := os.MkdirAll(c.BundleDir, 0755); err != nil {
		return fmt.Errorf("failed to create bundle directory %s: %w", c.BundleDir, err)
	}

	if c.RenderDPI < 72 || c.RenderDPI > 600 {
		return fmt.Errorf("render-dpi must be between 72 and 600, got %d", c.RenderDPI)
	}

	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache-capacity must be at least 1, got %d", c.CacheCapacity)
	}

	if c.PrefetchDebounce <= 0 {
		return fmt.Errorf("prefetch-debounce must be positive, got %s", c.PrefetchDebounce)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log-level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	if c.Inertia.Friction <= 0 || c.Inertia.Friction >= 1 {
		return fmt.Errorf("inertia-friction must be in (0, 1), got %f", c.Inertia.Friction)
	}

	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  BundleDir: %s
  RenderDPI: %d
  CacheCapacity: %d
  PrefetchDebounce: %s
  DefaultThickness: pen=%.1f marker=%.1f eraser=%.1f
  Inertia: minV=%.2f stopV=%.2f friction=%.2f tick=%s
  LogLevel: %s
  LogFormat: %s`,
		c.BundleDir,
		c.RenderDPI,
		c.CacheCapacity,
		c.PrefetchDebounce,
		c.DefaultThickness.Pen, c.DefaultThickness.Marker, c.DefaultThickness.Eraser,
		c.Inertia.MinVelocity, c.Inertia.StopVelocity, c.Inertia.Friction, c.Inertia.TickRate,
		c.LogLevel,
		c.LogFormat,
	)
}
