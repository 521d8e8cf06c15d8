package canvasconfig

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("SPEEDYNOTE_BUNDLE_DIR", tmpDir)
	t.Setenv("HOME", tmpDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BundleDir != tmpDir {
		t.Errorf("expected BundleDir = %s, got %s", tmpDir, cfg.BundleDir)
	}
	if cfg.RenderDPI != 192 {
		t.Errorf("expected RenderDPI = 192, got %d", cfg.RenderDPI)
	}
	if cfg.CacheCapacity != 6 {
		t.Errorf("expected CacheCapacity = 6, got %d", cfg.CacheCapacity)
	}
	if cfg.PrefetchDebounce != time.Second {
		t.Errorf("expected PrefetchDebounce = 1s, got %s", cfg.PrefetchDebounce)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel = info, got %s", cfg.LogLevel)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("SPEEDYNOTE_BUNDLE_DIR", tmpDir)
	t.Setenv("SPEEDYNOTE_RENDER_DPI", "300")
	t.Setenv("SPEEDYNOTE_CACHE_CAPACITY", "10")
	t.Setenv("SPEEDYNOTE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RenderDPI != 300 {
		t.Errorf("expected RenderDPI = 300, got %d", cfg.RenderDPI)
	}
	if cfg.CacheCapacity != 10 {
		t.Errorf("expected CacheCapacity = 10, got %d", cfg.CacheCapacity)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel = debug, got %s", cfg.LogLevel)
	}
}

func TestValidate_InvalidRenderDPI(t *testing.T) {
	cfg := &Config{
		BundleDir:        t.TempDir(),
		RenderDPI:        10,
		CacheCapacity:    6,
		PrefetchDebounce: time.Second,
		LogLevel:         "info",
		Inertia:          InertiaConfig{Friction: 0.92},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range render-dpi")
	}
}

func TestValidate_InvalidCacheCapacity(t *testing.T) {
	cfg := &Config{
		BundleDir:        t.TempDir(),
		RenderDPI:        192,
		CacheCapacity:    0,
		PrefetchDebounce: time.Second,
		LogLevel:         "info",
		Inertia:          InertiaConfig{Friction: 0.92},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero cache-capacity")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		BundleDir:        t.TempDir(),
		RenderDPI:        192,
		CacheCapacity:    6,
		PrefetchDebounce: time.Second,
		LogLevel:         "verbose",
		Inertia:          InertiaConfig{Friction: 0.92},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid log-level")
	}
}

func TestValidate_ExpandsHomeDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfg := &Config{
		BundleDir:        filepath.Join("~", "speedynote-test"),
		RenderDPI:        192,
		CacheCapacity:    6,
		PrefetchDebounce: time.Second,
		LogLevel:         "info",
		Inertia:          InertiaConfig{Friction: 0.92},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := filepath.Join(tmpDir, "speedynote-test")
	if cfg.BundleDir != want {
		t.Errorf("expected BundleDir = %s, got %s", want, cfg.BundleDir)
	}
}
