package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emunsing/webscenarios/internal/settings"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workspace != "scenarios.json" {
		t.Errorf("expected Workspace=scenarios.json, got %s", cfg.Workspace)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected Level=info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("expected Format=console, got %s", cfg.Log.Format)
	}
	if cfg.Defaults.Design != settings.DefaultDesign() {
		t.Errorf("expected default design, got %+v", cfg.Defaults.Design)
	}
	if cfg.Run.Parallelism != 4 {
		t.Errorf("expected Parallelism=4, got %d", cfg.Run.Parallelism)
	}
	if cfg.Run.CacheSize != 256 {
		t.Errorf("expected CacheSize=256, got %d", cfg.Run.CacheSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workspace != DefaultConfig().Workspace {
		t.Errorf("expected default workspace, got %s", cfg.Workspace)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	data := []byte("workspace: demo/ws.json\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workspace != "demo/ws.json" {
		t.Errorf("expected Workspace=demo/ws.json, got %s", cfg.Workspace)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("expected Format to keep default console, got %s", cfg.Log.Format)
	}
	if cfg.Run.Parallelism != 4 {
		t.Errorf("expected Parallelism to keep default 4, got %d", cfg.Run.Parallelism)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	if err := os.WriteFile(path, []byte("workspace: [unclosed"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCENARIOS_WORKSPACE", "/tmp/override.json")
	t.Setenv("SCENARIOS_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workspace != "/tmp/override.json" {
		t.Errorf("expected env workspace override, got %s", cfg.Workspace)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected env level override, got %s", cfg.Log.Level)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scenarios.yaml")

	cfg := DefaultConfig()
	cfg.Workspace = "alt.json"
	cfg.Defaults.Design.X = 3.5
	cfg.Watch.DebounceMS = 250

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Workspace != "alt.json" {
		t.Errorf("expected Workspace=alt.json, got %s", loaded.Workspace)
	}
	if loaded.Defaults.Design.X != 3.5 {
		t.Errorf("expected Design.X=3.5, got %v", loaded.Defaults.Design.X)
	}
	if loaded.GetDebounce() != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", loaded.GetDebounce())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty workspace", func(c *Config) { c.Workspace = "" }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"zero parallelism", func(c *Config) { c.Run.Parallelism = 0 }, true},
		{"negative cache", func(c *Config) { c.Run.CacheSize = -1 }, true},
		{"zero debounce", func(c *Config) { c.Watch.DebounceMS = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected nil, got %v", err)
			}
		})
	}
}

func TestDefaultInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.Design.X = 7

	in := cfg.DefaultInput()
	if in.Design.X == nil || *in.Design.X != 7 {
		t.Errorf("expected Design.X=7, got %v", in.Design.X)
	}
	if in.Financial.Years == nil || *in.Financial.Years != settings.DefaultYears {
		t.Errorf("expected default years, got %v", in.Financial.Years)
	}
}

func TestGetDebounce_FallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watch.DebounceMS = 0
	if got := cfg.GetDebounce(); got != 500*time.Millisecond {
		t.Errorf("expected 500ms fallback, got %v", got)
	}
}
