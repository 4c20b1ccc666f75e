package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_ADDR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8787" || cfg.MirrorBackend != "sqlite" || !cfg.PerUserScope {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "containers.yaml")
	contents := []byte("addr: \":9000\"\nmirror_backend: redis\nclaim_scope: group\nper_user_scope: false\ntimezone: UTC\n")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("API_ADDR", ":9100")
	t.Setenv("KEY_MODE", "generated")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("expected env to override file addr, got %q", cfg.Addr)
	}
	if cfg.MirrorBackend != "redis" || cfg.ClaimScope != "group" || cfg.PerUserScope {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.KeyMode != "generated" {
		t.Fatalf("expected KEY_MODE override, got %q", cfg.KeyMode)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("Location() = %v, %v", loc, err)
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.KeyMode != "container" {
		t.Fatalf("unexpected key mode %q", cfg.KeyMode)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cases := map[string]func(*Config){
		"mirror":   func(c *Config) { c.MirrorBackend = "localstorage" },
		"key mode": func(c *Config) { c.KeyMode = "uuid" },
		"claim":    func(c *Config) { c.ClaimScope = "team" },
		"secret":   func(c *Config) { c.TokenSecret = " " },
		"timezone": func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestGetenvBoolFallsBackOnGarbage(t *testing.T) {
	t.Setenv("PER_USER_SCOPE", "sometimes")
	if !getenvBool("PER_USER_SCOPE", true) {
		t.Fatal("expected fallback for unparseable bool")
	}
}
