package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amonks/prereq/internal/config"
	"github.com/amonks/prereq/internal/testsupport"
)

func TestLoad_NotFound(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDir := filepath.Join(homeDir, ".local", "share", "prereq")
	if cfg.Store.Dir != wantDir {
		t.Errorf("Store.Dir = %q, expected %q", cfg.Store.Dir, wantDir)
	}
	if cfg.Prefs.Backend != config.BackendFile {
		t.Errorf("Prefs.Backend = %q, expected %q", cfg.Prefs.Backend, config.BackendFile)
	}
	if cfg.Prefs.Path != filepath.Join(wantDir, "prefs.json") {
		t.Errorf("Prefs.Path = %q", cfg.Prefs.Path)
	}
	if cfg.Links.Scheme != "omnifocus:///task/" {
		t.Errorf("Links.Scheme = %q", cfg.Links.Scheme)
	}
	if cfg.Sweep.Schedule != "@every 15m" {
		t.Errorf("Sweep.Schedule = %q", cfg.Sweep.Schedule)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_Full(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	configContent := `
[store]
dir = "data"

[prefs]
backend = "SQLite"

[links]
scheme = "things:///show?id="

[sweep]
schedule = "*/5 * * * *"

[log]
level = "debug"
`

	if err := os.WriteFile(filepath.Join(tmpDir, "prereq.toml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Store.Dir != filepath.Join(tmpDir, "data") {
		t.Errorf("Store.Dir = %q, expected relative to project", cfg.Store.Dir)
	}
	if cfg.Prefs.Backend != config.BackendSQLite {
		t.Errorf("Prefs.Backend = %q, expected sqlite", cfg.Prefs.Backend)
	}
	if cfg.Prefs.Path != filepath.Join(tmpDir, "data", "prefs.db") {
		t.Errorf("Prefs.Path = %q", cfg.Prefs.Path)
	}
	if cfg.Links.Scheme != "things:///show?id=" {
		t.Errorf("Links.Scheme = %q", cfg.Links.Scheme)
	}
	if cfg.Sweep.Schedule != "*/5 * * * *" {
		t.Errorf("Sweep.Schedule = %q", cfg.Sweep.Schedule)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	globalDir := filepath.Join(homeDir, ".config", "prereq")
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatalf("create global config dir: %v", err)
	}
	globalContent := `
[links]
scheme = "global:///"

[log]
level = "info"
`
	if err := os.WriteFile(filepath.Join(globalDir, "config.toml"), []byte(globalContent), 0644); err != nil {
		t.Fatalf("write global config: %v", err)
	}

	projectContent := `
[links]
scheme = "project:///"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "prereq.toml"), []byte(projectContent), 0644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Links.Scheme != "project:///" {
		t.Errorf("Links.Scheme = %q, expected project value", cfg.Links.Scheme)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, expected global value", cfg.Log.Level)
	}
}

func TestLoad_StoreDirEnvOverride(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()
	override := filepath.Join(tmpDir, "override")
	t.Setenv(config.StoreDirEnvVar, override)

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store.Dir != override {
		t.Fatalf("Store.Dir = %q, expected %q", cfg.Store.Dir, override)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "prereq.toml"), []byte("[prefs]\nbackend = \"redis\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := config.Load(tmpDir)
	if err == nil {
		t.Fatal("expected error for invalid backend")
	}
	if !strings.Contains(err.Error(), "invalid prefs backend") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "prereq.toml"), []byte("[links\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := config.Load(tmpDir); err == nil {
		t.Fatal("expected parse error")
	}
}
