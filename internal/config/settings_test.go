package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Supervisor.GlobalMaxConcurrent != 5 {
		t.Fatalf("expected default global max concurrent 5, got %d", cfg.Supervisor.GlobalMaxConcurrent)
	}
	if cfg.Budget.DefaultMaxConcurrent != 3 {
		t.Fatalf("expected default budget max concurrent 3, got %d", cfg.Budget.DefaultMaxConcurrent)
	}
	if cfg.ClaudePath != "claude" {
		t.Fatalf("expected default claude path, got %q", cfg.ClaudePath)
	}
}

func TestLoad_DefaultEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	base := `
budget:
  default_max_concurrent: 4
supervisor:
  global_max_concurrent: 6
`
	overlay := `
supervisor:
  global_max_concurrent: 9
`
	basePath := writeConfig(t, dir, "config.yaml", base)
	_ = writeConfig(t, dir, "config.development.yaml", overlay)

	cfg, err := Load(basePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Supervisor.GlobalMaxConcurrent != 9 {
		t.Fatalf("expected overlay global max concurrent 9, got %d", cfg.Supervisor.GlobalMaxConcurrent)
	}
}

func TestLoad_ProjectDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	basePath := writeConfig(t, dir, "config.yaml", "budget:\n  default_max_concurrent: 2\n")

	t.Setenv("PROJECT_DIR", "/var/swarmcore")
	t.Setenv("CLAUDE_PATH", "/usr/local/bin/claude")

	cfg, err := Load(basePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ProjectDir != "/var/swarmcore" {
		t.Fatalf("expected PROJECT_DIR override, got %q", cfg.ProjectDir)
	}
	if cfg.ClaudePath != "/usr/local/bin/claude" {
		t.Fatalf("expected CLAUDE_PATH override, got %q", cfg.ClaudePath)
	}
	if got, want := cfg.DataDir(), filepath.Join("/var/swarmcore", "data"); got != want {
		t.Fatalf("DataDir() = %q, want %q", got, want)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	basePath := writeConfig(t, dir, "config.yaml", "supervisor:\n  global_max_concurrent: 0\n")

	_, err := Load(basePath)
	if err == nil {
		t.Fatal("expected validation error")
	}
}
