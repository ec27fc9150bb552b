package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jorge-barreto/ipes/internal/attachment"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "release: 210\nbackup:\n  dir: snapshots\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Release != 210 {
		t.Fatalf("Release = %d", cfg.Release)
	}
	if cfg.Compression != -1 {
		t.Fatalf("Compression = %d, want -1", cfg.Compression)
	}
	if cfg.Backup.Keep != 5 {
		t.Fatalf("Backup.Keep = %d, want 5", cfg.Backup.Keep)
	}
	if cfg.Backup.Dir != filepath.Join(dir, "snapshots") {
		t.Fatalf("Backup.Dir = %q", cfg.Backup.Dir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "release: [\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IPES_STORAGE", "external")
	t.Setenv("IPES_LOG_LEVEL", "debug")
	path := writeConfig(t, t.TempDir(), "default-storage: embedded\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageType() != attachment.External {
		t.Fatalf("StorageType = %v", cfg.StorageType())
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Fatalf("LogLevel = %v", cfg.LogLevel())
	}
}

func TestLoad_EnvFileNextToConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IPES_COMPRESSION", "")
	os.Unsetenv("IPES_COMPRESSION")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("IPES_COMPRESSION=9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, dir, "strict: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Compression != 9 {
		t.Fatalf("Compression = %d, want 9", cfg.Compression)
	}
	if !cfg.Strict {
		t.Fatal("Strict should be set")
	}
}

func TestApplyEnv_BadInteger(t *testing.T) {
	t.Setenv("IPES_RELEASE", "latest")
	if err := ApplyEnv(Default(), ""); err == nil {
		t.Fatal("expected error for non-integer release")
	}
}

func TestFind_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release: 205\n")
	nested := filepath.Join(root, "models", "buck")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := Find(nested)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(root, FileName) {
		t.Fatalf("path = %q", path)
	}
	if cfg.Release != 205 {
		t.Fatalf("Release = %d", cfg.Release)
	}
}
