package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the config for errors and sets defaults. Relative
// directories are resolved against projectRoot.
func Validate(cfg *Config, projectRoot string) error {
	if cfg.Release <= 0 {
		return fmt.Errorf("config: 'release' must be positive, got %d", cfg.Release)
	}
	if cfg.OldestSupported <= 0 {
		return fmt.Errorf("config: 'oldest-supported' must be positive, got %d", cfg.OldestSupported)
	}
	if cfg.OldestSupported > cfg.Release {
		return fmt.Errorf("config: 'oldest-supported' (%d) is newer than 'release' (%d)", cfg.OldestSupported, cfg.Release)
	}
	if cfg.Compression < -2 || cfg.Compression > 9 {
		return fmt.Errorf("config: 'compression' must be between -2 and 9, got %d", cfg.Compression)
	}

	cfg.DefaultStorage = strings.ToLower(strings.TrimSpace(cfg.DefaultStorage))
	switch cfg.DefaultStorage {
	case "":
		cfg.DefaultStorage = "embedded"
	case "embedded", "external":
	default:
		return fmt.Errorf("config: 'default-storage' must be embedded or external, got %q", cfg.DefaultStorage)
	}

	if cfg.Backup.Keep < 1 {
		return fmt.Errorf("config: backup: 'keep' must be at least 1, got %d", cfg.Backup.Keep)
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = ".ipes-backup"
	}
	if !filepath.IsAbs(cfg.Backup.Dir) {
		cfg.Backup.Dir = filepath.Join(projectRoot, cfg.Backup.Dir)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("config: log: unknown level %q (want debug, info, warn or error)", cfg.Log.Level)
	}
	return nil
}
