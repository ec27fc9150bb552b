package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ApplyEnv loads envFile, if it exists, into the process environment and
// then overrides cfg from IPES_* variables. Variables already set in the
// environment win over the file.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	var err error
	if cfg.Release, err = envInt("IPES_RELEASE", cfg.Release); err != nil {
		return err
	}
	if cfg.Compression, err = envInt("IPES_COMPRESSION", cfg.Compression); err != nil {
		return err
	}
	cfg.Backup.Dir = envString("IPES_BACKUP_DIR", cfg.Backup.Dir)
	cfg.Log.Level = envString("IPES_LOG_LEVEL", cfg.Log.Level)
	cfg.DefaultStorage = envString("IPES_STORAGE", cfg.DefaultStorage)
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %q is not an integer", key, v)
	}
	return n, nil
}
