package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/ipes/internal/attachment"
	"github.com/jorge-barreto/ipes/internal/document"
)

// FileName is the project configuration file looked up by Find.
const FileName = ".ipes.yaml"

type Backup struct {
	Dir  string `yaml:"dir"`
	Keep int    `yaml:"keep"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	Release         int    `yaml:"release"`
	OldestSupported int    `yaml:"oldest-supported"`
	Compression     int    `yaml:"compression"`
	DefaultStorage  string `yaml:"default-storage"`
	Strict          bool   `yaml:"strict"`
	Backup          Backup `yaml:"backup"`
	Log             Log    `yaml:"log"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Release:         document.CurrentRelease,
		OldestSupported: document.OldestSupported,
		Compression:     -1,
		DefaultStorage:  "embedded",
		Backup:          Backup{Keep: 5},
		Log:             Log{Level: "warn"},
	}
}

// Load reads a YAML config file, applies environment overrides and
// returns a validated Config. Keys missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	root := filepath.Dir(path)
	if err := ApplyEnv(cfg, filepath.Join(root, ".env")); err != nil {
		return nil, err
	}
	if err := Validate(cfg, root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find walks up from startDir looking for FileName. Without one it
// returns the defaults rooted at startDir and an empty path.
func Find(startDir string) (*Config, string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := Load(candidate)
			return cfg, candidate, err
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	cfg := Default()
	if err := ApplyEnv(cfg, ""); err != nil {
		return nil, "", err
	}
	if err := Validate(cfg, startDir); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

// StorageType returns the storage type for newly attached files.
func (c *Config) StorageType() attachment.StorageType {
	t, err := attachment.ParseStorageType(c.DefaultStorage)
	if err != nil {
		return attachment.Embedded
	}
	return t
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}
