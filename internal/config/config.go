// Package config loads the .phpscan.toml project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jward/phpscan"
)

// FileName is the project file looked up in the working directory.
const FileName = ".phpscan.toml"

type Config struct {
	// PHPVersion is "php53" or "php54".
	PHPVersion string   `toml:"version"`
	Database   string   `toml:"database"`
	Workers    int      `toml:"workers"`
	Include    []string `toml:"include"`
	Exclude    []string `toml:"exclude"`
	Rules      string   `toml:"rules"`
	Watch      Watch    `toml:"watch"`

	dir string
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the project file at path. A missing file yields Default.
// Relative paths in the file are resolved against its directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.PHPVersion) == "" {
		cfg.PHPVersion = "php54"
	}
	if strings.TrimSpace(cfg.Database) == "" {
		cfg.Database = ".phpscan.db"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**/*.php"}
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{"vendor/**"}
	}
	if strings.TrimSpace(cfg.Rules) == "" {
		cfg.Rules = ".phpscan/rules"
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if _, err := cfg.Version(); err != nil {
		return err
	}
	return nil
}

// Version maps the configured version string to a dialect.
func (c *Config) Version() (phpscan.Version, error) {
	v, ok := phpscan.ParseVersion(c.PHPVersion)
	if !ok {
		return 0, fmt.Errorf("unknown version %q (want php53 or php54)", c.PHPVersion)
	}
	return v, nil
}

// Resolve returns p relative to the directory of the loaded file. Absolute
// paths and configs without a file are returned unchanged.
func (c *Config) Resolve(p string) string {
	if c.dir == "" || p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}
