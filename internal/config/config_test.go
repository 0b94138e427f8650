package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpscan"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
version = "php53"
database = "index/phpscan.db"
workers = 3
include = ["src/**/*.php"]
exclude = ["vendor/**", "cache/**"]
rules = "rules"

[watch]
debounce = "1s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	v, err := cfg.Version()
	require.NoError(t, err)
	assert.Equal(t, phpscan.PHP53, v)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"src/**/*.php"}, cfg.Include)
	assert.Equal(t, []string{"vendor/**", "cache/**"}, cfg.Exclude)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "index/phpscan.db"), cfg.Resolve(cfg.Database))
	assert.Equal(t, filepath.Join(filepath.Dir(path), "rules"), cfg.Resolve(cfg.Rules))
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, `workers = 0`))
	require.NoError(t, err)

	v, err := cfg.Version()
	require.NoError(t, err)
	assert.Equal(t, phpscan.PHP54, v)
	assert.Equal(t, ".phpscan.db", cfg.Database)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, []string{"**/*.php"}, cfg.Include)
	assert.Equal(t, []string{"vendor/**"}, cfg.Exclude)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "rel.db", cfg.Resolve("rel.db"))
}

func TestLoad_InvalidTOML(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, `version = `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, `version = "php8"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown version "php8"`)
}

func TestResolve_AbsolutePathUnchanged(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, ``))
	require.NoError(t, err)
	abs := filepath.Join(t.TempDir(), "x.db")
	assert.Equal(t, abs, cfg.Resolve(abs))
}
