package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv(CacheEnv, "/tmp/corvid-cache")
	cfg := Default()
	assert.Equal(t, 512, cfg.Normalize.MaxDepth)
	assert.Equal(t, 100, cfg.Normalize.MaxPasses)
	assert.Equal(t, 0, cfg.Interp.MaxSteps)
	assert.Equal(t, "/tmp/corvid-cache", cfg.Cache.Dir)
	require.NoError(t, cfg.Validate())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[normalize]
max_depth = 64

[interp]
max_steps = 1000

[cache]
dir = "build"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Normalize.MaxDepth)
	// unset keys keep their defaults
	assert.Equal(t, 100, cfg.Normalize.MaxPasses)
	assert.Equal(t, 1000, cfg.Interp.MaxSteps)
	assert.Equal(t, filepath.Join(dir, "build"), cfg.Cache.Dir)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[normalize\n", "parsing"},
		{"unknown key", "[normalize]\nmax_dept = 3\n", "unknown keys normalize.max_dept"},
		{"zero depth", "[normalize]\nmax_depth = 0\n", "normalize.max_depth must be positive"},
		{"negative steps", "[interp]\nmax_steps = -1\n", "interp.max_steps must not be negative"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	path, cfg, err := Find(nested)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 512, cfg.Normalize.MaxDepth)

	want := writeConfig(t, filepath.Join(root, "a"), "[normalize]\nmax_passes = 7\n")
	path, cfg, err = Find(nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, 7, cfg.Normalize.MaxPasses)
}

func TestFindStopsAtRepositoryRoot(t *testing.T) {
	outer := t.TempDir()
	writeConfig(t, outer, "[normalize]\nmax_passes = 7\n")
	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	path, cfg, err := Find(repo)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 100, cfg.Normalize.MaxPasses)
}
