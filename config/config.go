// Package config reads corvid.toml project settings.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const FileName = "corvid.toml"

// CacheEnv overrides the default cache directory. cache.dir in a file
// still takes precedence.
const CacheEnv = "CORVID_CACHE"

type Config struct {
	Normalize Normalize `toml:"normalize"`
	Interp    Interp    `toml:"interp"`
	Cache     Cache     `toml:"cache"`
	Log       Log       `toml:"log"`
}

type Normalize struct {
	// MaxDepth bounds nested specialization.
	MaxDepth int `toml:"max_depth"`
	// MaxPasses bounds the rounds spent settling recursive return types.
	MaxPasses int `toml:"max_passes"`
}

type Interp struct {
	// MaxSteps aborts runaway programs. 0 means no limit.
	MaxSteps int `toml:"max_steps"`
}

type Cache struct {
	Dir string `toml:"dir"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the settings used when no corvid.toml is found.
func Default() *Config {
	return &Config{
		Normalize: Normalize{MaxDepth: 512, MaxPasses: 100},
		Cache:     Cache{Dir: DefaultCacheDir()},
		Log:       Log{Level: "info"},
	}
}

// DefaultCacheDir returns $CORVID_CACHE, or the per-user cache directory
// of the platform.
func DefaultCacheDir() string {
	if env := os.Getenv(CacheEnv); env != "" {
		return env
	}

	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "corvid")
		}
		return filepath.Join(homeDir, "AppData", "Local", "corvid")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "corvid")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "corvid")
		}
		return filepath.Join(homeDir, ".cache", "corvid")
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	// a relative cache.dir is relative to the file
	if md.IsDefined("cache", "dir") && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// Find searches for corvid.toml from dir upward, stopping at a .git
// boundary. Without a file it returns "" and the defaults.
func Find(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, errors.Wrap(err, "resolving config search directory")
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			if err != nil {
				return "", nil, err
			}
			return path, cfg, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", Default(), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", Default(), nil
		}
		dir = parent
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Normalize.MaxDepth <= 0:
		return errors.Errorf("normalize.max_depth must be positive, got %d", c.Normalize.MaxDepth)
	case c.Normalize.MaxPasses <= 0:
		return errors.Errorf("normalize.max_passes must be positive, got %d", c.Normalize.MaxPasses)
	case c.Interp.MaxSteps < 0:
		return errors.Errorf("interp.max_steps must not be negative, got %d", c.Interp.MaxSteps)
	}
	_, err := c.LogLevel()
	return err
}

// LogLevel parses log.level as a slog level name.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Wrapf(err, "log.level")
	}
	return level, nil
}
