package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/thiremani/corvid/config"
)

const (
	ARTIFACT_DIR = "artifacts"
	HASH_FILE    = ".hash"
	LOCK_SUFFIX  = ".lock"

	keepArtifacts  = 5
	artifactMinAge = 7 * 24 * 60 * 60
)

// isHashDir returns true if name is an 8-char hex string (matches shortHash format).
func isHashDir(name string) bool {
	if len(name) != 8 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

// settingsHash hashes the toolchain and the settings that change what a
// build produces.
func settingsHash(h hash.Hash, settings config.Normalize) {
	h.Write([]byte(Version))
	h.Write([]byte(runtime.GOOS))
	h.Write([]byte(runtime.GOARCH))
	fmt.Fprintf(h, "depth=%d passes=%d", settings.MaxDepth, settings.MaxPasses)
}

// artifactHash returns the short hash naming the cache directory and the
// full hash stored inside it to detect collisions.
func artifactHash(settings config.Normalize, sources map[string][]byte) (shortHash, fullHash string) {
	h := sha256.New()
	settingsHash(h, settings)

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(h, "%s\x00%d\x00", filepath.Base(name), len(sources[name]))
		h.Write(sources[name])
	}
	fullHash = hex.EncodeToString(h.Sum(nil))
	return fullHash[:8], fullHash
}

// cleanupArtifacts removes old artifact directories. Only directories
// older than minAge are deleted, and the keep most recent always stay. A
// build in progress has a fresh mtime and is never removed. Lock files
// stay, since another process may be waiting on one.
func cleanupArtifacts(logger *slog.Logger, artifactDir string, keep int, minAge int64) {
	entries, err := os.ReadDir(artifactDir)
	if err != nil || len(entries) <= keep {
		return
	}

	type dirInfo struct {
		name  string
		mtime int64
	}
	var dirs []dirInfo
	for _, e := range entries {
		if e.IsDir() && isHashDir(e.Name()) {
			if info, err := e.Info(); err == nil {
				dirs = append(dirs, dirInfo{e.Name(), info.ModTime().Unix()})
			}
		}
	}
	if len(dirs) <= keep {
		return
	}

	cutoff := time.Now().Unix() - minAge
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime < dirs[j].mtime })
	for i := 0; i < len(dirs)-keep; i++ {
		if dirs[i].mtime < cutoff {
			path := filepath.Join(artifactDir, dirs[i].name)
			if err := os.RemoveAll(path); err != nil {
				logger.Warn("removing old artifacts", "dir", path, "err", err)
			}
		}
	}
}

// prepareArtifacts returns the cache directory for the given hash, calling
// build to fill it unless a complete earlier build is already there. A file
// lock per hash keeps concurrent builds of the same content from seeing a
// half-written directory; builds of different content do not wait on each
// other.
func prepareArtifacts(logger *slog.Logger, cacheDir, shortHash, fullHash string, build func(dir string) error) (dir string, cached bool, err error) {
	artifactDir := filepath.Join(cacheDir, ARTIFACT_DIR)
	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return "", false, errors.Wrap(err, "create artifact dir")
	}

	lock := flock.New(filepath.Join(artifactDir, shortHash+LOCK_SUFFIX))
	if err := lock.Lock(); err != nil {
		return "", false, errors.Wrap(err, "acquire artifact lock")
	}
	defer lock.Unlock()

	dir = filepath.Join(artifactDir, shortHash)
	hashFile := filepath.Join(dir, HASH_FILE)
	if stored, err := os.ReadFile(hashFile); err == nil {
		if string(stored) == fullHash {
			logger.Debug("using cached artifacts", "dir", dir)
			return dir, true, nil
		}
		logger.Debug("artifact hash mismatch, rebuilding", "dir", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", false, errors.Wrapf(err, "clear %s", dir)
	}

	cleanupArtifacts(logger, artifactDir, keepArtifacts, artifactMinAge)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, errors.Wrapf(err, "create %s", dir)
	}
	if err := build(dir); err != nil {
		return "", false, err
	}
	// written last, so it marks a complete build
	if err := os.WriteFile(hashFile, []byte(fullHash), 0644); err != nil {
		return "", false, errors.Wrap(err, "write hash file")
	}
	return dir, false, nil
}
