// Package retention deletes session logs older than a policy threshold
// and maintains a per-project JSON index of last-active timestamps so
// repeated cleanup passes avoid re-deriving activity from log files.
package retention

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/wavehq/wave/internal/jsonl"
	"github.com/wavehq/wave/internal/logger"
	"github.com/wavehq/wave/internal/session"
)

// DefaultThresholdDays is the cleanup age threshold when the caller does
// not supply one.
const DefaultThresholdDays = 30

// EnvMode is the environment variable gating deletion. When it is set to
// "test" cleanup is disabled entirely and callers always observe zero
// deletions.
const EnvMode = "WAVE_ENV"

// Enabled reports whether retention deletion is active in this process.
func Enabled() bool {
	return os.Getenv(EnvMode) != "test"
}

// Manager runs retention passes over a session store.
type Manager struct {
	store *session.Store
}

// NewManager returns a retention manager for the given store.
func NewManager(store *session.Store) *Manager {
	return &Manager{store: store}
}

// CleanupExpired deletes session files under workdir's project directory
// whose modification time is older than thresholdDays, updating the
// retention index to match. thresholdDays <= 0 selects the default.
// Returns the number of files deleted.
func (m *Manager) CleanupExpired(ctx context.Context, workdir string, thresholdDays int) (int, error) {
	if !Enabled() {
		return 0, nil
	}
	if thresholdDays <= 0 {
		thresholdDays = DefaultThresholdDays
	}

	dir, err := m.store.ProjectPath(workdir)
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	idx := LoadIndex(dir)
	cutoff := time.Now().AddDate(0, 0, -thresholdDays)

	deleted := 0
	remaining := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if entry.IsDir() || !jsonl.IsValidSessionFilename(entry.Name()) {
			continue
		}
		id, _, err := jsonl.ParseSessionFilename(entry.Name())
		if err != nil {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			// Vanished since enumeration; nothing to clean.
			delete(idx.Sessions, id)
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return deleted, err
			}
			delete(idx.Sessions, id)
			deleted++
			logger.Info("Expired session %s removed (last modified %s)", id, info.ModTime().Format(time.RFC3339))
			continue
		}

		idx.Sessions[id] = IndexEntry{LastActiveAt: info.ModTime()}
		remaining++
	}

	if remaining == 0 {
		// Nothing left to index; drop the index file so the directory can
		// be reclaimed as empty.
		if err := RemoveIndex(dir); err != nil {
			return deleted, err
		}
		return deleted, nil
	}

	if err := SaveIndex(dir, idx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// CleanupEmptyProjectDirs walks all project subdirectories under the
// store's base directory and removes those containing zero entries.
// Returns the number of directories removed.
func (m *Manager) CleanupEmptyProjectDirs() (int, error) {
	entries, err := os.ReadDir(m.store.BaseDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.store.BaseDir(), entry.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		if len(children) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			removed++
			logger.Debug("Removed empty project directory %s", dir)
		}
	}
	return removed, nil
}
