package retention

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// IndexFilename is the per-project retention index file. The name does
// not match the session filename grammar, so listings never pick it up.
const IndexFilename = "index.json"

// Index summarizes session activity for one project directory.
type Index struct {
	Sessions    map[string]IndexEntry `json:"sessions"`
	LastUpdated time.Time             `json:"lastUpdated"`
}

// IndexEntry records when a session was last active.
type IndexEntry struct {
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// LoadIndex reads the retention index for a project directory. A missing
// or unreadable index yields a fresh empty one; the index is a cache and
// is rebuilt on the next cleanup pass.
func LoadIndex(dir string) *Index {
	idx := &Index{Sessions: make(map[string]IndexEntry)}

	data, err := os.ReadFile(filepath.Join(dir, IndexFilename))
	if err != nil {
		return idx
	}
	if err := json.Unmarshal(data, idx); err != nil {
		return &Index{Sessions: make(map[string]IndexEntry)}
	}
	if idx.Sessions == nil {
		idx.Sessions = make(map[string]IndexEntry)
	}
	return idx
}

// SaveIndex writes the retention index for a project directory.
func SaveIndex(dir string, idx *Index) error {
	idx.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, IndexFilename), data, 0644)
}

// RemoveIndex deletes the index file if present.
func RemoveIndex(dir string) error {
	err := os.Remove(filepath.Join(dir, IndexFilename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
