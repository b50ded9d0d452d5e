package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wavehq/wave/internal/jsonl"
	"github.com/wavehq/wave/internal/lineio"
	"github.com/wavehq/wave/internal/logger"
	"github.com/wavehq/wave/internal/message"
)

// Summary is the cheap listing view of a session, derived from its
// filename plus the first and last physical lines of its log. The full
// message history is never read to build one.
type Summary struct {
	ID                string
	Type              jsonl.SessionType
	Path              string
	StartedAt         time.Time
	LastActiveAt      time.Time
	LatestTotalTokens int
}

// minLastLineLen filters out stray fragments when reading the tail; a
// real message line is always longer than this.
const minLastLineLen = 2

// List returns summaries for every session under workdir's project
// directory, sorted by LastActiveAt descending. Subagent sessions are
// excluded unless includeSubagents is set. Entries that vanish mid-scan
// are skipped.
func (s *Store) List(ctx context.Context, workdir string, includeSubagents bool) ([]Summary, error) {
	m, err := s.projectDir(workdir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(m.EncodedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var summaries []Summary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !jsonl.IsValidSessionFilename(entry.Name()) {
			continue
		}

		id, sessionType, err := jsonl.ParseSessionFilename(entry.Name())
		if err != nil {
			continue
		}
		if sessionType == jsonl.TypeSubagent && !includeSubagents {
			continue
		}

		summary, ok := s.summarize(filepath.Join(m.EncodedPath, entry.Name()), id, sessionType)
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActiveAt.After(summaries[j].LastActiveAt)
	})

	logger.Debug("Listed %d session(s) under %s", len(summaries), m.EncodedPath)
	return summaries, nil
}

// Latest returns the session with the greatest LastActiveAt under
// workdir, fully loaded. The scan stays cheap: only the selected session
// gets a full read. Returns nil when no sessions exist.
func (s *Store) Latest(ctx context.Context, workdir string) (*Session, error) {
	summaries, err := s.List(ctx, workdir, false)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return s.Load(ctx, summaries[0].ID, workdir)
}

// summarize builds a Summary from two line reads and a stat. Returns
// ok=false when the file vanished or yields nothing usable.
func (s *Store) summarize(path, id string, sessionType jsonl.SessionType) (Summary, bool) {
	summary := Summary{ID: id, Type: sessionType, Path: path}

	first, err := lineio.ReadFirstLine(path)
	if err != nil {
		// Vanished mid-scan or unreadable; drop the entry.
		return Summary{}, false
	}

	sawMeta := false
	if first != "" {
		var meta jsonl.Metadata
		if json.Unmarshal([]byte(first), &meta) == nil && meta.Meta {
			summary.StartedAt = meta.StartedAt
			sawMeta = true
		} else {
			var msg message.Message
			if json.Unmarshal([]byte(first), &msg) == nil {
				summary.StartedAt = msg.Timestamp
			}
		}
	}

	last, err := lineio.ReadLastLine(path, minLastLineLen)
	if err != nil {
		return Summary{}, false
	}
	if last != "" && (last != first || !sawMeta) {
		var msg message.Message
		if json.Unmarshal([]byte(last), &msg) == nil && !msg.Timestamp.IsZero() {
			summary.LastActiveAt = msg.Timestamp
			if msg.Usage != nil {
				summary.LatestTotalTokens = msg.Usage.TotalTokens
			}
		}
	}

	// Empty or header-only files still list; anchor their activity to the
	// file's modification time.
	if summary.LastActiveAt.IsZero() {
		info, err := os.Stat(path)
		if err != nil {
			return Summary{}, false
		}
		summary.LastActiveAt = info.ModTime()
		if summary.StartedAt.IsZero() {
			summary.StartedAt = summary.LastActiveAt
		}
	}

	return summary, true
}
