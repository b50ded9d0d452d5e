// Package jsonl is the primitive read/write/validate layer over a single
// session log file: newline-delimited JSON, one message per line, in
// append order. It also owns the filename grammar that encodes a
// session's identity and kind.
//
// This layer does no locking. Callers must uphold single-writer
// discipline per session ID; concurrent appends to the same file from
// independent goroutines may interleave.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/wavehq/wave/internal/errors"
	"github.com/wavehq/wave/internal/message"
)

// maxLineBytes is the scanner limit for a single log line. Tool results
// with embedded images can run large.
const maxLineBytes = 10 * 1024 * 1024

// AppendOptions controls how Append writes to the log.
type AppendOptions struct {
	// Atomic replaces the file wholesale via a read-modify-rename cycle
	// instead of appending bytes in place. Use when the caller needs
	// all-or-nothing visibility of the update.
	Atomic bool
}

// Append serializes each message to one JSON line and writes them to the
// file. An empty message list is a no-op. In direct mode all lines go out
// in a single write call; a crash mid-write can leave a truncated tail
// line, which Read tolerates via SkipCorrupted. I/O errors are propagated
// unchanged.
func Append(path string, messages []message.Message, opts AppendOptions) error {
	if len(messages) == 0 {
		return nil
	}

	lines, err := encodeLines(messages)
	if err != nil {
		return err
	}

	if opts.Atomic {
		return appendAtomic(path, lines)
	}
	return appendDirect(path, lines)
}

func encodeLines(messages []message.Message) ([]byte, error) {
	var buf bytes.Buffer
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func appendDirect(path string, lines []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(lines); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// appendAtomic reads the current content, appends the new lines, and
// renames a temp file over the original. Safe against partial writes of
// the new content, but not against a concurrent direct append racing the
// rename.
func appendAtomic(path string, lines []byte) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		existing = append(existing, '\n')
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(existing); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if _, err := tmp.Write(lines); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// ReadOptions filters and bounds a log read. Filters apply first, then
// Offset/Limit, then the optional reversal.
type ReadOptions struct {
	Limit  int // 0 = no limit
	Offset int

	// StartFromEnd returns the result most-recent-first.
	StartFromEnd bool

	// Role keeps only messages with this role. Empty keeps all.
	Role message.Role

	// TimestampAfter/TimestampBefore keep only messages strictly inside
	// the window. Nil bounds are open.
	TimestampAfter  *time.Time
	TimestampBefore *time.Time

	// SkipCorrupted counts and skips malformed lines instead of failing
	// on the first one. Once more than MaxErrors lines have been skipped
	// the read fails, naming the offending line. MaxErrors <= 0 means
	// unlimited.
	SkipCorrupted bool
	MaxErrors     int
}

// Read parses the log file and returns the messages selected by opts.
// Blank lines are always skipped. In default mode the first malformed
// line fails the read with its 1-based line number.
func Read(path string, opts ReadOptions) ([]message.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []message.Message
	corrupted := 0
	lineNo := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if lineNo == 1 && isMetaLine(line) {
			// Legacy header, not a message.
			continue
		}

		var msg message.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			if !opts.SkipCorrupted {
				return nil, errors.CorruptLine(lineNo, err)
			}
			corrupted++
			if opts.MaxErrors > 0 && corrupted > opts.MaxErrors {
				return nil, errors.CorruptLine(lineNo, err)
			}
			continue
		}

		if opts.Role != "" && msg.Role != opts.Role {
			continue
		}
		if opts.TimestampAfter != nil && !msg.Timestamp.After(*opts.TimestampAfter) {
			continue
		}
		if opts.TimestampBefore != nil && !msg.Timestamp.Before(*opts.TimestampBefore) {
			continue
		}

		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(messages) {
			messages = nil
		} else {
			messages = messages[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(messages) > opts.Limit {
		messages = messages[:opts.Limit]
	}

	if opts.StartFromEnd {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	return messages, nil
}

// CreateSessionFile ensures the parent directory exists and writes an
// empty log file. No header line is written; the filename alone carries
// the session's identity and type.
func CreateSessionFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte{}, 0644)
}
