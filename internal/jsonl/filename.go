package jsonl

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wavehq/wave/internal/errors"
)

// SessionType distinguishes the two session kinds. The kind is encoded
// entirely in the filename; file content never needs to be read to
// classify a session.
type SessionType string

const (
	TypeMain     SessionType = "main"
	TypeSubagent SessionType = "subagent"
)

// Extension is the session log file extension.
const Extension = ".jsonl"

const subagentPrefix = "subagent-"

// uuidPattern matches a lowercase UUID v4-style identifier. The on-disk
// grammar is case-sensitive, so uppercase hex does not match.
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsValidSessionID reports whether id matches the strict lowercase UUID
// grammar used in session filenames.
func IsValidSessionID(id string) bool {
	return uuidPattern.MatchString(id)
}

// GenerateSessionFilename returns the on-disk filename for a session:
// "<uuid>.jsonl" for main sessions, "subagent-<uuid>.jsonl" for subagent
// sessions.
func GenerateSessionFilename(id string, sessionType SessionType) (string, error) {
	if !IsValidSessionID(id) {
		return "", errors.InvalidSessionID(id)
	}
	switch sessionType {
	case TypeMain:
		return id + Extension, nil
	case TypeSubagent:
		return subagentPrefix + id + Extension, nil
	default:
		return "", errors.E(errors.Op("jsonl.GenerateSessionFilename"), errors.KindInvalid,
			"unknown session type: "+string(sessionType))
	}
}

// ParseSessionFilename extracts the session ID and type from a session
// file path. Any mismatch against the grammar (wrong extension, wrong
// prefix, malformed UUID, empty input) is an error naming the input.
func ParseSessionFilename(path string) (string, SessionType, error) {
	name := filepath.Base(path)

	if !strings.HasSuffix(name, Extension) {
		return "", "", errors.InvalidSessionFilename(path)
	}
	stem := strings.TrimSuffix(name, Extension)

	sessionType := TypeMain
	if strings.HasPrefix(stem, subagentPrefix) {
		sessionType = TypeSubagent
		stem = strings.TrimPrefix(stem, subagentPrefix)
	}

	if !IsValidSessionID(stem) {
		return "", "", errors.InvalidSessionFilename(path)
	}
	return stem, sessionType, nil
}

// IsValidSessionFilename reports whether name conforms to the session
// filename grammar. Used to filter directory listings before any file is
// opened.
func IsValidSessionFilename(name string) bool {
	_, _, err := ParseSessionFilename(name)
	return err == nil
}
