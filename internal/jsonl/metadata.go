package jsonl

import (
	"encoding/json"
	"os"
	"time"

	"github.com/wavehq/wave/internal/lineio"
)

// Metadata is the legacy in-band header record some older logs carry as
// their first line. The current format is headerless; nothing in the
// write path emits this record, and readers treat it purely as a
// backward-compatibility shim.
type Metadata struct {
	Meta        bool        `json:"__meta__"`
	SessionID   string      `json:"sessionId"`
	SessionType SessionType `json:"sessionType"`
	Workdir     string      `json:"workdir"`
	StartedAt   time.Time   `json:"startedAt"`
}

// ReadMetadata reads only the first physical line of the file and returns
// the legacy metadata record if one is present and well-formed. A missing
// file, an empty file, or a first line that is not a metadata record all
// return nil without error.
func ReadMetadata(path string) (*Metadata, error) {
	line, err := lineio.ReadFirstLine(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if line == "" {
		return nil, nil
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(line), &meta); err != nil {
		return nil, nil
	}
	if !meta.Meta || meta.SessionID == "" {
		return nil, nil
	}
	return &meta, nil
}

// isMetaLine reports whether a raw log line is a legacy metadata header.
func isMetaLine(line []byte) bool {
	var meta Metadata
	if err := json.Unmarshal(line, &meta); err != nil {
		return false
	}
	return meta.Meta
}

// HasMetadata reports whether the file starts with a legacy metadata
// header. False for missing files.
func HasMetadata(path string) bool {
	meta, err := ReadMetadata(path)
	return err == nil && meta != nil
}
