// Package lineio reads single physical lines from a file without loading
// the whole file: the first line via a buffered forward read, the last
// line via backward chunked reads from the end of the file.
package lineio

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
)

// tailChunkSize is how many bytes are pulled per backward read.
const tailChunkSize = 8 * 1024

// ReadFirstLine returns the first physical line of the file with the
// trailing newline (and any carriage return) stripped. An empty file
// yields an empty string.
func ReadFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadLastLine returns the last non-empty line of the file whose trimmed
// length is at least minLength, reading backward from the end in chunks.
// Returns an empty string when no line qualifies.
func ReadLastLine(path string, minLength int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	var buf []byte
	offset := info.Size()
	for offset > 0 {
		chunk := int64(tailChunkSize)
		if offset < chunk {
			chunk = offset
		}
		offset -= chunk

		b := make([]byte, chunk)
		if _, err := f.ReadAt(b, offset); err != nil && err != io.EOF {
			return "", err
		}
		buf = append(b, buf...)

		if line, ok := lastQualifyingLine(buf, minLength, offset == 0); ok {
			return line, nil
		}
	}
	return "", nil
}

// lastQualifyingLine scans buf for the last complete line meeting
// minLength. The first segment of buf only has a known start when the
// buffer reaches the beginning of the file.
func lastQualifyingLine(buf []byte, minLength int, atStart bool) (string, bool) {
	segments := bytes.Split(buf, []byte{'\n'})
	first := 1
	if atStart {
		first = 0
	}
	for i := len(segments) - 1; i >= first; i-- {
		line := strings.TrimRight(string(segments[i]), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) >= minLength {
			return line, true
		}
	}
	return "", false
}
