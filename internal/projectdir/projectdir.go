// Package projectdir maps a working directory to a stable on-disk
// directory name under the session base directory. Encoding is lossy
// (every non-alphanumeric rune becomes a dash), so a short hash of the
// resolved path is appended whenever the encoding could collide: for
// symlinked workdirs and for names long enough to be truncated.
package projectdir

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// maxEncodedLen bounds the sanitized portion of an encoded name so the
// result stays well under common filesystem name limits.
const maxEncodedLen = 100

// hashSuffixLen is the number of hex characters of the path hash kept in
// the directory name.
const hashSuffixLen = 8

// Mapping describes the on-disk directory that holds all sessions for one
// working directory.
type Mapping struct {
	OriginalPath   string // the workdir as given, cleaned and made absolute
	EncodedName    string // directory name under the session base dir
	EncodedPath    string // baseDir/EncodedName
	PathHash       string // hex hash suffix, empty when none was needed
	IsSymbolicLink bool   // workdir resolved to a different path
}

// Get computes the mapping for workdir under baseDir without touching the
// filesystem beyond symlink resolution.
func Get(workdir, baseDir string) (*Mapping, error) {
	abs, err := filepath.Abs(workdir)
	if err != nil {
		return nil, err
	}
	abs = filepath.Clean(abs)

	resolved := abs
	isLink := false
	if r, err := filepath.EvalSymlinks(abs); err == nil && r != abs {
		resolved = r
		isLink = true
	}

	name := sanitize(abs)
	hash := ""
	if isLink || len(name) > maxEncodedLen {
		hash = hashPath(resolved)
		if len(name) > maxEncodedLen {
			name = name[:maxEncodedLen]
		}
		name = name + "-" + hash
	}

	return &Mapping{
		OriginalPath:   abs,
		EncodedName:    name,
		EncodedPath:    filepath.Join(baseDir, name),
		PathHash:       hash,
		IsSymbolicLink: isLink,
	}, nil
}

// Create computes the mapping and ensures the encoded directory exists.
func Create(workdir, baseDir string) (*Mapping, error) {
	m, err := Get(workdir, baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.EncodedPath, 0755); err != nil {
		return nil, err
	}
	return m, nil
}

// sanitize replaces every rune outside [a-zA-Z0-9] with a dash.
func sanitize(path string) string {
	out := make([]rune, 0, len(path))
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

func hashPath(path string) string {
	sum := blake3.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])[:hashSuffixLen]
}
