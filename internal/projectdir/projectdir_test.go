package projectdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGet_EncodesPath(t *testing.T) {
	base := t.TempDir()
	workdir := t.TempDir()

	m, err := Get(workdir, base)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if m.OriginalPath != workdir {
		t.Errorf("OriginalPath = %q, want %q", m.OriginalPath, workdir)
	}
	if strings.ContainsAny(m.EncodedName, "/\\ .") {
		t.Errorf("EncodedName %q contains unsanitized characters", m.EncodedName)
	}
	if m.EncodedPath != filepath.Join(base, m.EncodedName) {
		t.Errorf("EncodedPath = %q, want it under %q", m.EncodedPath, base)
	}
	if m.IsSymbolicLink {
		t.Error("IsSymbolicLink = true for a plain directory")
	}
}

func TestGet_Stable(t *testing.T) {
	base := t.TempDir()
	workdir := t.TempDir()

	m1, err := Get(workdir, base)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	m2, err := Get(workdir, base)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m1.EncodedName != m2.EncodedName {
		t.Errorf("encoding is not stable: %q vs %q", m1.EncodedName, m2.EncodedName)
	}
}

func TestGet_DistinctDirsDistinctNames(t *testing.T) {
	base := t.TempDir()
	root := t.TempDir()
	a := filepath.Join(root, "proj-a")
	b := filepath.Join(root, "proj-b")

	ma, err := Get(a, base)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	mb, err := Get(b, base)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ma.EncodedName == mb.EncodedName {
		t.Errorf("different workdirs map to the same name %q", ma.EncodedName)
	}
}

func TestGet_Symlink(t *testing.T) {
	base := t.TempDir()
	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	m, err := Get(link, base)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !m.IsSymbolicLink {
		t.Error("IsSymbolicLink = false for a symlinked workdir")
	}
	if m.PathHash == "" {
		t.Error("PathHash should be set for a symlinked workdir")
	}
	if !strings.HasSuffix(m.EncodedName, "-"+m.PathHash) {
		t.Errorf("EncodedName %q should carry the hash suffix %q", m.EncodedName, m.PathHash)
	}
}

func TestGet_LongPathTruncated(t *testing.T) {
	base := t.TempDir()
	workdir := filepath.Join(t.TempDir(), strings.Repeat("deeply-nested-segment/", 10))

	m, err := Get(workdir, base)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.PathHash == "" {
		t.Error("PathHash should be set for a truncated name")
	}
	if len(m.EncodedName) > maxEncodedLen+1+hashSuffixLen {
		t.Errorf("EncodedName is %d chars, want at most %d", len(m.EncodedName), maxEncodedLen+1+hashSuffixLen)
	}
}

func TestCreate_MakesDirectory(t *testing.T) {
	base := t.TempDir()
	workdir := t.TempDir()

	m, err := Create(workdir, base)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, err := os.Stat(m.EncodedPath)
	if err != nil {
		t.Fatalf("encoded directory missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("encoded path is not a directory")
	}

	// Safe to call again.
	if _, err := Create(workdir, base); err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
}
