package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wavehq/wave/internal/jsonl"
	"github.com/wavehq/wave/internal/message"
)

var ctx = context.Background()

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	store := NewStore(t.TempDir())
	workdir := t.TempDir()
	return store, workdir
}

func userMessage(content string, ts time.Time) message.Message {
	return message.Message{
		Role:      message.RoleUser,
		Blocks:    []message.Block{{Type: message.BlockText, Content: content}},
		Timestamp: ts,
	}
}

func TestGenerateSessionID(t *testing.T) {
	id := GenerateSessionID()
	if !jsonl.IsValidSessionID(id) {
		t.Errorf("GenerateSessionID = %q, not a lowercase UUID", id)
	}
	if id != strings.ToLower(id) {
		t.Errorf("GenerateSessionID = %q, want lowercase", id)
	}
	if GenerateSessionID() == id {
		t.Error("GenerateSessionID returned the same ID twice")
	}
}

func TestResolveDir(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		verbatim bool
	}{
		{"absolute", "/var/lib/wave", true},
		{"relative", "sessions", true},
		{"tilde untouched", "~/custom/sessions", true},
		{"default", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDir(tt.explicit)
			if tt.verbatim {
				if got != tt.explicit {
					t.Errorf("ResolveDir(%q) = %q, want it returned verbatim", tt.explicit, got)
				}
				return
			}
			if !strings.HasSuffix(got, filepath.Join(".wave", "sessions")) {
				t.Errorf("ResolveDir(\"\") = %q, want the default under home", got)
			}
		})
	}
}

func TestCreateAndExists(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()

	if store.Exists(id, workdir) {
		t.Error("Exists = true before creation")
	}

	if err := store.Create(ctx, id, workdir, jsonl.TypeMain); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !store.Exists(id, workdir) {
		t.Error("Exists = false after creation")
	}
	if !store.Exists(id, workdir, jsonl.TypeMain) {
		t.Error("Exists(main) = false after creation")
	}
	if store.Exists(id, workdir, jsonl.TypeSubagent) {
		t.Error("Exists(subagent) = true for a main session")
	}
}

func TestCreate_InvalidID(t *testing.T) {
	store, workdir := newTestStore(t)

	err := store.Create(ctx, "not-a-uuid", workdir, jsonl.TypeMain)
	if err == nil {
		t.Fatal("Create should reject an invalid session ID")
	}
	if !strings.Contains(err.Error(), "Invalid session ID format: not-a-uuid") {
		t.Errorf("error = %q, should name the offending ID", err.Error())
	}
}

func TestAppendLoad_RoundTrip(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := store.Create(ctx, id, workdir, jsonl.TypeMain); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first := userMessage("hi", base)
	second := message.Message{
		Role:      message.RoleAssistant,
		Blocks:    []message.Block{{Type: message.BlockText, Content: "hello"}},
		Timestamp: base.Add(time.Minute),
		Usage:     &message.Usage{PromptTokens: 8, CompletionTokens: 4, TotalTokens: 12},
	}
	if err := store.Append(ctx, id, []message.Message{first}, workdir); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, id, []message.Message{second}, workdir); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	sess, err := store.Load(ctx, id, workdir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sess == nil {
		t.Fatal("Load returned nil for an existing session")
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(sess.Messages))
	}
	if sess.Messages[0].Blocks[0].Content != "hi" {
		t.Errorf("first block content = %q, want %q", sess.Messages[0].Blocks[0].Content, "hi")
	}
	if !sess.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", sess.StartedAt, base)
	}
	if !sess.LastActiveAt.Equal(base.Add(time.Minute)) {
		t.Errorf("LastActiveAt = %v, want %v", sess.LastActiveAt, base.Add(time.Minute))
	}
	if sess.LatestTotalTokens != 12 {
		t.Errorf("LatestTotalTokens = %d, want 12", sess.LatestTotalTokens)
	}
}

// The concrete end-to-end scenario: generate, name, append one user
// message, read it back.
func TestScenario_SingleUserMessage(t *testing.T) {
	store, workdir := newTestStore(t)
	const id = "12345678-1234-4abc-89ab-1234567890ab"

	name, err := jsonl.GenerateSessionFilename(id, jsonl.TypeMain)
	if err != nil {
		t.Fatalf("GenerateSessionFilename failed: %v", err)
	}
	if name != id+".jsonl" {
		t.Errorf("filename = %q, want %q", name, id+".jsonl")
	}

	if err := store.Append(ctx, id, []message.Message{message.Text(message.RoleUser, "hi")}, workdir); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	sess, err := store.Load(ctx, id, workdir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sess == nil || len(sess.Messages) != 1 {
		t.Fatalf("Load = %+v, want exactly one message", sess)
	}
	block := sess.Messages[0].Blocks[0]
	if block.Type != message.BlockText || block.Content != "hi" {
		t.Errorf("first block = %+v, want {type:text, content:hi}", block)
	}
}

func TestAppend_EmptyTouchesNothing(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()

	if err := store.Append(ctx, id, nil, workdir); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Neither the file nor the project directory may exist.
	entries, err := os.ReadDir(store.BaseDir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("empty append created %d entr(ies) under the base dir", len(entries))
	}
}

func TestLoad_MissingSession(t *testing.T) {
	store, workdir := newTestStore(t)

	sess, err := store.Load(ctx, GenerateSessionID(), workdir)
	if err != nil {
		t.Fatalf("Load on a missing session should not error, got %v", err)
	}
	if sess != nil {
		t.Errorf("Load = %+v, want nil", sess)
	}
}

func TestLoad_CorruptedIsBestEffort(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()

	path, err := store.FilePath(id, workdir, jsonl.TypeMain)
	if err != nil {
		t.Fatalf("FilePath failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("{garbage\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	sess, err := store.Load(ctx, id, workdir)
	if err != nil {
		t.Fatalf("Load on a corrupted session should not error, got %v", err)
	}
	if sess != nil {
		t.Errorf("Load = %+v, want nil", sess)
	}
}

func TestLoad_SubagentFallback(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()

	if err := store.Create(ctx, id, workdir, jsonl.TypeSubagent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Append(ctx, id, []message.Message{message.Text(message.RoleUser, "sub")}, workdir); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	sess, err := store.Load(ctx, id, workdir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sess == nil {
		t.Fatal("Load returned nil for an existing subagent session")
	}
	if sess.Type != jsonl.TypeSubagent {
		t.Errorf("Type = %q, want subagent", sess.Type)
	}
}

func TestDelete(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()

	deleted, err := store.Delete(id, workdir)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted {
		t.Error("Delete = true for a missing session")
	}

	if err := store.Create(ctx, id, workdir, jsonl.TypeMain); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err = store.Delete(id, workdir)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Error("Delete = false for an existing session")
	}
	if store.Exists(id, workdir) {
		t.Error("session still exists after Delete")
	}
}

// One project-subdirectory level must sit between the base directory and
// the session file.
func TestFilePath_Structure(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()

	path, err := store.FilePath(id, workdir, jsonl.TypeMain)
	if err != nil {
		t.Fatalf("FilePath failed: %v", err)
	}

	if filepath.Base(path) != id+".jsonl" {
		t.Errorf("basename = %q, want %q", filepath.Base(path), id+".jsonl")
	}
	projectDir := filepath.Dir(path)
	if filepath.Dir(projectDir) != store.BaseDir() {
		t.Errorf("path = %q, want exactly one directory level under %q", path, store.BaseDir())
	}
}

func TestSubscribe(t *testing.T) {
	store, workdir := newTestStore(t)
	id := GenerateSessionID()

	var events []Event
	unsubscribe := store.Subscribe(func(e Event) {
		events = append(events, e)
	})

	if err := store.Create(ctx, id, workdir, jsonl.TypeMain); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Append(ctx, id, []message.Message{message.Text(message.RoleUser, "hi")}, workdir); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := store.Delete(id, workdir); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantKinds := []EventKind{EventCreated, EventAppended, EventDeleted}
	for i, kind := range wantKinds {
		if events[i].Kind != kind {
			t.Errorf("event %d kind = %d, want %d", i, events[i].Kind, kind)
		}
		if events[i].SessionID != id {
			t.Errorf("event %d session = %q, want %q", i, events[i].SessionID, id)
		}
	}
	if events[1].Count != 1 {
		t.Errorf("append event count = %d, want 1", events[1].Count)
	}

	unsubscribe()
	if err := store.Create(ctx, GenerateSessionID(), workdir, jsonl.TypeMain); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(events) != 3 {
		t.Error("listener fired after unsubscribe")
	}
}

func TestAppend_Cancelled(t *testing.T) {
	store, workdir := newTestStore(t)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Append(cancelled, GenerateSessionID(), []message.Message{message.Text(message.RoleUser, "hi")}, workdir)
	if err != context.Canceled {
		t.Errorf("Append with cancelled context = %v, want context.Canceled", err)
	}
}
