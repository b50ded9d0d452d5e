package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wavehq/wave/internal/errors"
	"github.com/wavehq/wave/internal/jsonl"
	"github.com/wavehq/wave/internal/logger"
	"github.com/wavehq/wave/internal/message"
	"github.com/wavehq/wave/internal/projectdir"
)

// DefaultDirName is the session base directory under the user's home.
const DefaultDirName = ".wave/sessions"

// Session is a fully loaded conversation with metadata derived from its
// messages: StartedAt from the first message, LastActiveAt from the last,
// LatestTotalTokens from the most recent message carrying usage data.
type Session struct {
	ID                string
	Type              jsonl.SessionType
	Workdir           string
	Messages          []message.Message
	StartedAt         time.Time
	LastActiveAt      time.Time
	LatestTotalTokens int
}

// EventKind classifies a store mutation.
type EventKind int

const (
	EventCreated EventKind = iota
	EventAppended
	EventDeleted
)

// Event describes a successful mutation of a session log.
type Event struct {
	Kind      EventKind
	SessionID string
	Workdir   string
	Count     int // messages appended, for EventAppended
}

// Listener receives store events. Listeners are invoked synchronously
// after the mutation has reached disk.
type Listener func(Event)

// Store manages session logs under one base directory.
type Store struct {
	baseDir string

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	dirs      map[string]*projectdir.Mapping // workdir -> cached mapping
}

// NewStore returns a store rooted at dir. An empty dir selects the
// default base directory under the user's home.
func NewStore(dir string) *Store {
	return &Store{
		baseDir:   ResolveDir(dir),
		listeners: make(map[int]Listener),
		dirs:      make(map[string]*projectdir.Mapping),
	}
}

// BaseDir returns the session base directory this store operates on.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// GenerateSessionID produces a lowercase UUID v4.
func GenerateSessionID() string {
	return uuid.NewString()
}

// ResolveDir returns explicit verbatim when given, including relative and
// "~"-prefixed forms. Otherwise it returns the default session directory.
func ResolveDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// No home to anchor to; fall back to a relative default.
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// EnsureDir creates the session base directory if needed.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return errors.SessionDirCreateFailed(s.baseDir, err)
	}
	return nil
}

// Subscribe registers a listener for store mutations and returns a
// function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(e Event) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(e)
	}
}

// projectDir returns the cached mapping for workdir, computing it on
// first use. It does not create the directory.
func (s *Store) projectDir(workdir string) (*projectdir.Mapping, error) {
	s.mu.Lock()
	if m, ok := s.dirs[workdir]; ok {
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()

	m, err := projectdir.Get(workdir, s.baseDir)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.dirs[workdir] = m
	s.mu.Unlock()
	return m, nil
}

// ProjectPath returns the encoded project directory for workdir under
// this store's base directory.
func (s *Store) ProjectPath(workdir string) (string, error) {
	m, err := s.projectDir(workdir)
	if err != nil {
		return "", err
	}
	return m.EncodedPath, nil
}

// FilePath composes the path for a session file without touching the
// filesystem: <base>/<encoded-workdir>/<filename>.
func (s *Store) FilePath(id, workdir string, sessionType jsonl.SessionType) (string, error) {
	name, err := jsonl.GenerateSessionFilename(id, sessionType)
	if err != nil {
		return "", err
	}
	m, err := s.projectDir(workdir)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.EncodedPath, name), nil
}

// resolveExisting returns the path of the session's existing file,
// checking main first, then subagent. When neither exists it returns the
// main path with exists=false.
func (s *Store) resolveExisting(id, workdir string) (path string, sessionType jsonl.SessionType, exists bool, err error) {
	mainPath, err := s.FilePath(id, workdir, jsonl.TypeMain)
	if err != nil {
		return "", "", false, err
	}
	if _, statErr := os.Stat(mainPath); statErr == nil {
		return mainPath, jsonl.TypeMain, true, nil
	}

	subPath, err := s.FilePath(id, workdir, jsonl.TypeSubagent)
	if err != nil {
		return "", "", false, err
	}
	if _, statErr := os.Stat(subPath); statErr == nil {
		return subPath, jsonl.TypeSubagent, true, nil
	}

	return mainPath, jsonl.TypeMain, false, nil
}

// Create makes an empty session log for id under workdir's project
// directory, creating both the base and project directories as needed.
func (s *Store) Create(ctx context.Context, id, workdir string, sessionType jsonl.SessionType) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := jsonl.GenerateSessionFilename(id, sessionType)
	if err != nil {
		return err
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	m, err := projectdir.Create(workdir, s.baseDir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dirs[workdir] = m
	s.mu.Unlock()

	path := filepath.Join(m.EncodedPath, name)
	if err := jsonl.CreateSessionFile(path); err != nil {
		return err
	}

	logger.Debug("Created session %s (%s) at %s", id, sessionType, path)
	s.notify(Event{Kind: EventCreated, SessionID: id, Workdir: workdir})
	return nil
}

// Append writes messages to the session's log in direct append mode. An
// empty message list performs no filesystem work at all.
func (s *Store) Append(ctx context.Context, id string, messages []message.Message, workdir string) error {
	if len(messages) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, _, exists, err := s.resolveExisting(id, workdir)
	if err != nil {
		return err
	}
	if !exists {
		// First append creates the file and its directories.
		if _, err := projectdir.Create(workdir, s.baseDir); err != nil {
			return err
		}
	}

	if err := jsonl.Append(path, messages, jsonl.AppendOptions{}); err != nil {
		return err
	}

	logger.Debug("Appended %d message(s) to session %s", len(messages), id)
	s.notify(Event{Kind: EventAppended, SessionID: id, Workdir: workdir, Count: len(messages)})
	return nil
}

// Load reads the session's full message history. Loading is best-effort
// for display purposes: a missing file, or any read failure including
// corrupted content, returns nil without error.
func (s *Store) Load(ctx context.Context, id, workdir string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, sessionType, exists, err := s.resolveExisting(id, workdir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	messages, err := jsonl.Read(path, jsonl.ReadOptions{})
	if err != nil {
		logger.Warn("Failed to load session %s: %v", id, err)
		return nil, nil
	}

	sess := &Session{
		ID:       id,
		Type:     sessionType,
		Workdir:  workdir,
		Messages: messages,
	}
	if len(messages) > 0 {
		sess.StartedAt = messages[0].Timestamp
		sess.LastActiveAt = messages[len(messages)-1].Timestamp
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Usage != nil {
				sess.LatestTotalTokens = messages[i].Usage.TotalTokens
				break
			}
		}
	}
	return sess, nil
}

// Exists reports whether a log file exists for the session. With an
// explicit type only that file is checked; otherwise main is checked
// first, then subagent.
func (s *Store) Exists(id, workdir string, sessionType ...jsonl.SessionType) bool {
	if len(sessionType) > 0 {
		path, err := s.FilePath(id, workdir, sessionType[0])
		if err != nil {
			return false
		}
		_, statErr := os.Stat(path)
		return statErr == nil
	}

	_, _, exists, err := s.resolveExisting(id, workdir)
	return err == nil && exists
}

// Delete removes the session's log file. Returns true on deletion, false
// without error when no file exists.
func (s *Store) Delete(id, workdir string) (bool, error) {
	path, _, exists, err := s.resolveExisting(id, workdir)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	logger.Debug("Deleted session %s at %s", id, path)
	s.notify(Event{Kind: EventDeleted, SessionID: id, Workdir: workdir})
	return true, nil
}
