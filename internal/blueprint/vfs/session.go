package vfs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

// Role gates the privileged editor operations. It is resolved per request
// and passed per call, never stored on the session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Persister saves the working files map back through the persistence gateway.
type Persister interface {
	UpdateFiles(ctx context.Context, projectID string, files map[string]string) error
}

// Session owns the editable view of one generated project. Edits are staged
// and do not touch the files map until Save; Reset discards staged edits and
// reloads the last-persisted snapshot. Sessions are shared across requests,
// so every operation takes the session lock.
type Session struct {
	mu        sync.Mutex
	projectID string
	persister Persister

	baseline map[string]string // last-persisted snapshot
	files    map[string]string // working truth
	order    []string          // first-seen path order for the tree view
	tree     *Node

	openFiles    []string
	selectedFile string
	pendingEdits map[string]string
	dirty        bool
}

// NewSession builds an editor session over the project's files.
func NewSession(project *domain.GeneratedProject, persister Persister) *Session {
	s := &Session{
		projectID:    project.ID,
		persister:    persister,
		baseline:     copyFiles(project.Files),
		files:        copyFiles(project.Files),
		pendingEdits: make(map[string]string),
	}
	s.order = sortedPaths(s.files)
	s.rebuild()
	return s
}

// rebuild derives the tree view. Caller holds the lock.
func (s *Session) rebuild() {
	s.tree = BuildTreeOrdered(s.order, s.files)
}

// Tree returns the current derived tree view.
func (s *Session) Tree() *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Dirty reports whether unsaved staged edits exist.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// SelectedFile returns the currently selected path, or "".
func (s *Session) SelectedFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedFile
}

// OpenFiles returns the ordered open tabs.
func (s *Session) OpenFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.openFiles))
	copy(out, s.openFiles)
	return out
}

// Files returns a copy of the working files map.
func (s *Session) Files() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyFiles(s.files)
}

// Content returns the staged content for path if an edit is pending,
// otherwise the saved content.
func (s *Session) Content(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.pendingEdits[path]; ok {
		return c, true
	}
	c, ok := s.files[path]
	return c, ok
}

// Open adds path to the open tabs (no duplicates) and selects it. An unknown
// path is a no-op and reported as false so the caller can log it.
func (s *Session) Open(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open(path)
}

func (s *Session) open(path string) bool {
	if _, ok := s.files[path]; !ok {
		return false
	}
	for _, p := range s.openFiles {
		if p == path {
			s.selectedFile = path
			return true
		}
	}
	s.openFiles = append(s.openFiles, path)
	s.selectedFile = path
	return true
}

// Close removes path from the open tabs. If it was selected, the most
// recently remaining open file becomes selected, else none. Returns false
// when path was not open.
func (s *Session) Close(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.close(path)
}

func (s *Session) close(path string) bool {
	idx := -1
	for i, p := range s.openFiles {
		if p == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.openFiles = append(s.openFiles[:idx], s.openFiles[idx+1:]...)
	if s.selectedFile == path {
		if n := len(s.openFiles); n > 0 {
			s.selectedFile = s.openFiles[n-1]
		} else {
			s.selectedFile = ""
		}
	}
	return true
}

// Edit stages new content for path. The files map is untouched until Save.
// An unknown path is a no-op and reported as false.
func (s *Session) Edit(path, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return false
	}
	s.pendingEdits[path] = content
	s.dirty = true
	return true
}

// Save merges staged edits into the files map, persists the result, rebuilds
// the tree and clears the dirty flag. On persistence failure the staged
// edits are kept for a retry.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pendingEdits) == 0 && !s.dirty {
		return nil
	}
	merged := copyFiles(s.files)
	for p, c := range s.pendingEdits {
		merged[p] = c
	}
	if s.persister != nil {
		if err := s.persister.UpdateFiles(ctx, s.projectID, merged); err != nil {
			return domain.WrapFailure(domain.FailPersistence, "save files", err)
		}
	}
	s.files = merged
	s.baseline = copyFiles(merged)
	s.pendingEdits = make(map[string]string)
	s.dirty = false
	s.rebuild()
	return nil
}

// Reset discards staged edits and reloads the last-persisted snapshot.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingEdits = make(map[string]string)
	s.files = copyFiles(s.baseline)
	s.dirty = false
	s.order = keepKnown(s.order, s.files)
	for _, p := range sortedPaths(s.files) {
		if !contains(s.order, p) {
			s.order = append(s.order, p)
		}
	}
	s.openFiles = keepKnown(s.openFiles, s.files)
	if _, ok := s.files[s.selectedFile]; !ok {
		s.selectedFile = ""
		if n := len(s.openFiles); n > 0 {
			s.selectedFile = s.openFiles[n-1]
		}
	}
	s.rebuild()
}

// CreateFile adds a new empty-ish file immediately (not staged), persists,
// rebuilds the tree and opens the new tab. Admin only.
func (s *Session) CreateFile(ctx context.Context, role Role, path string) error {
	if role != RoleAdmin {
		return domain.ErrForbidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		return &domain.ValidationError{Field: "path", Message: "path required"}
	}
	if _, ok := s.files[path]; ok {
		return &domain.ValidationError{Field: "path", Message: fmt.Sprintf("file %q already exists", path)}
	}
	next := copyFiles(s.files)
	next[path] = "// New file"
	if s.persister != nil {
		if err := s.persister.UpdateFiles(ctx, s.projectID, next); err != nil {
			return domain.WrapFailure(domain.FailPersistence, "create file", err)
		}
	}
	s.files = next
	s.baseline[path] = "// New file"
	s.order = append(s.order, path)
	s.rebuild()
	s.open(path)
	return nil
}

// DeleteFile removes a file immediately (not staged), persists, rebuilds the
// tree and closes the tab if it was open. Admin only.
func (s *Session) DeleteFile(ctx context.Context, role Role, path string) error {
	if role != RoleAdmin {
		return domain.ErrForbidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return domain.ErrNotFound
	}
	next := copyFiles(s.files)
	delete(next, path)
	if s.persister != nil {
		if err := s.persister.UpdateFiles(ctx, s.projectID, next); err != nil {
			return domain.WrapFailure(domain.FailPersistence, "delete file", err)
		}
	}
	s.files = next
	delete(s.baseline, path)
	delete(s.pendingEdits, path)
	s.order = keepKnown(s.order, s.files)
	if contains(s.openFiles, path) {
		s.close(path)
	}
	s.rebuild()
	return nil
}

func copyFiles(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func keepKnown(paths []string, files map[string]string) []string {
	out := paths[:0]
	for _, p := range paths {
		if _, ok := files[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func contains(paths []string, p string) bool {
	for _, q := range paths {
		if q == p {
			return true
		}
	}
	return false
}
