package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/preview"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/vfs"
	"github.com/blueprintforge/blueprint-backend/internal/logging"
)

func (h *Handler) editorRole(c *gin.Context) vfs.Role {
	if h.adminKey != "" && c.GetHeader("X-Admin-Key") == h.adminKey {
		return vfs.RoleAdmin
	}
	return vfs.RoleUser
}

// editorSession returns the caller's session for the project, creating it
// from the persisted snapshot on first use.
func (h *Handler) editorSession(c *gin.Context) (*vfs.Session, bool) {
	project, ok := h.authorizedProject(c)
	if !ok {
		return nil, false
	}

	key := project.ID + "::" + ownerKeyFrom(c)
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[key]; ok {
		return s, true
	}

	s := vfs.NewSession(project, h.projects)
	h.sessions[key] = s
	return s, true
}

// warnUnknownPath logs a no-op editor operation against the request that
// issued it.
func warnUnknownPath(c *gin.Context, op, path string) {
	logger := logging.NewLogger(c.Request.Context())
	logger.LogWarnf("editor", "%s: unknown path %q", op, path)
}

func sessionState(s *vfs.Session) gin.H {
	return gin.H{
		"tree":          s.Tree(),
		"open_files":    s.OpenFiles(),
		"selected_file": s.SelectedFile(),
		"dirty":         s.Dirty(),
	}
}

// OpenFile opens a file tab and selects it.
func (h *Handler) OpenFile(c *gin.Context) {
	s, ok := h.editorSession(c)
	if !ok {
		return
	}
	var body struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "path is required"})
		return
	}
	if !s.Open(body.Path) {
		warnUnknownPath(c, "open", body.Path)
	}
	content, _ := s.Content(body.Path)
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": sessionState(s), "content": content})
}

// CloseFile closes a file tab; selection falls back to the most recently
// opened remaining tab.
func (h *Handler) CloseFile(c *gin.Context) {
	s, ok := h.editorSession(c)
	if !ok {
		return
	}
	var body struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "path is required"})
		return
	}
	if !s.Close(body.Path) {
		warnUnknownPath(c, "close", body.Path)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": sessionState(s)})
}

// EditFile stages new content for a file. Staged edits are not visible in
// the working files until saved.
func (h *Handler) EditFile(c *gin.Context) {
	s, ok := h.editorSession(c)
	if !ok {
		return
	}
	var body struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "path is required"})
		return
	}
	if !s.Edit(body.Path, body.Content) {
		warnUnknownPath(c, "edit", body.Path)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": sessionState(s)})
}

// SaveEdits merges staged edits into the working files and persists them.
// On persistence failure the staged edits are kept for a retry.
func (h *Handler) SaveEdits(c *gin.Context) {
	s, ok := h.editorSession(c)
	if !ok {
		return
	}
	if err := s.Save(c.Request.Context()); err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": sessionState(s)})
}

// ResetEdits discards staged edits and reloads the last-persisted snapshot.
func (h *Handler) ResetEdits(c *gin.Context) {
	s, ok := h.editorSession(c)
	if !ok {
		return
	}
	s.Reset()
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": sessionState(s)})
}

// CreateFile adds a new file to the project. Admin only.
func (h *Handler) CreateFile(c *gin.Context) {
	s, ok := h.editorSession(c)
	if !ok {
		return
	}
	var body struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "path is required"})
		return
	}
	if err := s.CreateFile(c.Request.Context(), h.editorRole(c), body.Path); err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "state": sessionState(s)})
}

// DeleteFile removes a file from the project. Admin only.
func (h *Handler) DeleteFile(c *gin.Context) {
	s, ok := h.editorSession(c)
	if !ok {
		return
	}
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "path is required"})
		return
	}
	if err := s.DeleteFile(c.Request.Context(), h.editorRole(c), path); err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": sessionState(s)})
}

// PreviewProject composes the project's files into a single HTML document.
// The composition reads the editor session's working files when a session
// exists, so saved edits show up and staged ones do not.
func (h *Handler) PreviewProject(c *gin.Context) {
	project, ok := h.authorizedProject(c)
	if !ok {
		return
	}

	files := project.Files
	key := project.ID + "::" + ownerKeyFrom(c)
	h.mu.Lock()
	if s, ok := h.sessions[key]; ok {
		files = s.Files()
	}
	h.mu.Unlock()

	doc := preview.Render(files)
	c.Header("Content-Security-Policy", "sandbox allow-scripts")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}
