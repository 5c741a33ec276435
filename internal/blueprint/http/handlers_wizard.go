package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/upload"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/wizard"
	"github.com/blueprintforge/blueprint-backend/internal/logging"
)

func ownerKeyFrom(c *gin.Context) string {
	return c.GetHeader("X-User-Id")
}

// StartWizard opens a new wizard session for the caller. A previously
// auto-saved draft is restored when one exists.
func (h *Handler) StartWizard(c *gin.Context) {
	ownerKey := ownerKeyFrom(c)
	if ownerKey == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	saver := wizard.NewAutosaver(func(d domain.WizardDraft) {
		h.drafts.Save(context.Background(), ownerKey, d)
	})

	var wiz *wizard.Wizard
	restored := false
	if d, ok := h.drafts.Load(c.Request.Context(), ownerKey); ok {
		wiz = wizard.Restore(d, saver)
		restored = true
	} else {
		wiz = wizard.New(saver)
	}

	ws := &wizardSession{
		ID:       uuid.NewString(),
		OwnerKey: ownerKey,
		Wizard:   wiz,
		Saver:    saver,
	}
	h.mu.Lock()
	h.wizards[ws.ID] = ws
	h.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"ok":         true,
		"session_id": ws.ID,
		"restored":   restored,
		"step":       wiz.Step().String(),
		"draft":      wiz.Draft(),
	})
}

// GetWizard returns the current step and intent snapshot of a session.
func (h *Handler) GetWizard(c *gin.Context) {
	ws, ok := h.wizardSession(c)
	if !ok {
		return
	}
	questions := wizard.QuestionsFor(ws.Wizard.Draft().Intent.ProjectType)
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"step":      ws.Wizard.Step().String(),
		"draft":     ws.Wizard.Draft(),
		"questions": questions,
		"finalized": ws.Wizard.Finalized(),
	})
}

// UpdateWizard applies partial intent mutations. Each applied field counts
// as one edit toward the debounced autosave.
func (h *Handler) UpdateWizard(c *gin.Context) {
	ws, ok := h.wizardSession(c)
	if !ok {
		return
	}

	var body struct {
		ProjectType  *string                                  `json:"project_type,omitempty"`
		AgentPersona *string                                  `json:"agent_persona,omitempty"`
		Description  *string                                  `json:"description,omitempty"`
		Answers      map[domain.QuestionID]domain.AnswerValue `json:"answers,omitempty"`
		Contact      *domain.Contact                          `json:"contact,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	apply := func(err error) bool {
		if err != nil {
			respondFailure(c, err)
			return false
		}
		return true
	}

	if body.ProjectType != nil {
		t := domain.ProjectType(*body.ProjectType)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown project type"})
			return
		}
		if !apply(ws.Wizard.SetProjectType(t)) {
			return
		}
	}
	if body.AgentPersona != nil {
		if !apply(ws.Wizard.SetAgentPersona(domain.AgentPersona(*body.AgentPersona))) {
			return
		}
	}
	if body.Description != nil {
		if !apply(ws.Wizard.SetDescription(*body.Description)) {
			return
		}
	}
	for id, v := range body.Answers {
		if !apply(ws.Wizard.SetAnswer(id, v)) {
			return
		}
	}
	if body.Contact != nil {
		if !apply(ws.Wizard.SetContact(*body.Contact)) {
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "step": ws.Wizard.Step().String(), "draft": ws.Wizard.Draft()})
}

// AdvanceWizard validates the current step and moves forward.
func (h *Handler) AdvanceWizard(c *gin.Context) {
	ws, ok := h.wizardSession(c)
	if !ok {
		return
	}
	if err := ws.Wizard.Advance(); err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "step": ws.Wizard.Step().String()})
}

// BackWizard moves one step back. Going back never validates.
func (h *Handler) BackWizard(c *gin.Context) {
	ws, ok := h.wizardSession(c)
	if !ok {
		return
	}
	ws.Wizard.Back()
	c.JSON(http.StatusOK, gin.H{"ok": true, "step": ws.Wizard.Step().String()})
}

// UploadAssets fans the multipart files out to the upload service. Failed
// files are reported individually and never block the successful ones.
func (h *Handler) UploadAssets(c *gin.Context) {
	ws, ok := h.wizardSession(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid multipart form"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "no files provided"})
		return
	}

	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable file: " + fh.Filename})
			return
		}
		f, err := upload.ReadFile(fh.Filename, fh.Header.Get("Content-Type"), src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable file: " + fh.Filename})
			return
		}
		files = append(files, f)
	}

	assets, errs := h.uploads.UploadAll(c.Request.Context(), ws.OwnerKey, files)
	if err := ws.Wizard.AppendAssets(assets); err != nil {
		respondFailure(c, err)
		return
	}

	failures := make([]string, 0, len(errs))
	for _, e := range errs {
		failures = append(failures, e.Error())
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"uploaded": assets,
		"failed":   failures,
	})
}

// FinalizeWizard locks the intent and starts the build run.
func (h *Handler) FinalizeWizard(c *gin.Context) {
	ws, ok := h.wizardSession(c)
	if !ok {
		return
	}

	intent, err := ws.Wizard.Finalize()
	if err != nil {
		respondFailure(c, err)
		return
	}
	ws.Saver.Flush()
	ws.Saver.Stop()

	// the run outlives this request
	run := h.orchestrator.Start(context.Background(), ws.OwnerKey, intent)
	logging.NewLogger(c.Request.Context()).LogInfof("wizard", "session %s finalized, run %s started", ws.ID, run.ID)

	c.JSON(http.StatusAccepted, gin.H{"ok": true, "run_id": run.ID})
}

func (h *Handler) wizardSession(c *gin.Context) (*wizardSession, bool) {
	id := c.Param("id")
	h.mu.Lock()
	ws, ok := h.wizards[id]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "wizard session not found"})
		return nil, false
	}
	if owner := ownerKeyFrom(c); owner == "" || owner != ws.OwnerKey {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "access denied"})
		return nil, false
	}
	return ws, true
}

// respondFailure maps domain errors onto HTTP statuses.
func respondFailure(c *gin.Context, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": ve.Message, "field": ve.Field})
		return
	}
	if f, ok := domain.FailureOf(err); ok {
		status := http.StatusInternalServerError
		switch f.Kind {
		case domain.FailValidation:
			status = http.StatusBadRequest
		case domain.FailUpload, domain.FailGeneration, domain.FailReview:
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"ok": false, "error": f.Message, "kind": string(f.Kind)})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
