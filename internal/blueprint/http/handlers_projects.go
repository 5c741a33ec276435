package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/vfs"
)

// ListProjects lists the persisted blueprints owned by the caller.
func (h *Handler) ListProjects(c *gin.Context) {
	ownerKey := ownerKeyFrom(c)
	if ownerKey == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}
	projects, err := h.projects.ListProjects(c.Request.Context(), ownerKey)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": projects})
}

// GetProject returns one persisted blueprint with its file tree.
func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.authorizedProject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"project": project,
		"tree":    vfs.BuildTree(project.Files),
	})
}

func (h *Handler) authorizedProject(c *gin.Context) (*domain.GeneratedProject, bool) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "project ID is required"})
		return nil, false
	}
	project, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, err)
		return nil, false
	}
	owner := ownerKeyFrom(c)
	if owner == "" || project.OwnerKey != owner {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "access denied"})
		return nil, false
	}
	return project, true
}
