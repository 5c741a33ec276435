package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/pipeline"
)

// GetRun returns the run state with the visible log window.
func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.authorizedRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "run": run.Snapshot()})
}

// GetRunLog returns the complete log sequence of a run.
func (h *Handler) GetRunLog(c *gin.Context) {
	run, ok := h.authorizedRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "log": run.FullLog()})
}

// StreamRunEvents streams run updates using Server-Sent Events (SSE).
func (h *Handler) StreamRunEvents(c *gin.Context) {
	run, ok := h.authorizedRun(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	snap := run.Snapshot()
	initialData, _ := json.Marshal(gin.H{"run": snap})
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", string(initialData))
	flusher.Flush()

	ctx := c.Request.Context()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	pollTicker := time.NewTicker(500 * time.Millisecond)
	defer pollTicker.Stop()

	lastUpdatedAt := snap.UpdatedAt

	for {
		select {
		case <-ctx.Done():
			// client disconnected
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-pollTicker.C:
			updated := run.Snapshot()
			if !updated.UpdatedAt.After(lastUpdatedAt) {
				continue
			}
			lastUpdatedAt = updated.UpdatedAt

			eventData, _ := json.Marshal(gin.H{"run": updated})
			fmt.Fprintf(c.Writer, "event: update\ndata: %s\n\n", string(eventData))
			flusher.Flush()

			if updated.State != pipeline.RunRunning {
				doneData, _ := json.Marshal(gin.H{"state": updated.State})
				fmt.Fprintf(c.Writer, "event: done\ndata: %s\n\n", string(doneData))
				flusher.Flush()
				return
			}
		}
	}
}

func (h *Handler) authorizedRun(c *gin.Context) (*pipeline.Run, bool) {
	runID := c.Param("id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "run ID is required"})
		return nil, false
	}
	run, err := h.orchestrator.Get(runID)
	if err != nil {
		respondFailure(c, err)
		return nil, false
	}
	owner := ownerKeyFrom(c)
	if owner == "" || run.OwnerKey != owner {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "access denied"})
		return nil, false
	}
	return run, true
}
