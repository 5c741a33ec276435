package http

import "github.com/gin-gonic/gin"

// Register registers the blueprint routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	wz := rg.Group("/wizard")
	{
		wz.POST("/sessions", h.StartWizard)
		wz.GET("/sessions/:id", h.GetWizard)
		wz.POST("/sessions/:id/answers", h.UpdateWizard)
		wz.POST("/sessions/:id/advance", h.AdvanceWizard)
		wz.POST("/sessions/:id/back", h.BackWizard)
		wz.POST("/sessions/:id/assets", h.UploadAssets)
		wz.POST("/sessions/:id/finalize", h.FinalizeWizard)
	}

	rg.GET("/runs/:id", h.GetRun)
	rg.GET("/runs/:id/log", h.GetRunLog)
	rg.GET("/runs/:id/events", h.StreamRunEvents)

	rg.GET("/projects", h.ListProjects)
	rg.GET("/projects/:id", h.GetProject)
	rg.GET("/projects/:id/preview", h.PreviewProject)

	ed := rg.Group("/projects/:id/editor")
	{
		ed.POST("/open", h.OpenFile)
		ed.POST("/close", h.CloseFile)
		ed.POST("/edit", h.EditFile)
		ed.POST("/save", h.SaveEdits)
		ed.POST("/reset", h.ResetEdits)
	}

	rg.POST("/projects/:id/files", h.CreateFile)
	rg.DELETE("/projects/:id/files/*path", h.DeleteFile)
}
