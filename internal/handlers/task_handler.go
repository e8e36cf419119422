package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"project-tracker/internal/converter"
	"project-tracker/internal/datasource"
	"project-tracker/internal/importer"
	"project-tracker/internal/models"
)

// TaskRequest represents the request payload for creating or updating a task
type TaskRequest struct {
	Task                models.Task `json:"task"`
	AcknowledgeWarnings bool        `json:"acknowledgeWarnings"`
}

// ListTasks handles GET /api/tasks
// Returns the whole collection with the controller status.
func (h *Handler) ListTasks(c *gin.Context) {
	tasks := h.ctrl.Tasks()
	c.JSON(http.StatusOK, gin.H{
		"tasks":  tasks,
		"count":  len(tasks),
		"status": h.ctrl.Status(),
	})
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	t, err := h.ctrl.Task(models.TaskID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTask handles POST /api/tasks
// Warnings answer 409 until the request acknowledges them.
func (h *Handler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.ctrl.Save(c.Request.Context(), datasource.SaveRequest{
		Task:                req.Task,
		AcknowledgeWarnings: req.AcknowledgeWarnings,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// UpdateTask handles PUT /api/tasks/:id
// The body replaces the whole task; the id comes from the path.
func (h *Handler) UpdateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Task.ID = models.TaskID(c.Param("id"))

	res, err := h.ctrl.Save(c.Request.Context(), datasource.SaveRequest{
		Task:                req.Task,
		Editing:             true,
		AcknowledgeWarnings: req.AcknowledgeWarnings,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteTask handles DELETE /api/tasks/:id?confirm=true
func (h *Handler) DeleteTask(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.ctrl.Delete(c.Request.Context(), models.TaskID(c.Param("id")), confirmed); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// ValidateTask handles POST /api/tasks/validate
// Reports what a save would say without saving.
func (h *Handler) ValidateTask(c *gin.Context) {
	var req struct {
		Task    models.Task `json:"task"`
		Editing bool        `json:"editing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, issues := h.ctrl.Check(datasource.SaveRequest{Task: req.Task, Editing: req.Editing})
	c.JSON(http.StatusOK, gin.H{
		"task":     t,
		"valid":    !issues.HasBlocking(),
		"errors":   issues.Blocking().Messages(),
		"warnings": issues.Warnings().Messages(),
	})
}

// Status handles GET /api/status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Status())
}

// Reload handles POST /api/reload
// Source failures are reported in the status, never as an error response.
func (h *Handler) Reload(c *gin.Context) {
	st := h.ctrl.Load(c.Request.Context())
	if h.master != nil {
		h.master.Invalidate()
	}
	c.JSON(http.StatusOK, st)
}

// Import handles POST /api/import (multipart field "file")
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	res, err := h.ctrl.Import(c.Request.Context(), fh.Filename, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result": res,
		"status": h.ctrl.Status(),
	})
}

// Export handles GET /api/export
// Streams the collection in the import schema as ?format=csv (default) or xlsx,
// so the file can be edited and imported back.
func (h *Handler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	name := "tasks." + format
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	var buf bytes.Buffer
	records := converter.ConvertTaskToExternal(h.ctrl.Tasks())
	if err := importer.Write(name, &buf, converter.ExternalColumns, records); err != nil {
		h.respondError(c, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
