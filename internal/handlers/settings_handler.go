package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"project-tracker/internal/models"
)

// GetPreferences handles GET /api/preferences
func (h *Handler) GetPreferences(c *gin.Context) {
	p, err := h.prefs.Preferences(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePreferences handles PUT /api/preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var p models.Preferences
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.prefs.SavePreferences(c.Request.Context(), p); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetMasterData handles GET /api/master
// Returns the vocabularies for the task form, with fallbacks when offline.
func (h *Handler) GetMasterData(c *gin.Context) {
	if h.master == nil {
		c.JSON(http.StatusOK, gin.H{
			"teams":      h.vocabulary.Teams,
			"projects":   h.vocabulary.Projects,
			"owners":     h.vocabulary.Owners,
			"categories": h.vocabulary.Categories,
			"fallback":   []string{"teams", "projects", "owners"},
		})
		return
	}
	c.JSON(http.StatusOK, h.master.Get(c.Request.Context(), h.ctrl.Status().Offline))
}

// GetSettings handles GET /api/settings/master (admin)
// Returns the live and configured vocabularies, the key count and the
// operations the outbox gave up on.
func (h *Handler) GetSettings(c *gin.Context) {
	resp := gin.H{
		"configured": h.vocabulary,
		"accessKeys": h.keys.Len(),
		"failedOps":  []models.Operation{},
	}
	if h.master != nil {
		resp["live"] = h.master.Get(c.Request.Context(), h.ctrl.Status().Offline)
	}
	if h.ops != nil {
		ops, err := h.ops.Failed(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp["failedOps"] = ops
	}
	c.JSON(http.StatusOK, resp)
}

// RetryOperation handles POST /api/settings/operations/:id/retry (admin)
func (h *Handler) RetryOperation(c *gin.Context) {
	if h.ops == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No outbox configured"})
		return
	}
	if err := h.ops.Retry(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.kick()
	c.JSON(http.StatusOK, gin.H{"message": "Operation queued for retry"})
}
