package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"project-tracker/internal/derived"
	"project-tracker/internal/models"
	"project-tracker/internal/normalize"
	"project-tracker/internal/views"
)

// filterFromQuery builds the filter from the query string. The toggles default
// to the saved preferences.
func (h *Handler) filterFromQuery(c *gin.Context) models.FilterState {
	prefs, err := h.prefs.Preferences(c.Request.Context())
	if err != nil {
		h.logger.Warningf("could not read preferences: %s", err)
		prefs = models.DefaultPreferences()
	}

	f := models.FilterState{
		Team:            c.DefaultQuery("team", models.TeamAll),
		Project:         c.DefaultQuery("project", models.TeamAll),
		Stat:            models.ParseStatCategory(c.Query("stat")),
		Query:           c.Query("q"),
		HideCompleted:   prefs.HideCompleted,
		HighlightUrgent: prefs.HighlightUrgent,
	}
	if v, err := strconv.ParseBool(c.Query("hideCompleted")); err == nil {
		f.HideCompleted = v
	}
	if v, err := strconv.ParseBool(c.Query("highlightUrgent")); err == nil {
		f.HighlightUrgent = v
	}
	return f
}

// Dashboard handles GET /api/dashboard
// Returns the derived state and the list rows for the filter in the query.
func (h *Handler) Dashboard(c *gin.Context) {
	f := h.filterFromQuery(c)
	st := h.ctrl.Status()

	in := derived.Input{
		Tasks:  h.ctrl.Tasks(),
		Filter: f,
		Today:  h.ctrl.Today(),
	}
	if st.Offline {
		in.OfflineReason = st.Error
		if in.OfflineReason == "" {
			in.OfflineReason = "offline"
		}
	}
	if h.master != nil {
		in.Teams = h.master.Get(c.Request.Context(), st.Offline).Teams
	}

	state := h.engine.Compute(in)
	c.JSON(http.StatusOK, gin.H{
		"filter": f,
		"state":  state,
		"rows":   views.List(state, h.engine.Palette(), f.HighlightUrgent),
		"status": st,
	})
}

// Calendar handles GET /api/calendar?year=&month=&q=
// Defaults to the current month.
func (h *Handler) Calendar(c *gin.Context) {
	today, _ := normalize.ParseDate(h.ctrl.Today())
	year, month := today.Year(), today.Month()

	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
			return
		}
		year = y
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
			return
		}
		month = time.Month(m)
	}

	cal := views.Calendar(h.ctrl.Tasks(), year, month, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"calendar": cal,
		"weeks":    cal.Weeks(),
	})
}

// Gantt handles GET /api/gantt?team=&q=
func (h *Handler) Gantt(c *gin.Context) {
	chart := views.Gantt(h.ctrl.Tasks(), h.engine.Palette(), c.DefaultQuery("team", models.TeamAll), c.Query("q"), h.ctrl.Today())
	c.JSON(http.StatusOK, chart)
}
