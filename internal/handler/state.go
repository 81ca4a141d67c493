package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"botpanel/internal/app"
)

// StateHandler exposes the view-model as JSON.
type StateHandler struct {
	App *app.App
}

func (h *StateHandler) Register(r *gin.Engine) {
	group := r.Group("/ui")
	group.GET("/state", h.state)
	group.POST("/refresh", h.refresh)
	group.POST("/section/:name", h.section)
	group.DELETE("/notifications/:id", h.dismiss)
}

// @Summary Dashboard state
// @Description Snapshot of sections, collections, notifications and open editors.
// @Tags ui
// @Produce json
// @Success 200 {object} envelope
// @Router /ui/state [get]
func (h *StateHandler) state(c *gin.Context) {
	if h.App == nil {
		Error(c, http.StatusInternalServerError, "app unavailable", nil)
		return
	}
	v := h.App.View(c.GetHeader("Sec-CH-Prefers-Color-Scheme"))
	Ok(c, v, map[string]any{"connection": v.Connection})
}

// @Summary Reload all collections
// @Tags ui
// @Produce json
// @Success 200 {object} envelope
// @Router /ui/refresh [post]
func (h *StateHandler) refresh(c *gin.Context) {
	if h.App == nil {
		Error(c, http.StatusInternalServerError, "app unavailable", nil)
		return
	}
	h.App.Refresh(c.Request.Context())
	Ok(c, gin.H{"connection": h.App.Connection()}, nil)
}

// @Summary Dismiss a notification
// @Tags ui
// @Param id path string true "notification id"
// @Success 200 {object} envelope
// @Failure 404 {object} envelope
// @Router /ui/notifications/{id} [delete]
func (h *StateHandler) dismiss(c *gin.Context) {
	if h.App == nil {
		Error(c, http.StatusInternalServerError, "app unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if !h.App.Notify.Dismiss(id) {
		Fail(c, fmt.Errorf("notification %s: %w", id, app.ErrNotFound))
		return
	}
	Ok(c, gin.H{"id": id}, nil)
}

// @Summary Switch the active section
// @Description Polling runs only while the dashboard section is active.
// @Tags ui
// @Param name path string true "dashboard|bots|gateways|users|logs"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Router /ui/section/{name} [post]
func (h *StateHandler) section(c *gin.Context) {
	if h.App == nil {
		Error(c, http.StatusInternalServerError, "app unavailable", nil)
		return
	}
	s, err := app.ParseSection(c.Param("name"))
	if err == nil {
		err = h.App.SetSection(s)
	}
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"section": s, "title": s.Title()}, nil)
}
