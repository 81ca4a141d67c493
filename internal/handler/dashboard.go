package handler

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"botpanel/internal/app"
	"botpanel/internal/form"
	"botpanel/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the dashboard templates with their helper funcs.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"money":   func(d decimal.Decimal) string { return d.StringFixed(2) },
		"percent": func(d decimal.Decimal) string { return d.StringFixed(1) + "%" },
		"when": func(ts models.Timestamp) string {
			if ts.IsZero() {
				return "-"
			}
			return ts.Local().Format("2006-01-02 15:04:05")
		},
		"derefInt": func(p *int) int {
			if p == nil {
				return 0
			}
			return *p
		},
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// DashboardHandler renders the HTML dashboard and accepts its form posts.
// Every action redirects back to a section page.
type DashboardHandler struct {
	App    *app.App
	Logger *zap.Logger
	// PollSeconds drives the dashboard page's auto-reload.
	PollSeconds int
}

type confirmView struct {
	Prompt string
	Action string
}

type pageData struct {
	app.View
	Confirm     *confirmView
	PollSeconds int
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) { redirect(c, "/dashboard") })
	for _, s := range app.Sections {
		section := s
		r.GET("/"+string(section), func(c *gin.Context) { h.page(c, section) })
	}

	group := r.Group("/actions")
	group.POST("/theme", h.toggleTheme)
	group.POST("/refresh", h.refresh)
	group.POST("/notifications/:id/dismiss", h.dismiss)

	group.POST("/bots", h.submitBot)
	group.POST("/bots/editor/close", h.closeBotEditor)
	group.POST("/bots/:id/delete", h.deleteBot)
	group.POST("/bots/:id/toggle", h.toggleBot)
	group.POST("/bots/:id/restart", h.restartBot)

	group.POST("/gateways", h.submitGateway)
	group.POST("/gateways/editor/close", h.closeGatewayEditor)
	group.POST("/gateways/:id/delete", h.deleteGateway)
	group.POST("/gateways/:id/test", h.testGateway)

	group.POST("/logs/clear", h.clearLogs)
}

func hint(c *gin.Context) string {
	return c.GetHeader("Sec-CH-Prefers-Color-Scheme")
}

// page renders a section. Query parameters open editors (edit=new|<id>,
// tab=config|code) or ask for confirmation (confirm=delete&id=<id>,
// confirm=clear).
func (h *DashboardHandler) page(c *gin.Context, section app.Section) {
	if err := h.App.SetSection(section); err != nil {
		c.String(http.StatusNotFound, err.Error())
		return
	}

	data := pageData{PollSeconds: h.PollSeconds}
	if edit := strings.TrimSpace(c.Query("edit")); edit != "" {
		if err := h.openEditor(section, edit); err != nil {
			h.App.Notify.Error(err.Error())
		}
	}
	if tab := strings.TrimSpace(c.Query("tab")); tab != "" && section == app.SectionBots {
		_ = h.App.SetBotTab(app.BotTab(tab))
	}
	if confirm := strings.TrimSpace(c.Query("confirm")); confirm != "" {
		cv, err := h.confirmation(section, confirm, c.Query("id"))
		if err != nil {
			h.App.Notify.Error(err.Error())
		} else {
			data.Confirm = cv
		}
	}

	data.View = h.App.View(hint(c))
	c.HTML(http.StatusOK, "page", data)
}

func (h *DashboardHandler) openEditor(section app.Section, edit string) error {
	id := 0
	if edit != "new" {
		n, err := strconv.Atoi(edit)
		if err != nil {
			return errors.New("invalid id")
		}
		id = n
	}
	switch section {
	case app.SectionBots:
		return h.App.OpenBotEditor(id)
	case app.SectionGateways:
		return h.App.OpenGatewayEditor(id)
	}
	return nil
}

func (h *DashboardHandler) confirmation(section app.Section, kind, rawID string) (*confirmView, error) {
	if section == app.SectionLogs && kind == "clear" {
		return &confirmView{Prompt: app.ConfirmClearLogs, Action: "/actions/logs/clear"}, nil
	}
	if kind != "delete" {
		return nil, errors.New("unknown confirmation")
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, errors.New("invalid id")
	}
	switch section {
	case app.SectionBots:
		prompt, err := h.App.ConfirmBotDelete(id)
		if err != nil {
			return nil, err
		}
		return &confirmView{Prompt: prompt, Action: "/actions/bots/" + rawID + "/delete"}, nil
	case app.SectionGateways:
		prompt, err := h.App.ConfirmGatewayDelete(id)
		if err != nil {
			return nil, err
		}
		return &confirmView{Prompt: prompt, Action: "/actions/gateways/" + rawID + "/delete"}, nil
	}
	return nil, errors.New("unknown confirmation")
}

func (h *DashboardHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func confirmed(c *gin.Context) bool {
	return c.PostForm("confirm") == "yes"
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *DashboardHandler) back(c *gin.Context, fallback string) {
	if s := c.PostForm("return"); strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		redirect(c, s)
		return
	}
	redirect(c, fallback)
}

func (h *DashboardHandler) toggleTheme(c *gin.Context) {
	if _, err := h.App.ToggleTheme(c.Request.Context(), hint(c)); err != nil {
		h.logger().Warn("save theme failed", zap.Error(err))
		h.App.Notify.Error("could not save theme preference")
	}
	h.back(c, "/"+string(h.App.Section()))
}

func (h *DashboardHandler) refresh(c *gin.Context) {
	h.App.Refresh(c.Request.Context())
	h.back(c, "/"+string(h.App.Section()))
}

func (h *DashboardHandler) dismiss(c *gin.Context) {
	h.App.Notify.Dismiss(c.Param("id"))
	h.back(c, "/"+string(h.App.Section()))
}

func (h *DashboardHandler) submitBot(c *gin.Context) {
	var f form.BotForm
	if err := c.ShouldBind(&f); err != nil {
		h.App.Notify.Error("invalid bot form")
		redirect(c, "/bots")
		return
	}

	if c.PostForm("op") == "upload" {
		_ = h.App.UpdateBotDraft(f)
		fh, err := c.FormFile("code_file")
		if err != nil {
			h.App.Notify.Error("no file selected")
			redirect(c, "/bots?tab=code")
			return
		}
		file, err := fh.Open()
		if err != nil {
			h.App.Notify.Error("could not read file")
			redirect(c, "/bots?tab=code")
			return
		}
		defer file.Close()
		content, err := io.ReadAll(io.LimitReader(file, form.MaxCodeSize+1))
		if err != nil {
			h.App.Notify.Error("could not read file")
			redirect(c, "/bots?tab=code")
			return
		}
		_ = h.App.UploadBotCode(fh.Filename, content)
		redirect(c, "/bots?tab=code")
		return
	}

	_, _ = h.App.SubmitBot(c.Request.Context(), f)
	redirect(c, "/bots")
}

func (h *DashboardHandler) closeBotEditor(c *gin.Context) {
	h.App.CloseBotEditor()
	redirect(c, "/bots")
}

func (h *DashboardHandler) deleteBot(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.App.Notify.Error("invalid id")
		redirect(c, "/bots")
		return
	}
	if !confirmed(c) {
		redirect(c, "/bots?confirm=delete&id="+strconv.Itoa(id))
		return
	}
	_ = h.App.DeleteBot(c.Request.Context(), id, true)
	redirect(c, "/bots")
}

func (h *DashboardHandler) toggleBot(c *gin.Context) {
	if id, ok := pathID(c); ok {
		_ = h.App.ToggleBot(c.Request.Context(), id)
	}
	h.back(c, "/bots")
}

func (h *DashboardHandler) restartBot(c *gin.Context) {
	if id, ok := pathID(c); ok {
		_ = h.App.RestartBot(c.Request.Context(), id)
	}
	h.back(c, "/bots")
}

func (h *DashboardHandler) submitGateway(c *gin.Context) {
	var f form.GatewayForm
	if err := c.ShouldBind(&f); err != nil {
		h.App.Notify.Error("invalid gateway form")
		redirect(c, "/gateways")
		return
	}
	_, _ = h.App.SubmitGateway(c.Request.Context(), f)
	redirect(c, "/gateways")
}

func (h *DashboardHandler) closeGatewayEditor(c *gin.Context) {
	h.App.CloseGatewayEditor()
	redirect(c, "/gateways")
}

func (h *DashboardHandler) deleteGateway(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.App.Notify.Error("invalid id")
		redirect(c, "/gateways")
		return
	}
	if !confirmed(c) {
		redirect(c, "/gateways?confirm=delete&id="+strconv.Itoa(id))
		return
	}
	_ = h.App.DeleteGateway(c.Request.Context(), id, true)
	redirect(c, "/gateways")
}

func (h *DashboardHandler) testGateway(c *gin.Context) {
	if id, ok := pathID(c); ok {
		_ = h.App.TestGateway(c.Request.Context(), id)
	}
	redirect(c, "/gateways")
}

func (h *DashboardHandler) clearLogs(c *gin.Context) {
	if !confirmed(c) {
		redirect(c, "/logs?confirm=clear")
		return
	}
	_ = h.App.ClearLogs(c.Request.Context(), true)
	redirect(c, "/logs")
}
