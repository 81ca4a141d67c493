package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"botpanel/internal/apitest"
	"botpanel/internal/app"
	"botpanel/internal/client"
	"botpanel/internal/config"
	"botpanel/internal/metrics"
	"botpanel/internal/models"
	"botpanel/internal/notify"
)

type fixture struct {
	engine  *gin.Engine
	app     *app.App
	backend *apitest.Backend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := apitest.New()
	t.Cleanup(b.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := client.New(config.APIConfig{BaseURL: b.URL()}, nil, m)
	a, err := app.New(c, app.Options{
		UI:      config.UIConfig{NotificationDelay: time.Minute, GatewayTestDelay: time.Hour},
		Metrics: m,
	})
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(ClientHints())
	(&DashboardHandler{App: a, PollSeconds: 30}).Register(r)
	(&StateHandler{App: a}).Register(r)
	(&HealthHandler{App: a}).Register(r)
	RegisterMetrics(r, reg)
	return &fixture{engine: r, app: a, backend: b}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func TestRootRedirectsToDashboard(t *testing.T) {
	f := newFixture(t)
	w := f.get("/")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("code=%d location=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestDashboardRenders(t *testing.T) {
	f := newFixture(t)
	id := f.backend.SeedBot("Echo", "t", true)
	f.backend.SeedLog("info", "bot started", &id)
	_ = f.app.Init(context.Background())

	w := f.get("/dashboard")
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{"Connected", "1250.75", "bot started", "(Echo)", `http-equiv="refresh"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if w.Header().Get("Accept-CH") != "Sec-CH-Prefers-Color-Scheme" {
		t.Fatalf("Accept-CH=%q", w.Header().Get("Accept-CH"))
	}
}

func TestEverySectionRenders(t *testing.T) {
	f := newFixture(t)
	f.backend.SeedBot("Echo", "t", false)
	f.backend.SeedGateway("Shop", "Stripe", "https://pay", "Conectado")
	_ = f.app.Init(context.Background())
	for _, s := range app.Sections {
		w := f.get("/" + string(s))
		if w.Code != http.StatusOK {
			t.Fatalf("%s code=%d", s, w.Code)
		}
		if !strings.Contains(w.Body.String(), s.Title()) {
			t.Fatalf("%s title missing", s)
		}
		if f.app.Section() != s {
			t.Fatalf("section=%q want=%q", f.app.Section(), s)
		}
	}
	if strings.Contains(f.get("/bots").Body.String(), `http-equiv="refresh"`) {
		t.Fatalf("non-dashboard page auto-refreshes")
	}
}

func TestDeleteBotNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	id := f.backend.SeedBot("Echo", "t", false)
	_ = f.app.Init(context.Background())
	path := "/actions/bots/" + itoa(id) + "/delete"

	w := f.postForm(path, url.Values{})
	if w.Code != http.StatusSeeOther || !strings.Contains(w.Header().Get("Location"), "confirm=delete") {
		t.Fatalf("code=%d location=%q", w.Code, w.Header().Get("Location"))
	}
	if f.backend.Calls("DELETE /api/bots/:id") != 0 {
		t.Fatalf("deleted without confirmation")
	}
	page := f.get(w.Header().Get("Location")).Body.String()
	if !strings.Contains(page, "Delete bot &#34;Echo&#34;?") {
		t.Fatalf("confirmation prompt missing")
	}

	w = f.postForm(path, url.Values{"confirm": {"yes"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("code=%d", w.Code)
	}
	if f.backend.BotCount() != 0 {
		t.Fatalf("bot not deleted")
	}
}

func TestClearLogsNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.backend.SeedLog("info", "x", nil)
	w := f.postForm("/actions/logs/clear", url.Values{})
	if w.Header().Get("Location") != "/logs?confirm=clear" {
		t.Fatalf("location=%q", w.Header().Get("Location"))
	}
	if f.backend.Calls("DELETE /api/logs") != 0 {
		t.Fatalf("cleared without confirmation")
	}
	f.postForm("/actions/logs/clear", url.Values{"confirm": {"yes"}})
	if f.backend.Calls("DELETE /api/logs") != 1 {
		t.Fatalf("clear not sent")
	}
}

func TestSubmitInvalidBotSkipsBackend(t *testing.T) {
	f := newFixture(t)
	f.get("/bots?edit=new")
	w := f.postForm("/actions/bots", url.Values{"name": {"Echo"}, "token": {""}, "op": {"save"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("code=%d", w.Code)
	}
	if f.backend.Calls("POST /api/bots") != 0 {
		t.Fatalf("invalid form reached backend")
	}
	notices := f.app.Notify.List()
	if len(notices) == 0 || notices[len(notices)-1].Severity != notify.Error {
		t.Fatalf("notices=%+v", notices)
	}
	if _, open := f.app.BotEditor(); !open {
		t.Fatalf("editor closed after invalid submit")
	}
}

func TestSubmitBotCreates(t *testing.T) {
	f := newFixture(t)
	f.get("/bots?edit=new")
	f.postForm("/actions/bots", url.Values{"name": {"Echo"}, "token": {"1:a"}, "code": {"print(1)"}, "op": {"save"}})
	if f.backend.BotCount() != 1 {
		t.Fatalf("bot not created")
	}
	body := f.get("/bots").Body.String()
	if !strings.Contains(body, "Echo") || !strings.Contains(body, "1 of 5") {
		t.Fatalf("bots page missing bot or capacity")
	}
}

func TestBotEditorOffersLoadedGateways(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shop := f.backend.SeedGateway("Shop", "Stripe", "https://pay", "Conectado")
	alt := f.backend.SeedGateway("Alt", "PayPal", "https://alt", "Erro")
	id := f.backend.SeedBot("Echo", "t", true)
	_ = f.app.Init(ctx)
	if _, err := f.app.Bots.Update(ctx, id, models.BotInput{GatewayID: &shop}); err != nil {
		t.Fatalf("update: %v", err)
	}
	_ = f.app.Bots.Refetch(ctx)

	body := f.get("/bots?edit=" + itoa(id)).Body.String()
	for _, want := range []string{
		`<select name="gateway_id">`,
		`<option value="">select a gateway</option>`,
		`<option value="` + itoa(shop) + `" selected>Shop (Stripe)</option>`,
		`<option value="` + itoa(alt) + `">Alt (PayPal)</option>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("edit body missing %q", want)
		}
	}

	f.postForm("/actions/bots/editor/close", nil)
	body = f.get("/bots?edit=new").Body.String()
	if strings.Contains(body, " selected>Shop") || strings.Contains(body, " selected>Alt") {
		t.Fatalf("new bot preselects a gateway")
	}
	if !strings.Contains(body, `<option value="">select a gateway</option>`) {
		t.Fatalf("new bot missing empty gateway option")
	}
}

func TestGatewayEditorRenders(t *testing.T) {
	f := newFixture(t)
	id := f.backend.SeedGateway("Shop", "Stripe", "https://pay", "Conectado")
	_ = f.app.Init(context.Background())

	body := f.get("/gateways?edit=new").Body.String()
	for _, want := range []string{
		"New gateway",
		`<option value="BTCPay Server" selected>BTCPay Server</option>`,
		`<option value="Stripe">Stripe</option>`,
		`<option value="Mercado Pago">Mercado Pago</option>`,
		`name="api_key" value="" placeholder=""`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("new body missing %q", want)
		}
	}

	f.postForm("/actions/gateways/editor/close", nil)
	body = f.get("/gateways?edit=" + itoa(id)).Body.String()
	for _, want := range []string{
		"Edit gateway",
		`name="id" value="` + itoa(id) + `"`,
		`name="name" value="Shop"`,
		`name="api_url" value="https://pay"`,
		`<option value="Stripe" selected>Stripe</option>`,
		`<option value="BTCPay Server">BTCPay Server</option>`,
		`placeholder="leave blank to keep current"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("edit body missing %q", want)
		}
	}
}

func TestUploadNonPythonRejected(t *testing.T) {
	f := newFixture(t)
	f.get("/bots?edit=new")
	before, _ := f.app.BotEditor()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("op", "upload")
	_ = mw.WriteField("name", "Echo")
	_ = mw.WriteField("code", before.Form.Code)
	fw, _ := mw.CreateFormFile("code_file", "readme.md")
	_, _ = fw.Write([]byte("# nope"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/actions/bots", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := f.do(req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("code=%d", w.Code)
	}
	after, _ := f.app.BotEditor()
	if after.Form.Code != before.Form.Code {
		t.Fatalf("code replaced by rejected upload")
	}
	if after.Form.Name != "Echo" {
		t.Fatalf("draft not kept: %+v", after.Form)
	}
}

func TestGatewayTestAction(t *testing.T) {
	f := newFixture(t)
	f.backend.TestSettle = time.Hour
	id := f.backend.SeedGateway("Shop", "Stripe", "https://pay", "Erro")
	_ = f.app.Init(context.Background())
	f.postForm("/actions/gateways/"+itoa(id)+"/test", url.Values{})
	if f.backend.Calls("POST /api/gateways/:id/test") != 1 {
		t.Fatalf("test not sent")
	}
	if !strings.Contains(f.get("/gateways").Body.String(), "Testing") {
		t.Fatalf("testing status not rendered")
	}
}

func TestThemeToggleUsesClientHint(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", "dark")
	if !strings.Contains(f.do(req).Body.String(), `data-theme="dark"`) {
		t.Fatalf("client hint ignored")
	}

	req = httptest.NewRequest(http.MethodPost, "/actions/theme", strings.NewReader("return=%2Fbots"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", "dark")
	w := f.do(req)
	if w.Header().Get("Location") != "/bots" {
		t.Fatalf("location=%q", w.Header().Get("Location"))
	}
	if got := f.app.Theme("dark"); got != "light" {
		t.Fatalf("theme=%q want light", got)
	}
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t)
	f.backend.SeedBot("Echo", "t", false)
	_ = f.app.Init(context.Background())

	w := f.get("/ui/state")
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
	var resp struct {
		Code int `json:"code"`
		Data struct {
			Section  string `json:"section"`
			Capacity string `json:"capacity"`
			Bots     []struct {
				Name string `json:"name"`
			} `json:"bots"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != 0 || resp.Data.Section != "dashboard" || resp.Data.Capacity != "1 of 5" || len(resp.Data.Bots) != 1 {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestDismissEndpoint(t *testing.T) {
	f := newFixture(t)
	id := f.app.Notify.Info("hello")
	req := httptest.NewRequest(http.MethodDelete, "/ui/notifications/"+id, nil)
	if w := f.do(req); w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
	req = httptest.NewRequest(http.MethodDelete, "/ui/notifications/missing", nil)
	if w := f.do(req); w.Code != http.StatusNotFound {
		t.Fatalf("code=%d want 404", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)
	if w := f.get("/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz=%d", w.Code)
	}
	if w := f.get("/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz=%d body=%s", w.Code, w.Body.String())
	}
	f.backend.Fail("GET /api/health", http.StatusInternalServerError)
	if w := f.get("/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz=%d want 503", w.Code)
	}
	if w := f.get("/metrics"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "botpanel_api_requests_total") {
		t.Fatalf("metrics missing")
	}
}

func TestLevelFromStatus(t *testing.T) {
	if levelFromStatus(503).String() != "error" || levelFromStatus(404).String() != "warn" || levelFromStatus(200).String() != "info" {
		t.Fatalf("levels wrong")
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestSectionEndpoint(t *testing.T) {
	f := newFixture(t)
	w := f.do(httptest.NewRequest(http.MethodPost, "/ui/section/logs", nil))
	if w.Code != http.StatusOK || f.app.Section() != app.SectionLogs {
		t.Fatalf("code=%d section=%q", w.Code, f.app.Section())
	}
	w = f.do(httptest.NewRequest(http.MethodPost, "/ui/section/settings", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d want 400", w.Code)
	}
	if f.app.Section() != app.SectionLogs {
		t.Fatalf("section changed on bad name")
	}
}

func TestFailMapsErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{&client.HTTPError{StatusCode: 404, Status: "Not Found"}, http.StatusBadGateway},
		{app.ErrNotFound, http.StatusNotFound},
		{app.ErrUnknownSection, http.StatusBadRequest},
		{app.ErrNotConfirmed, http.StatusConflict},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Fail(c, tc.err)
		if w.Code != tc.want {
			t.Fatalf("err=%v code=%d want=%d", tc.err, w.Code, tc.want)
		}
	}
}
