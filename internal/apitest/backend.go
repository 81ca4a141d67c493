// Package apitest runs an in-memory stand-in for the bot backend REST API.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const naiveLayout = "2006-01-02T15:04:05.000000"

type bot struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Token     string `json:"token"`
	Code      string `json:"code"`
	IsActive  bool   `json:"is_active"`
	GatewayID *int   `json:"gateway_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type gateway struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	APIURL    string `json:"api_url"`
	APIKey    string `json:"-"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type logEntry struct {
	ID        int    `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	BotID     *int   `json:"bot_id"`
	Timestamp string `json:"timestamp"`
}

// Backend is a fake backend. Zero value is not usable; call New.
type Backend struct {
	Server *httptest.Server

	// TestSettle is how long a gateway stays "Testando" before it
	// becomes "Conectado".
	TestSettle time.Duration

	mu       sync.Mutex
	nextID   int
	bots     map[int]*bot
	gateways map[int]*gateway
	logs     []logEntry
	failures map[string]int
	calls    map[string]int
	lastBody map[string]map[string]any
	lastHdr  map[string]http.Header
}

func New() *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		TestSettle: 50 * time.Millisecond,
		nextID:     1,
		bots:       map[int]*bot{},
		gateways:   map[int]*gateway{},
		failures:   map[string]int{},
		calls:      map[string]int{},
		lastBody:   map[string]map[string]any{},
		lastHdr:    map[string]http.Header{},
	}
	r := gin.New()
	r.Use(b.track)
	api := r.Group("/api")
	api.GET("/stats", b.stats)
	api.GET("/health", b.health)
	api.GET("/bots", b.listBots)
	api.POST("/bots", b.createBot)
	api.PUT("/bots/:id", b.updateBot)
	api.DELETE("/bots/:id", b.deleteBot)
	api.POST("/bots/:id/toggle", b.toggleBot)
	api.POST("/bots/:id/restart", b.restartBot)
	api.GET("/gateways", b.listGateways)
	api.POST("/gateways", b.createGateway)
	api.PUT("/gateways/:id", b.updateGateway)
	api.DELETE("/gateways/:id", b.deleteGateway)
	api.POST("/gateways/:id/test", b.testGateway)
	api.GET("/logs", b.listLogs)
	api.POST("/logs", b.createLog)
	api.DELETE("/logs", b.clearLogs)
	b.Server = httptest.NewServer(r)
	return b
}

// URL is the API base, including the /api prefix.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

func (b *Backend) Close() {
	b.Server.Close()
}

// Fail makes every request matching "METHOD /api/route" answer with status.
// Routes use gin syntax, e.g. "POST /api/bots/:id/toggle". status 0 clears it.
func (b *Backend) Fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = status
}

// Calls returns how many requests hit route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// LastBody returns the decoded JSON body of the last request on route.
func (b *Backend) LastBody(route string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody[route]
}

func (b *Backend) LastHeader(route string) http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHdr[route]
}

// SeedBot inserts a bot directly and returns its id.
func (b *Backend) SeedBot(name, token string, active bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	now := stamp()
	b.bots[id] = &bot{ID: id, Name: name, Token: token, IsActive: active, CreatedAt: now, UpdatedAt: now}
	return id
}

func (b *Backend) SeedGateway(name, typ, apiURL, status string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	b.gateways[id] = &gateway{ID: id, Name: name, Type: typ, APIURL: apiURL, APIKey: "seed", Status: status, CreatedAt: stamp()}
	return id
}

func (b *Backend) SeedLog(level, message string, botID *int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addLog(level, message, botID)
}

// GatewayKey exposes the stored secret so tests can check update semantics.
func (b *Backend) GatewayKey(id int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.gateways[id]; ok {
		return g.APIKey
	}
	return ""
}

func (b *Backend) BotActive(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bt, ok := b.bots[id]; ok {
		return bt.IsActive
	}
	return false
}

func (b *Backend) BotCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bots)
}

func (b *Backend) LogCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.logs)
}

func (b *Backend) track(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()
	var body map[string]any
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&body)
	}
	b.mu.Lock()
	b.calls[route]++
	b.lastHdr[route] = c.Request.Header.Clone()
	if body != nil {
		b.lastBody[route] = body
	}
	status := b.failures[route]
	b.mu.Unlock()

	if body != nil {
		c.Set("body", body)
	}
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"detail": "injected failure"})
		return
	}
	c.Next()
}

func (b *Backend) allocID() int {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Backend) addLog(level, message string, botID *int) {
	b.logs = append(b.logs, logEntry{ID: b.allocID(), Level: level, Message: message, BotID: botID, Timestamp: stamp()})
}

func stamp() string {
	return time.Now().UTC().Format(naiveLayout)
}

func bodyOf(c *gin.Context) map[string]any {
	if v, ok := c.Get("body"); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}

func str(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intPtr(m map[string]any, key string) *int {
	v, ok := m[key].(float64)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid id"})
		return 0, false
	}
	return id, true
}

func (b *Backend) stats(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	active, connected := 0, 0
	for _, bt := range b.bots {
		if bt.IsActive {
			active++
		}
	}
	for _, g := range b.gateways {
		if g.Status == "Conectado" {
			connected++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total_revenue":      1250.75,
		"total_transactions": 42,
		"active_bots":        active,
		"total_bots":         len(b.bots),
		"connected_gateways": connected,
		"total_gateways":     len(b.gateways),
	})
}

func (b *Backend) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": stamp()})
}

func (b *Backend) listBots(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bot, 0, len(b.bots))
	for _, bt := range b.bots {
		out = append(out, *bt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createBot(c *gin.Context) {
	in := bodyOf(c)
	name, _ := str(in, "name")
	token, _ := str(in, "token")
	if name == "" || token == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "name and token required"})
		return
	}
	code, _ := str(in, "code")
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	now := stamp()
	bt := &bot{ID: id, Name: name, Token: token, Code: code, GatewayID: intPtr(in, "gateway_id"), CreatedAt: now, UpdatedAt: now}
	b.bots[id] = bt
	b.addLog("success", fmt.Sprintf("Bot '%s' criado com sucesso", name), &id)
	c.JSON(http.StatusOK, bt)
}

func (b *Backend) updateBot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	in := bodyOf(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.bots[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Bot não encontrado"})
		return
	}
	if v, ok := str(in, "name"); ok {
		bt.Name = v
	}
	if v, ok := str(in, "token"); ok {
		bt.Token = v
	}
	if v, ok := str(in, "code"); ok {
		bt.Code = v
	}
	if v := intPtr(in, "gateway_id"); v != nil {
		bt.GatewayID = v
	}
	bt.UpdatedAt = stamp()
	c.JSON(http.StatusOK, bt)
}

func (b *Backend) deleteBot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.bots[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Bot não encontrado"})
		return
	}
	delete(b.bots, id)
	b.addLog("warning", fmt.Sprintf("Bot '%s' excluído", bt.Name), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Bot excluído com sucesso"})
}

func (b *Backend) toggleBot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.bots[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Bot não encontrado"})
		return
	}
	bt.IsActive = !bt.IsActive
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (b *Backend) restartBot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.bots[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Bot não encontrado"})
		return
	}
	b.addLog("info", fmt.Sprintf("Reiniciando bot '%s'...", bt.Name), &id)
	c.JSON(http.StatusOK, gin.H{"message": "Reinício do bot iniciado"})
}

func (b *Backend) listGateways(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]gateway, 0, len(b.gateways))
	for _, g := range b.gateways {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createGateway(c *gin.Context) {
	in := bodyOf(c)
	name, _ := str(in, "name")
	apiURL, _ := str(in, "api_url")
	key, _ := str(in, "api_key")
	typ, _ := str(in, "type")
	if name == "" || apiURL == "" || key == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "name, api_url and api_key required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	g := &gateway{ID: id, Name: name, Type: typ, APIURL: apiURL, APIKey: key, Status: "Erro", CreatedAt: stamp()}
	b.gateways[id] = g
	b.addLog("success", fmt.Sprintf("Gateway '%s' criado com sucesso", name), nil)
	c.JSON(http.StatusOK, g)
}

func (b *Backend) updateGateway(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	in := bodyOf(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.gateways[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Gateway não encontrado"})
		return
	}
	if v, ok := str(in, "name"); ok {
		g.Name = v
	}
	if v, ok := str(in, "type"); ok {
		g.Type = v
	}
	if v, ok := str(in, "api_url"); ok {
		g.APIURL = v
	}
	if v, ok := str(in, "api_key"); ok {
		g.APIKey = v
	}
	c.JSON(http.StatusOK, g)
}

func (b *Backend) deleteGateway(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.gateways[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Gateway não encontrado"})
		return
	}
	delete(b.gateways, id)
	b.addLog("warning", fmt.Sprintf("Gateway '%s' excluído", g.Name), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Gateway excluído com sucesso"})
}

func (b *Backend) testGateway(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b.mu.Lock()
	g, ok := b.gateways[id]
	if !ok {
		b.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"detail": "Gateway não encontrado"})
		return
	}
	g.Status = "Testando"
	settle := b.TestSettle
	b.mu.Unlock()

	time.AfterFunc(settle, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if g, ok := b.gateways[id]; ok && g.Status == "Testando" {
			g.Status = "Conectado"
		}
	})
	c.JSON(http.StatusOK, gin.H{"message": "Teste de conexão iniciado"})
}

func (b *Backend) listLogs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid limit"})
			return
		}
		limit = n
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]logEntry, 0, len(b.logs))
	for i := len(b.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, b.logs[i])
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createLog(c *gin.Context) {
	in := bodyOf(c)
	level, _ := str(in, "level")
	msg, _ := str(in, "message")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addLog(level, msg, intPtr(in, "bot_id"))
	c.JSON(http.StatusOK, b.logs[len(b.logs)-1])
}

func (b *Backend) clearLogs(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = nil
	b.addLog("info", "Logs limpos pelo usuário", nil)
	c.JSON(http.StatusOK, gin.H{"message": "Logs limpos com sucesso"})
}
