package accessor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"botpanel/internal/apitest"
	"botpanel/internal/client"
	"botpanel/internal/config"
	"botpanel/internal/models"
)

// slowBots answers ListBots from a queue of gated responses.
type slowBots struct {
	BotAPI
	mu    sync.Mutex
	calls int
	gates []chan []models.Bot
}

func (s *slowBots) ListBots(ctx context.Context) ([]models.Bot, error) {
	s.mu.Lock()
	gate := s.gates[s.calls]
	s.calls++
	s.mu.Unlock()
	return <-gate, nil
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	older := make(chan []models.Bot, 1)
	newer := make(chan []models.Bot, 1)
	api := &slowBots{gates: []chan []models.Bot{older, newer}}
	a := NewBots(api, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.Refetch(context.Background())
	}()
	for {
		api.mu.Lock()
		n := api.calls
		api.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	newer <- []models.Bot{{ID: 2, Name: "new"}}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.Refetch(context.Background())
	}()
	for a.Bots() == nil {
		time.Sleep(time.Millisecond)
	}
	if !a.Loading() {
		t.Fatalf("loading should stay true while the older read is in flight")
	}

	older <- []models.Bot{{ID: 1, Name: "old"}}
	wg.Wait()

	bots := a.Bots()
	if len(bots) != 1 || bots[0].Name != "new" {
		t.Fatalf("bots=%+v want newer response", bots)
	}
	if a.Loading() {
		t.Fatalf("loading still true")
	}
}

type failingStats struct{ err error }

func (f failingStats) Stats(context.Context) (models.Stats, error) {
	return models.Stats{}, f.err
}

func TestReadErrorRecordedAndReported(t *testing.T) {
	var seen []string
	a := NewStats(failingStats{err: errors.New("boom")}, Options{
		OnRead: func(resource string, err error) {
			if err != nil {
				seen = append(seen, resource)
			}
		},
	})
	if err := a.Refetch(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if a.Err() != "boom" {
		t.Fatalf("err=%q", a.Err())
	}
	if _, ok := a.Snapshot(); ok {
		t.Fatalf("snapshot should not be loaded")
	}
	if len(seen) != 1 || seen[0] != "stats" {
		t.Fatalf("OnRead calls=%v", seen)
	}
}

func newBackend(t *testing.T) (*apitest.Backend, *client.Client) {
	t.Helper()
	b := apitest.New()
	t.Cleanup(b.Close)
	return b, client.New(config.APIConfig{BaseURL: b.URL()}, nil, nil)
}

func strp(s string) *string { return &s }

func TestMutationRefetchesAndKeepsReadErrorClean(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()
	a := NewBots(c, Options{})

	if _, err := a.Create(ctx, models.BotInput{Name: strp("Echo"), Token: strp("t")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := len(a.Bots()); got != 1 {
		t.Fatalf("bots=%d want=1 after refetch", got)
	}

	b.Fail("POST /api/bots", http.StatusInternalServerError)
	_, err := a.Create(ctx, models.BotInput{Name: strp("x"), Token: strp("t")})
	if err == nil || !strings.HasPrefix(err.Error(), "failed to create bot: ") {
		t.Fatalf("err=%v", err)
	}
	if !client.IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("wrapped error lost status: %v", err)
	}
	if a.Err() != "" {
		t.Fatalf("mutation failure leaked into read error: %q", a.Err())
	}
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()
	id := b.SeedBot("Echo", "t", false)
	a := NewBots(c, Options{})
	if err := a.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	b.Fail("POST /api/bots/:id/toggle", http.StatusBadRequest)
	if err := a.Toggle(ctx, id); err == nil {
		t.Fatalf("expected error")
	}
	bot, _ := a.Find(id)
	if bot.IsActive {
		t.Fatalf("optimistic toggle not rolled back")
	}

	b.Fail("POST /api/bots/:id/toggle", 0)
	if err := a.Toggle(ctx, id); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	bot, _ = a.Find(id)
	if !bot.IsActive {
		t.Fatalf("bot not active after successful toggle")
	}
}

type gatedToggle struct {
	BotAPI
	release chan struct{}
	started chan struct{}
}

func (g gatedToggle) ToggleBot(ctx context.Context, id int) (models.ActionResult, error) {
	close(g.started)
	<-g.release
	return models.ActionResult{}, errors.New("refused")
}

func TestToggleAppliesBeforeResponse(t *testing.T) {
	_, c := newBackend(t)
	api := gatedToggle{BotAPI: c, release: make(chan struct{}), started: make(chan struct{})}
	a := NewBots(api, Options{})
	a.res.update(func([]models.Bot) []models.Bot { return []models.Bot{{ID: 9}} })

	done := make(chan error, 1)
	go func() { done <- a.Toggle(context.Background(), 9) }()
	<-api.started
	if bot, _ := a.Find(9); !bot.IsActive {
		t.Fatalf("toggle not applied optimistically")
	}
	close(api.release)
	if err := <-done; err == nil {
		t.Fatalf("expected error")
	}
	if bot, _ := a.Find(9); bot.IsActive {
		t.Fatalf("not rolled back")
	}
}

func TestGatewayTestDelayedRefetch(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()
	id := b.SeedGateway("Shop", "Stripe", "https://pay", "Erro")
	a := NewGateways(c, 150*time.Millisecond, Options{})
	defer a.Close()
	if err := a.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	if err := a.Test(ctx, id); err != nil {
		t.Fatalf("test: %v", err)
	}
	if g, _ := a.Find(id); g.Status != models.GatewayTesting {
		t.Fatalf("status=%q want Testing", g.Status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if g, _ := a.Find(id); g.Status == models.GatewayConnected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("delayed refetch never observed Connected")
}

func TestGatewayTestFailureRestoresStatus(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()
	id := b.SeedGateway("Shop", "Stripe", "https://pay", "Conectado")
	a := NewGateways(c, time.Second, Options{})
	defer a.Close()
	_ = a.Refetch(ctx)

	b.Fail("POST /api/gateways/:id/test", http.StatusBadGateway)
	if err := a.Test(ctx, id); err == nil {
		t.Fatalf("expected error")
	}
	if g, _ := a.Find(id); g.Status != models.GatewayConnected {
		t.Fatalf("status=%q want Connected", g.Status)
	}
}

func TestGatewayCloseCancelsRecheck(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()
	id := b.SeedGateway("Shop", "Stripe", "https://pay", "Erro")
	a := NewGateways(c, 50*time.Millisecond, Options{})
	if err := a.Test(ctx, id); err != nil {
		t.Fatalf("test: %v", err)
	}
	before := b.Calls("GET /api/gateways")
	a.Close()
	time.Sleep(150 * time.Millisecond)
	if got := b.Calls("GET /api/gateways"); got != before {
		t.Fatalf("gateway reloads=%d want=%d after close", got, before)
	}
}

func TestLogsLimitAndClear(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		b.SeedLog("info", "x", nil)
	}
	a := NewLogs(c, 4, Options{})
	if err := a.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got := len(a.Logs()); got != 4 {
		t.Fatalf("logs=%d want=4", got)
	}
	a.SetLimit(6)
	if err := a.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got := len(a.Logs()); got != 6 {
		t.Fatalf("logs=%d want=6", got)
	}
	a.SetLimit(0)
	if a.Limit() != DefaultLogsLimit {
		t.Fatalf("limit=%d want=%d", a.Limit(), DefaultLogsLimit)
	}
	if err := a.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := len(a.Logs()); got != 1 {
		t.Fatalf("logs after clear=%d want=1", got)
	}
}

func TestLogsCreateRefetchesNewestFirst(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()
	b.SeedLog("info", "old", nil)
	a := NewLogs(c, 0, Options{})
	if a.Limit() != DefaultLogsLimit {
		t.Fatalf("limit=%d want=%d", a.Limit(), DefaultLogsLimit)
	}
	bot := 7
	e, err := a.Create(ctx, models.LogInput{Level: models.LogWarning, Message: "disk low", BotID: &bot})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Message != "disk low" || e.BotID == nil || *e.BotID != 7 {
		t.Fatalf("entry=%+v", e)
	}
	logs := a.Logs()
	if len(logs) != 2 || logs[0].Message != "disk low" {
		t.Fatalf("logs=%+v", logs)
	}
	if got := b.LastHeader("GET /api/logs").Get("Accept"); got != "application/json" {
		t.Fatalf("accept=%q", got)
	}
}
