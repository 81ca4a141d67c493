package accessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"botpanel/internal/models"
)

type GatewayAPI interface {
	ListGateways(ctx context.Context) ([]models.Gateway, error)
	CreateGateway(ctx context.Context, in models.GatewayInput) (models.Gateway, error)
	UpdateGateway(ctx context.Context, id int, in models.GatewayInput) (models.Gateway, error)
	DeleteGateway(ctx context.Context, id int) (models.ActionResult, error)
	TestGateway(ctx context.Context, id int) (models.ActionResult, error)
}

// DefaultTestRecheck is how long after a connection test the gateways are
// reloaded to pick up the backend's verdict.
const DefaultTestRecheck = 3 * time.Second

type GatewayAccessor struct {
	api     GatewayAPI
	res     *resource[[]models.Gateway]
	recheck time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

func NewGateways(api GatewayAPI, recheck time.Duration, opts Options) *GatewayAccessor {
	if recheck <= 0 {
		recheck = DefaultTestRecheck
	}
	return &GatewayAccessor{
		api:     api,
		res:     newResource[[]models.Gateway]("gateways", opts),
		recheck: recheck,
		logger:  opts.logger(),
		timers:  map[*time.Timer]struct{}{},
	}
}

func (a *GatewayAccessor) Refetch(ctx context.Context) error {
	return a.res.refetch(ctx, a.api.ListGateways)
}

func (a *GatewayAccessor) Gateways() []models.Gateway {
	v, _ := a.res.get()
	return append([]models.Gateway(nil), v...)
}

func (a *GatewayAccessor) Find(id int) (models.Gateway, bool) {
	v, _ := a.res.get()
	for _, g := range v {
		if g.ID == id {
			return g, true
		}
	}
	return models.Gateway{}, false
}

func (a *GatewayAccessor) Loading() bool { return a.res.loading() }
func (a *GatewayAccessor) Err() string   { return a.res.errText() }

func (a *GatewayAccessor) Create(ctx context.Context, in models.GatewayInput) (models.Gateway, error) {
	g, err := a.api.CreateGateway(ctx, in)
	if err != nil {
		return models.Gateway{}, fmt.Errorf("failed to create gateway: %w", err)
	}
	_ = a.Refetch(ctx)
	return g, nil
}

func (a *GatewayAccessor) Update(ctx context.Context, id int, in models.GatewayInput) (models.Gateway, error) {
	g, err := a.api.UpdateGateway(ctx, id, in)
	if err != nil {
		return models.Gateway{}, fmt.Errorf("failed to update gateway: %w", err)
	}
	_ = a.Refetch(ctx)
	return g, nil
}

func (a *GatewayAccessor) Delete(ctx context.Context, id int) error {
	if _, err := a.api.DeleteGateway(ctx, id); err != nil {
		return fmt.Errorf("failed to delete gateway: %w", err)
	}
	_ = a.Refetch(ctx)
	return nil
}

// Test marks the gateway Testing locally, asks the backend to test it,
// reloads, and schedules one more reload after the recheck delay.
func (a *GatewayAccessor) Test(ctx context.Context, id int) error {
	prev, known := a.setStatus(id, models.GatewayTesting)
	if _, err := a.api.TestGateway(ctx, id); err != nil {
		if known {
			a.setStatus(id, prev)
		}
		return fmt.Errorf("failed to test gateway: %w", err)
	}
	_ = a.Refetch(ctx)
	a.scheduleRefetch()
	return nil
}

// Close cancels pending delayed reloads.
func (a *GatewayAccessor) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for t := range a.timers {
		t.Stop()
		delete(a.timers, t)
	}
}

func (a *GatewayAccessor) scheduleRefetch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(a.recheck, func() {
		a.mu.Lock()
		delete(a.timers, t)
		closed := a.closed
		a.mu.Unlock()
		if closed {
			return
		}
		if err := a.Refetch(context.Background()); err != nil {
			a.logger.Warn("delayed gateway reload failed", zap.Error(err))
		}
	})
	a.timers[t] = struct{}{}
}

func (a *GatewayAccessor) setStatus(id int, status models.GatewayStatus) (prev models.GatewayStatus, found bool) {
	a.res.update(func(gws []models.Gateway) []models.Gateway {
		out := append([]models.Gateway(nil), gws...)
		for i := range out {
			if out[i].ID == id {
				prev, found = out[i].Status, true
				out[i].Status = status
			}
		}
		return out
	})
	return prev, found
}
