package accessor

import (
	"context"
	"fmt"
	"sync/atomic"

	"botpanel/internal/models"
)

type LogAPI interface {
	ListLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
	CreateLog(ctx context.Context, in models.LogInput) (models.LogEntry, error)
	ClearLogs(ctx context.Context) (models.ActionResult, error)
}

const DefaultLogsLimit = 100

type LogAccessor struct {
	api   LogAPI
	limit atomic.Int64
	res   *resource[[]models.LogEntry]
}

func NewLogs(api LogAPI, limit int, opts Options) *LogAccessor {
	if limit <= 0 {
		limit = DefaultLogsLimit
	}
	a := &LogAccessor{api: api, res: newResource[[]models.LogEntry]("logs", opts)}
	a.limit.Store(int64(limit))
	return a
}

func (a *LogAccessor) Refetch(ctx context.Context) error {
	return a.res.refetch(ctx, func(ctx context.Context) ([]models.LogEntry, error) {
		return a.api.ListLogs(ctx, a.Limit())
	})
}

// Logs returns entries newest first, as served.
func (a *LogAccessor) Logs() []models.LogEntry {
	v, _ := a.res.get()
	return append([]models.LogEntry(nil), v...)
}

func (a *LogAccessor) Limit() int    { return int(a.limit.Load()) }
func (a *LogAccessor) Loading() bool { return a.res.loading() }
func (a *LogAccessor) Err() string   { return a.res.errText() }

// SetLimit changes the page size for later refetches. Non-positive values
// restore the default.
func (a *LogAccessor) SetLimit(n int) {
	if n <= 0 {
		n = DefaultLogsLimit
	}
	a.limit.Store(int64(n))
}

func (a *LogAccessor) Create(ctx context.Context, in models.LogInput) (models.LogEntry, error) {
	e, err := a.api.CreateLog(ctx, in)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to create log: %w", err)
	}
	_ = a.Refetch(ctx)
	return e, nil
}

func (a *LogAccessor) Clear(ctx context.Context) error {
	if _, err := a.api.ClearLogs(ctx); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	_ = a.Refetch(ctx)
	return nil
}
