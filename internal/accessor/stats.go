package accessor

import (
	"context"

	"botpanel/internal/models"
)

type StatsAPI interface {
	Stats(ctx context.Context) (models.Stats, error)
}

type StatsAccessor struct {
	api StatsAPI
	res *resource[models.Stats]
}

func NewStats(api StatsAPI, opts Options) *StatsAccessor {
	return &StatsAccessor{api: api, res: newResource[models.Stats]("stats", opts)}
}

func (a *StatsAccessor) Refetch(ctx context.Context) error {
	return a.res.refetch(ctx, a.api.Stats)
}

// Snapshot returns the last applied stats; ok is false before the first
// successful read.
func (a *StatsAccessor) Snapshot() (models.Stats, bool) {
	return a.res.get()
}

func (a *StatsAccessor) Loading() bool { return a.res.loading() }
func (a *StatsAccessor) Err() string   { return a.res.errText() }
