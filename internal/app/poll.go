package app

import (
	"context"

	"go.uber.org/zap"

	cronrunner "botpanel/internal/cron"
)

// PollDashboard refreshes stats and logs when the dashboard is showing. It
// reports whether anything was fetched.
func (a *App) PollDashboard(ctx context.Context) bool {
	if a.Section() != SectionDashboard {
		return false
	}
	a.metrics.RecordPoll()
	if err := a.Stats.Refetch(ctx); err != nil {
		a.logger.Debug("poll stats failed", zap.Error(err))
	}
	if err := a.Logs.Refetch(ctx); err != nil {
		a.logger.Debug("poll logs failed", zap.Error(err))
	}
	return true
}

// StartPolling schedules PollDashboard on r at the configured interval.
func (a *App) StartPolling(r *cronrunner.Runner) error {
	id, err := r.Every(a.ui.PollInterval, func(ctx context.Context) {
		a.PollDashboard(ctx)
	})
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.stopPoll = func() { r.Remove(id) }
	a.mu.Unlock()
	return nil
}

func (a *App) StopPolling() {
	a.mu.Lock()
	stop := a.stopPoll
	a.stopPoll = nil
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}
