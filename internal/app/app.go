// Package app is the dashboard's state container. Views and the CLI call
// its actions; it owns the accessors, the notification channel and the UI
// preferences.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"

	"botpanel/internal/accessor"
	"botpanel/internal/config"
	"botpanel/internal/form"
	"botpanel/internal/metrics"
	"botpanel/internal/models"
	"botpanel/internal/notify"
	"botpanel/internal/prefs"
)

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrNotConfirmed   = errors.New("action not confirmed")
	ErrNoEditor       = errors.New("no editor open")
	ErrNotFound       = errors.New("not found")
)

type Section string

const (
	SectionDashboard Section = "dashboard"
	SectionBots      Section = "bots"
	SectionGateways  Section = "gateways"
	SectionUsers     Section = "users"
	SectionLogs      Section = "logs"
)

var Sections = []Section{SectionDashboard, SectionBots, SectionGateways, SectionUsers, SectionLogs}

func ParseSection(raw string) (Section, error) {
	for _, s := range Sections {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", ErrUnknownSection
}

func (s Section) Title() string {
	switch s {
	case SectionDashboard:
		return "Dashboard"
	case SectionBots:
		return "Bots"
	case SectionGateways:
		return "Payment Gateways"
	case SectionUsers:
		return "Users"
	case SectionLogs:
		return "System Logs"
	}
	return string(s)
}

type BotTab string

const (
	TabConfig BotTab = "config"
	TabCode   BotTab = "code"
)

type Connection string

const (
	ConnUnknown      Connection = "unknown"
	ConnConnected    Connection = "connected"
	ConnDisconnected Connection = "disconnected"
)

// ActivityCap bounds the local activity feed.
const ActivityCap = 100

// API is everything the dashboard needs from the backend.
type API interface {
	accessor.StatsAPI
	accessor.BotAPI
	accessor.GatewayAPI
	accessor.LogAPI
	Health(ctx context.Context) (models.Health, error)
}

type BotEditor struct {
	Form       form.BotForm
	Tab        BotTab
	Validation form.ValidationResult
}

type GatewayEditor struct {
	Form       form.GatewayForm
	Validation form.ValidationResult
}

type Options struct {
	UI        config.UIConfig
	LogsLimit int
	Prefs     prefs.Store
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

type App struct {
	Stats    *accessor.StatsAccessor
	Bots     *accessor.BotAccessor
	Gateways *accessor.GatewayAccessor
	Logs     *accessor.LogAccessor
	Notify   *notify.Channel

	api     API
	ui      config.UIConfig
	prefs   prefs.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	newID   func() string

	mu         sync.Mutex
	section    Section
	botEdit    *BotEditor
	gatewayEdt *GatewayEditor
	theme      prefs.Theme
	conn       Connection
	activity   []models.LogEntry
	stopPoll   func()
}

func New(api API, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Prefs == nil {
		opts.Prefs = prefs.NewMemoryStore()
	}
	if opts.UI.BotCapacity <= 0 {
		opts.UI.BotCapacity = 5
	}
	if opts.UI.RecentLogs <= 0 {
		opts.UI.RecentLogs = 5
	}
	if opts.UI.PollInterval <= 0 {
		opts.UI.PollInterval = 30 * time.Second
	}
	if _, ok := prefs.ParseTheme(opts.UI.DefaultTheme); !ok {
		opts.UI.DefaultTheme = string(prefs.Light)
	}

	gen, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}

	a := &App{
		api:     api,
		ui:      opts.UI,
		prefs:   opts.Prefs,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		newID:   gen,
		section: SectionDashboard,
		conn:    ConnUnknown,
	}
	aopts := accessor.Options{Logger: opts.Logger, Metrics: opts.Metrics, OnRead: a.observeRead}
	a.Stats = accessor.NewStats(api, aopts)
	a.Bots = accessor.NewBots(api, aopts)
	a.Gateways = accessor.NewGateways(api, opts.UI.GatewayTestDelay, aopts)
	a.Logs = accessor.NewLogs(api, opts.LogsLimit, aopts)
	a.Notify = notify.New(notify.Options{
		Delay:      opts.UI.NotificationDelay,
		Transition: opts.UI.NotificationTransition,
		Logger:     opts.Logger,
		Metrics:    opts.Metrics,
	})
	a.Notify.Subscribe(a.observeNotifications)
	return a, nil
}

func (a *App) observeNotifications(list []notify.Notification) {
	a.metrics.SetLiveNotifications(len(list))
	a.logger.Debug("notifications changed", zap.Int("live", len(list)))
}

// Init restores preferences, checks backend health and loads every collection.
// Read failures are recorded on the accessors, not returned.
func (a *App) Init(ctx context.Context) error {
	t, found, err := prefs.LoadTheme(ctx, a.prefs)
	if err != nil {
		a.logger.Warn("load theme preference failed", zap.Error(err))
	}
	if found {
		a.mu.Lock()
		a.theme = t
		a.mu.Unlock()
	}

	a.CheckHealth(ctx)
	a.Refresh(ctx)
	return nil
}

// Refresh reloads all four collections concurrently.
func (a *App) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	for _, fn := range []func(context.Context) error{
		a.Stats.Refetch,
		a.Bots.Refetch,
		a.Gateways.Refetch,
		a.Logs.Refetch,
	} {
		wg.Add(1)
		go func(fn func(context.Context) error) {
			defer wg.Done()
			_ = fn(ctx)
		}(fn)
	}
	wg.Wait()
}

// CheckHealth updates the connection indicator from GET /health.
func (a *App) CheckHealth(ctx context.Context) (models.Health, error) {
	h, err := a.api.Health(ctx)
	a.observeRead("health", err)
	return h, err
}

// Close stops polling and timers and releases the preference store.
func (a *App) Close() error {
	a.StopPolling()
	a.Gateways.Close()
	a.Notify.Close()
	return a.prefs.Close()
}

func (a *App) observeRead(resource string, err error) {
	a.mu.Lock()
	if err != nil {
		a.conn = ConnDisconnected
	} else {
		a.conn = ConnConnected
	}
	a.mu.Unlock()
	a.metrics.SetConnected(err == nil)
}

func (a *App) Connection() Connection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn
}

func (a *App) Section() Section {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.section
}

func (a *App) SetSection(s Section) error {
	if _, err := ParseSection(string(s)); err != nil {
		return err
	}
	a.mu.Lock()
	a.section = s
	a.mu.Unlock()
	return nil
}

// Theme returns the stored preference, or the system scheme from hint when
// none is stored.
func (a *App) Theme(hint string) prefs.Theme {
	a.mu.Lock()
	t := a.theme
	a.mu.Unlock()
	if t != "" {
		return t
	}
	return prefs.FromClientHint(hint, prefs.Theme(a.ui.DefaultTheme))
}

func (a *App) ToggleTheme(ctx context.Context, hint string) (prefs.Theme, error) {
	next := a.Theme(hint).Toggle()
	if err := prefs.SaveTheme(ctx, a.prefs, next); err != nil {
		return a.Theme(hint), err
	}
	a.mu.Lock()
	a.theme = next
	a.mu.Unlock()
	return next, nil
}

// report routes an outcome to the notification channel and the activity
// feed.
func (a *App) report(sev notify.Severity, msg string) {
	a.Notify.Show(sev, msg)
	a.mu.Lock()
	defer a.mu.Unlock()
	entry := models.LogEntry{
		ID:        models.LogID(a.newID()),
		Level:     models.LogLevel(sev),
		Message:   msg,
		Timestamp: models.NewTimestamp(time.Now()),
	}
	a.activity = append([]models.LogEntry{entry}, a.activity...)
	if len(a.activity) > ActivityCap {
		a.activity = a.activity[:ActivityCap]
	}
}

// Activity returns the local feed, newest first.
func (a *App) Activity() []models.LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.LogEntry(nil), a.activity...)
}
