// Package notify holds the short-lived user feedback messages shown by the
// dashboard. Each message expires on its own timer.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"botpanel/internal/metrics"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
	Warning Severity = "warning"
)

const (
	DefaultDelay      = 5 * time.Second
	DefaultTransition = 300 * time.Millisecond
)

type Notification struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Closing   bool      `json:"closing"`
}

type Options struct {
	Delay      time.Duration
	Transition time.Duration
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

type Channel struct {
	delay      time.Duration
	transition time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu     sync.Mutex
	items  []*Notification
	timers map[string]*time.Timer
	subs   []func([]Notification)
	closed bool
}

func New(opts Options) *Channel {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Transition < 0 {
		opts.Transition = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Channel{
		delay:      opts.Delay,
		transition: opts.Transition,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		timers:     map[string]*time.Timer{},
	}
}

// Show appends a notification and returns its id. Identical messages are
// not merged.
func (c *Channel) Show(sev Severity, message string) string {
	n := &Notification{
		ID:        uuid.NewString(),
		Severity:  sev,
		Message:   message,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return n.ID
	}
	c.items = append(c.items, n)
	id := n.ID
	c.timers[id] = time.AfterFunc(c.delay, func() { c.beginClose(id) })
	snap := c.snapshotLocked()
	subs := c.subs
	c.mu.Unlock()

	c.metrics.RecordNotification(string(sev))
	c.logger.Debug("notification", zap.String("severity", string(sev)), zap.String("message", message))
	publish(subs, snap)
	return id
}

func (c *Channel) Success(message string) string { return c.Show(Success, message) }
func (c *Channel) Error(message string) string   { return c.Show(Error, message) }
func (c *Channel) Info(message string) string    { return c.Show(Info, message) }
func (c *Channel) Warning(message string) string { return c.Show(Warning, message) }

// Dismiss starts closing one notification early. It reports false when id
// is unknown.
func (c *Channel) Dismiss(id string) bool {
	c.mu.Lock()
	n := c.findLocked(id)
	if n == nil {
		c.mu.Unlock()
		return false
	}
	if n.Closing {
		c.mu.Unlock()
		return true
	}
	if t, ok := c.timers[id]; ok {
		t.Stop()
	}
	c.mu.Unlock()
	c.beginClose(id)
	return true
}

// List returns the live notifications, oldest first.
func (c *Channel) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive the list after every change. fn runs on
// the goroutine that caused the change.
func (c *Channel) Subscribe(fn func([]Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Close cancels all timers and drops pending notifications.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}

func (c *Channel) beginClose(id string) {
	c.mu.Lock()
	n := c.findLocked(id)
	if c.closed || n == nil || n.Closing {
		c.mu.Unlock()
		return
	}
	n.Closing = true
	if c.transition == 0 {
		c.removeLocked(id)
	} else {
		c.timers[id] = time.AfterFunc(c.transition, func() { c.remove(id) })
	}
	snap := c.snapshotLocked()
	subs := c.subs
	c.mu.Unlock()
	publish(subs, snap)
}

func (c *Channel) remove(id string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.removeLocked(id)
	snap := c.snapshotLocked()
	subs := c.subs
	c.mu.Unlock()
	publish(subs, snap)
}

func (c *Channel) removeLocked(id string) {
	delete(c.timers, id)
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Channel) findLocked(id string) *Notification {
	for _, n := range c.items {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (c *Channel) snapshotLocked() []Notification {
	out := make([]Notification, 0, len(c.items))
	for _, n := range c.items {
		out = append(out, *n)
	}
	return out
}

func publish(subs []func([]Notification), snap []Notification) {
	for _, fn := range subs {
		fn(snap)
	}
}
