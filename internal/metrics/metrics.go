package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the panel's collectors. All Record methods are nil-safe.
type Metrics struct {
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	NotificationsTotal *prometheus.CounterVec
	StaleResponses     *prometheus.CounterVec
	Polls              prometheus.Counter
	BackendConnected   prometheus.Gauge
	LiveNotifications  prometheus.Gauge
}

// New registers collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		APIRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botpanel_api_requests_total",
				Help: "Backend API requests by endpoint, method and status code",
			},
			[]string{"endpoint", "method", "code"},
		),
		APIRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botpanel_api_request_duration_seconds",
				Help:    "Backend API request latency",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"endpoint", "method"},
		),
		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botpanel_notifications_total",
				Help: "Notifications shown by severity",
			},
			[]string{"severity"},
		),
		StaleResponses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botpanel_stale_responses_total",
				Help: "Read responses discarded because a newer read already applied",
			},
			[]string{"resource"},
		),
		Polls: f.NewCounter(prometheus.CounterOpts{
			Name: "botpanel_dashboard_polls_total",
			Help: "Dashboard poll ticks that refreshed stats and logs",
		}),
		BackendConnected: f.NewGauge(prometheus.GaugeOpts{
			Name: "botpanel_backend_connected",
			Help: "1 when the last backend read succeeded",
		}),
		LiveNotifications: f.NewGauge(prometheus.GaugeOpts{
			Name: "botpanel_notifications_live",
			Help: "Notifications currently on screen, including closing ones",
		}),
	}
}

// RecordRequest records one backend call. code is 0 for transport failures.
func (m *Metrics) RecordRequest(endpoint, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(code)).Inc()
	m.APIRequestDuration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordNotification(severity string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(severity).Inc()
}

func (m *Metrics) RecordStale(resource string) {
	if m == nil {
		return
	}
	m.StaleResponses.WithLabelValues(resource).Inc()
}

func (m *Metrics) RecordPoll() {
	if m == nil {
		return
	}
	m.Polls.Inc()
}

func (m *Metrics) SetConnected(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.BackendConnected.Set(1)
		return
	}
	m.BackendConnected.Set(0)
}

func (m *Metrics) SetLiveNotifications(n int) {
	if m == nil {
		return
	}
	m.LiveNotifications.Set(float64(n))
}
