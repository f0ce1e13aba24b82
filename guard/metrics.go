package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/pulseboard/pkg/metrics"
)

// 取数来源标签值。
const (
	serveFresh    = "fresh"
	serveLive     = "live"
	serveStale    = "stale"
	serveFallback = "fallback"
)

// guardMetrics 聚合守护取数的标准指标，指针为 nil 时全部降级为空操作。
type guardMetrics struct {
	state           *prometheus.GaugeVec
	servesTotal     *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
}

func newGuardMetrics(m *metrics.Metrics) *guardMetrics {
	if m == nil {
		return nil
	}

	return &guardMetrics{
		state: m.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pkg",
			Subsystem: "guard",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0: Closed, 1: Half-Open, 2: Open)",
		}, []string{"name"}),
		servesTotal: m.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkg",
			Subsystem: "guard",
			Name:      "serves_total",
			Help:      "Guarded fetch results by source (fresh/live/stale/fallback)",
		}, []string{"name", "source"}),
		refreshDuration: m.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pkg",
			Subsystem: "guard",
			Name:      "refresh_duration_seconds",
			Help:      "Upstream refresh latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"}),
	}
}

func (g *guardMetrics) setState(name string, state gobreaker.State) {
	if g == nil {
		return
	}
	g.state.WithLabelValues(name).Set(float64(state))
}

func (g *guardMetrics) observeServe(name, source string) {
	if g == nil {
		return
	}
	g.servesTotal.WithLabelValues(name, source).Inc()
}

func (g *guardMetrics) observeRefresh(name string, elapsed time.Duration) {
	if g == nil {
		return
	}
	g.refreshDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
