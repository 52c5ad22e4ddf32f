// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Scrapes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "scrapes_total",
		Help:      "Portal scrapes by outcome (success, failure).",
	}, []string{"outcome"})

	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendbot",
		Name:      "scrape_duration_seconds",
		Help:      "Wall time of a full portal scrape.",
		Buckets:   []float64{5, 10, 15, 20, 30, 45, 60, 90, 120, 180},
	})

	BrowserSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "attendbot",
		Name:      "browser_sessions_active",
		Help:      "Headless browser sessions currently open.",
	})

	Messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "messages_total",
		Help:      "Outbound WhatsApp messages by result (sent, failed, unconfigured).",
	}, []string{"result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)
