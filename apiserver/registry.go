// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package apiserver

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the metrics sink every handler reports through, grounded on
// the teacher's pluggable Metrics interface (server/server.go's
// s.metrics.InstrumentHandler) but narrowed to exactly what this server
// needs: a request counter and a latency histogram per route, served at
// /metrics via prometheus/client_golang.
type Registry interface {
	Observe(route, method string, status int, duration time.Duration)
	Handler() http.Handler
}

type promRegistry struct {
	reg       *prometheus.Registry
	requests  *prometheus.CounterVec
	latencies *prometheus.HistogramVec
}

// NewPromRegistry builds a Registry backed by a fresh prometheus.Registry.
func NewPromRegistry() Registry {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settings_api_requests_total",
		Help: "Total settings API requests by route, method, and status.",
	}, []string{"route", "method", "status"})
	latencies := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settings_api_request_duration_seconds",
		Help:    "Settings API request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	reg.MustRegister(requests, latencies)
	return &promRegistry{reg: reg, requests: requests, latencies: latencies}
}

func (p *promRegistry) Observe(route, method string, status int, duration time.Duration) {
	p.requests.WithLabelValues(route, method, statusLabel(status)).Inc()
	p.latencies.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (p *promRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var defaultRegistry = NewPromRegistry()
