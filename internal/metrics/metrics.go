// Package metrics exposes marketplace activity as Prometheus metrics.
package metrics

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strconv"
	"time"
)

type Collector struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	volume        *prometheus.CounterVec
	requests      *prometheus.CounterVec
	requestTiming *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "marketplace"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "total",
			Help:      "Committed marketplace events by type",
		},
		[]string{"type"},
	)

	c.volume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "volume_total",
			Help:      "Sum of listing prices carried by events, by type",
		},
		[]string{"type"},
	)

	c.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	c.requestTiming = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"route", "method"},
	)

	c.registry.MustRegister(
		c.events,
		c.volume,
		c.requests,
		c.requestTiming,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordEvent is registered as an event listener for every event type.
func (c *Collector) RecordEvent(e entity.Event) {
	kind := string(e.Type())
	c.events.WithLabelValues(kind).Inc()

	if price, ok := eventPrice(e); ok {
		c.volume.WithLabelValues(kind).Add(float64(price))
	}
}

func (c *Collector) RecordRequest(route, method string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.requestTiming.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func eventPrice(e entity.Event) (uint64, bool) {
	switch evt := e.(type) {
	case entity.ProductSold:
		return evt.Price, true
	case entity.ProductRented:
		return evt.Price, true
	}

	return 0, false
}
