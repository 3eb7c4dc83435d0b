package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests counts requests by route pattern, method and status.
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navflat",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "navflat",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// authFailures counts rejected bearer keys.
	// Labels: reason (missing, invalid)
	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navflat",
		Subsystem: "http",
		Name:      "auth_failures_total",
		Help:      "Requests rejected for a missing or invalid API key",
	}, []string{"reason"})

	// flattenDuration measures a single Flatten call.
	// Labels: strategy (stack, worklist, recursive)
	flattenDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "navflat",
		Subsystem: "flatten",
		Name:      "duration_seconds",
		Help:      "Flatten latency in seconds",
		Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"strategy"})

	flattenRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "navflat",
		Subsystem: "flatten",
		Name:      "records",
		Help:      "Records produced per flatten",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	// flattenFailures counts rejected menus.
	// Labels: reason (cyclic, broken_chain, invalid)
	flattenFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navflat",
		Subsystem: "flatten",
		Name:      "failures_total",
		Help:      "Menus that could not be flattened, by reason",
	}, []string{"reason"})

	cyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "navflat",
		Subsystem: "flatten",
		Name:      "cycles_skipped_total",
		Help:      "Cyclic branches dropped under on_cycle=skip",
	})

	menusStored = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "navflat",
		Subsystem: "store",
		Name:      "menus",
		Help:      "Menus currently held in the store",
	})

	menusEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "navflat",
		Subsystem: "store",
		Name:      "evicted_total",
		Help:      "Menus evicted after their idle TTL",
	})
)

// Metrics records request counts and latency per chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordEvictions is passed to the store's cleanup loop.
func (s *Server) RecordEvictions(n int) {
	menusEvicted.Add(float64(n))
	menusStored.Set(float64(s.store.Len()))
	s.log.Info("evicted idle menus", "count", n)
}
