// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels:
//
//   - method: HTTP verb
//   - path:   the registered Gin route (e.g. /v1/movieinfos/:id), or
//     "unmatched" when no route matched, which keeps scanners from growing
//     the label set
//   - status: numeric status code as a string
//
// NDJSON stream routes stay open for as long as a client listens, so they are
// counted and gauged but kept out of the latency and size histograms.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedRoute = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// status omitted to keep histogram cardinality lower
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of non-streaming HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpStreams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_streams_open",
			Help: "Currently open NDJSON streams per route.",
		},
		[]string{"path"},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of non-streaming HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
				1 << 20, 2 << 20, 5 << 20,
			},
		},
		[]string{"method", "path"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpStreams, httpRespSize, rateLimited)
}

// IsStreamRoute reports whether route is an NDJSON stream endpoint.
func IsStreamRoute(route string) bool {
	return strings.HasSuffix(route, "/stream")
}

// Metrics instruments requests with Prometheus.
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		stream := IsStreamRoute(path)
		if stream {
			g := httpStreams.WithLabelValues(path)
			g.Inc()
			defer g.Dec()
		}

		c.Next()

		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		if stream {
			return
		}
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// size is -1 when nothing was written
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
