package broadcast

import "github.com/prometheus/client_golang/prometheus"

var (
	subscribers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "broadcast_subscribers",
			Help: "Attached stream subscribers per hub",
		},
		[]string{"hub"},
	)
	published = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_published_total",
			Help: "Values published per hub",
		},
		[]string{"hub"},
	)
	dropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_dropped_total",
			Help: "Values not delivered because a subscriber buffer was full",
		},
		[]string{"hub"},
	)
	relayFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_relay_fallback_total",
			Help: "Values that reached only the local hub because the Redis relay failed",
		},
		[]string{"hub"},
	)
)

func init() {
	prometheus.MustRegister(subscribers, published, dropped, relayFallbacks)
}
