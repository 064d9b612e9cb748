package remote

import "github.com/prometheus/client_golang/prometheus"

var fetchAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "remote_fetch_attempts_total",
		Help: "Outbound fetch attempts by client and outcome",
	},
	[]string{"client", "outcome"},
)

func init() {
	prometheus.MustRegister(fetchAttempts)
}
