package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harmonix",
			Name:      "studio_fetch_total",
			Help:      "Count of studio backend reads by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "harmonix",
			Name:      "studio_fetch_duration_seconds",
			Help:      "Latency of studio backend reads.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	selectionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harmonix",
			Name:      "selection_events_total",
			Help:      "Count of booking selection transitions by kind.",
		},
		[]string{"kind"},
	)

	bookingRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harmonix",
			Name:      "booking_requests_total",
			Help:      "Count of booking requests prepared from a complete selection.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(fetchTotal, fetchDuration, selectionEvents, bookingRequests)
	})
}

// ObserveFetch records one backend read. outcome is "ok" or "fallback".
func ObserveFetch(endpoint, outcome string, elapsed time.Duration) {
	fetchTotal.WithLabelValues(endpoint, outcome).Inc()
	fetchDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func IncSelectionEvent(kind string) {
	selectionEvents.WithLabelValues(kind).Inc()
}

func IncBookingRequest() {
	bookingRequests.Inc()
}
