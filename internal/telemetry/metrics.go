package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inspector_sessions_connected",
		Help: "Number of currently connected inspector transport sessions",
	})

	SessionsRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inspector_sessions_rejected_total",
		Help: "Total number of connections rejected for exceeding maxClients",
	})

	FramesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_frames_sent_total",
		Help: "Total number of frames sent by message type",
	}, []string{"type"})

	FramesDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_frames_dropped_total",
		Help: "Total number of frames that failed to send, by message type",
	}, []string{"type"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inspector_request_duration_seconds",
		Help:    "Time taken to handle one inbound request frame by type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	EntitiesCached = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inspector_entities_cached",
		Help: "Number of entity snapshots currently held in the inspector cache",
	})

	PacketsCached = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inspector_packets_cached",
		Help: "Number of packet log entries currently held in the inspector cache",
	})

	OnDemandRefreshTimeoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inspector_on_demand_refresh_timeouts_total",
		Help: "Total number of on-demand entity refreshes that fell back to cache on timeout",
	})
)

func init() {
	prometheus.MustRegister(
		SessionsConnected,
		SessionsRejectedTotal,
		FramesSentTotal,
		FramesDroppedTotal,
		RequestDuration,
		EntitiesCached,
		PacketsCached,
		OnDemandRefreshTimeoutsTotal,
	)
}

// MetricsHandler exposes the process's metrics for scraping.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small duration-measuring helper for histogram observations.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer { return &Timer{start: time.Now()} }

func (t *Timer) ObserveDurationVec(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
