package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 上游 API 调用
	UpstreamCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to the upstream LMS API",
		},
		[]string{"method", "endpoint", "status"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream LMS API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ProgressSyncCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_progress_sync_total",
			Help: "Video progress persistence calls by kind and result",
		},
		[]string{"kind", "result"},
	)

	ActiveTrackers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "playback_active_trackers",
			Help: "Number of mounted playback trackers",
		},
	)

	RealtimeConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected",
			Help: "1 when the upstream realtime channel is connected",
		},
	)

	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Realtime frames by type and direction",
		},
		[]string{"type", "direction"},
	)

	OpenRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "doubt_rooms_open",
			Help: "Number of open doubt chat rooms",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(UpstreamCounter)
		prometheus.MustRegister(UpstreamDuration)
		prometheus.MustRegister(ProgressSyncCounter)
		prometheus.MustRegister(ActiveTrackers)
		prometheus.MustRegister(RealtimeConnected)
		prometheus.MustRegister(RealtimeEvents)
		prometheus.MustRegister(OpenRooms)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

// ObserveUpstream 记录一次上游调用
func ObserveUpstream(method, endpoint string, status int, elapsed time.Duration) {
	UpstreamCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	UpstreamDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
