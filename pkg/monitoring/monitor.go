package monitoring

import (
	"strconv"
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

	// path: direct | fallback
	PracticeSessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_sessions_created_total",
			Help: "Practice sessions created, by attempt write path",
		},
		[]string{"path"},
	)

	// result: success | failure
	RemedialAssignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedial_assignments_total",
			Help: "Remedial assignment finalize results",
		},
		[]string{"result"},
	)

	AssignmentSagaCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_saga_compensations_total",
			Help: "Compensating deletes run after a failed remedial assignment write",
		},
		[]string{"stage"},
	)

	MistakeFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mistake_fetch_failures_total",
			Help: "Failed mistake or submission reads",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PracticeSessionsCreated)
	prometheus.MustRegister(RemedialAssignments)
	prometheus.MustRegister(AssignmentSagaCompensations)
	prometheus.MustRegister(MistakeFetchFailures)
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

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
