package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_uploads_total",
		Help: "Media ingestion attempts by source shape and outcome.",
	}, []string{"source", "outcome"})

	uploadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_upload_duration_seconds",
		Help:    "Time spent waiting on the object storage provider.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"source"})

	deletesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_deletes_total",
		Help: "Media deletions by remote destroy outcome.",
	}, []string{"remote"})

	authTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Signup and login attempts by outcome.",
	}, []string{"action", "outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		uploadsTotal,
		uploadDuration,
		deletesTotal,
		authTotal,
	)
}

// IncUpload counts one ingestion attempt.
func IncUpload(source, outcome string) {
	uploadsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveUploadDuration records how long the provider took for one source shape.
func ObserveUploadDuration(source string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	uploadDuration.WithLabelValues(source).Observe(d.Seconds())
}

// IncDelete counts one deletion; remote is "ok" or "failed".
func IncDelete(remote string) {
	deletesTotal.WithLabelValues(remote).Inc()
}

// IncAuth counts one signup or login attempt.
func IncAuth(action, outcome string) {
	authTotal.WithLabelValues(action, outcome).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
