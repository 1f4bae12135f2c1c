// Package metrics exposes Prometheus collectors for the download engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ChapterTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "comic",
			Name:      "chapter_tasks_total",
			Help:      "Chapter tasks that reached a terminal state.",
		},
		[]string{"state"},
	)

	ActiveChapterTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "comic",
			Name:      "chapter_tasks_active",
			Help:      "Chapter tasks whose driver is running.",
		},
	)

	ImagesDownloaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "comic",
			Name:      "images_downloaded_total",
			Help:      "Pages fetched and saved, excluding pages skipped as already present.",
		},
	)

	ImageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "comic",
			Name:      "image_failures_total",
			Help:      "Pages that could not be fetched or saved.",
		},
		[]string{"stage"},
	)

	BytesDownloaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "comic",
			Name:      "bytes_downloaded_total",
			Help:      "Image bytes received from upstream.",
		},
	)

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "comic",
			Name:      "upstream_request_seconds",
			Help:      "Latency of upstream API and image requests.",
		},
		[]string{"op"},
	)

	RiskControl = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "comic",
			Name:      "risk_control_total",
			Help:      "Risk-control responses that triggered a cooldown.",
		},
	)
)

// Collectors returns every collector in this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ChapterTasks, ActiveChapterTasks, ImagesDownloaded, ImageFailures, BytesDownloaded, UpstreamLatency, RiskControl,
	}
}

// Register registers the collectors into reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Collectors()...)
}
