package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// buildDuration tracks suffix tree construction per corpus
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gst_build_duration_seconds",
		Help:    "Suffix tree construction duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	})

	treeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gst_tree_nodes",
		Help:    "Number of nodes per built suffix tree",
		Buckets: prometheus.ExponentialBuckets(16, 4, 10),
	})

	documentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gst_documents_total",
		Help: "Total documents inserted into suffix trees",
	})

	// exportDuration tracks each configured output by feature
	exportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gst_export_duration_seconds",
		Help:    "Export duration in seconds by feature",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	}, []string{"feature"})

	pipelineTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gst_pipeline_runs_total",
		Help: "Total pipeline runs by configuration and result",
	}, []string{"config", "result"})

	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gst_tasks_total",
		Help: "Total worker tasks by result",
	}, []string{"result"})

	tasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gst_tasks_in_flight",
		Help: "Worker tasks currently processed",
	})
)

func ObserveBuild(duration time.Duration, documents int, nodes int) {
	buildDuration.Observe(duration.Seconds())
	documentsTotal.Add(float64(documents))
	treeNodes.Observe(float64(nodes))
}

func ObserveExport(feature string, duration time.Duration) {
	exportDuration.WithLabelValues(feature).Observe(duration.Seconds())
}

func PipelineRun(config string, err error) {
	pipelineTotal.WithLabelValues(config, result(err)).Inc()
}

// TaskStarted marks a worker task in flight; the returned func records its
// result.
func TaskStarted() func(err error) {
	tasksInFlight.Inc()
	return func(err error) {
		tasksInFlight.Dec()
		tasksTotal.WithLabelValues(result(err)).Inc()
	}
}

func TaskSkipped() {
	tasksTotal.WithLabelValues("skipped").Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
