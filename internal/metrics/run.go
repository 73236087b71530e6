package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

const namespace = "datasplit"

// Run holds the metrics of a single split run on its own registry.
// It satisfies both the planning and the materialization recorders.
type Run struct {
	registry *prometheus.Registry

	annotationFiles prometheus.Counter
	classes         prometheus.Gauge
	filesAssigned   *prometheus.GaugeVec
	pairsCopied     *prometheus.CounterVec
	pairsMissing    *prometheus.CounterVec
	pairsFailed     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec

	http *httpMetrics
}

// NewRun creates run metrics registered on a fresh registry.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),

		annotationFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotation_files_total",
			Help:      "Annotation files that contributed at least one class",
		}),

		classes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "classes",
			Help:      "Distinct class labels found in the annotations",
		}),

		filesAssigned: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files_assigned",
			Help:      "Files assigned to each split",
		}, []string{"split"}),

		pairsCopied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_copied_total",
			Help:      "Image and annotation pairs copied",
		}, []string{"split"}),

		pairsMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_missing_total",
			Help:      "Pairs skipped because a file was not found",
		}, []string{"split"}),

		pairsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_failed_total",
			Help:      "Pairs whose copy failed",
		}, []string{"split"}),

		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"stage"}),
	}

	r.registry.MustRegister(
		r.annotationFiles, r.classes, r.filesAssigned,
		r.pairsCopied, r.pairsMissing, r.pairsFailed,
		r.stageDuration,
	)

	r.http = newHTTPMetrics(r.registry)

	// Zero series so every split shows up in a scrape even when empty.
	for _, sp := range domsplit.Order() {
		r.filesAssigned.WithLabelValues(string(sp))
		r.pairsCopied.WithLabelValues(string(sp))
		r.pairsMissing.WithLabelValues(string(sp))
		r.pairsFailed.WithLabelValues(string(sp))
	}

	return r
}

// Registry returns the registry the run metrics live on.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePlan records the outcome of planning.
func (r *Run) ObservePlan(files, classes int, counts map[domsplit.Name]int) {
	r.annotationFiles.Add(float64(files))
	r.classes.Set(float64(classes))
	for _, sp := range domsplit.Order() {
		r.filesAssigned.WithLabelValues(string(sp)).Set(float64(counts[sp]))
	}
}

// ObserveStage records how long a pipeline stage took.
func (r *Run) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// PairCopied counts a copied pair.
func (r *Run) PairCopied(sp domsplit.Name) {
	r.pairsCopied.WithLabelValues(string(sp)).Inc()
}

// PairMissing counts a pair skipped for a missing file.
func (r *Run) PairMissing(sp domsplit.Name) {
	r.pairsMissing.WithLabelValues(string(sp)).Inc()
}

// PairFailed counts a pair whose copy failed.
func (r *Run) PairFailed(sp domsplit.Name) {
	r.pairsFailed.WithLabelValues(string(sp)).Inc()
}
