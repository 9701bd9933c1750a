package generator

import "github.com/prometheus/client_golang/prometheus"

var (
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "textgend",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of generation calls in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"mode", "outcome"},
	)

	fragmentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textgend",
		Subsystem: "generation",
		Name:      "fragments_total",
		Help:      "Total number of fragments delivered to streamed calls",
	})

	fragmentBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textgend",
		Subsystem: "generation",
		Name:      "fragment_bytes_total",
		Help:      "Total bytes of text delivered in fragments",
	})

	activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "textgend",
		Subsystem: "generation",
		Name:      "active_streams",
		Help:      "Streamed calls currently being drained",
	})

	poolBusy = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "textgend",
		Subsystem: "pool",
		Name:      "busy_workers",
		Help:      "Workers currently running a generation job",
	})

	poolWaiting = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "textgend",
		Subsystem: "pool",
		Name:      "waiting_submitters",
		Help:      "Requests waiting for a free worker",
	})

	backpressureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textgend",
		Subsystem: "pool",
		Name:      "backpressure_total",
		Help:      "Total requests rejected because the generation queue was full",
	})
)

func init() {
	prometheus.MustRegister(generationDuration, fragmentsTotal, fragmentBytesTotal, activeStreams, poolBusy, poolWaiting, backpressureTotal)
}
