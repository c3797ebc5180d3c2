package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countTasksInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "worker_tasks_in_queue",
	Help: "Number of dispatched worker tasks not yet finished",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var ingestFiles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingest_files_total",
	Help: "Files seen by ingestion, labelled by outcome",
}, []string{"outcome"})

// retrievalOutcomes separates an empty corpus from a failed search so the
// two never look alike on a dashboard.
var retrievalOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "retrieval_outcomes_total",
	Help: "Retrieval calls labelled by outcome (results, no_results, empty_corpus, failure)",
}, []string{"outcome"})

var corpusChunks = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "corpus_chunks",
	Help: "Number of chunks in the loaded corpus snapshot",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementTasksInQueue() {
	countTasksInQueue.Inc()
}

func DecrementTasksInQueue() {
	countTasksInQueue.Dec()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func RecordIngestFiles(ok, failed int) {
	ingestFiles.WithLabelValues("ok").Add(float64(ok))
	ingestFiles.WithLabelValues("failed").Add(float64(failed))
}

func RecordRetrieval(outcome string) {
	retrievalOutcomes.WithLabelValues(outcome).Inc()
}

func SetCorpusChunks(n int) {
	corpusChunks.Set(float64(n))
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent answering a request.",
	Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of pipeline steps and external service calls.",
	Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureRequestMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
