// Package metrics defines the Prometheus metric collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	UploadsTotal         prometheus.Counter
	FilesUploadedTotal   prometheus.Counter
	IngestJobsTotal      *prometheus.CounterVec
	IngestDuration       prometheus.Histogram
	ChunksIndexedTotal   prometheus.Counter
	QueriesTotal         *prometheus.CounterVec
	QueryDuration        prometheus.Histogram
	SweepDeletionsTotal  *prometheus.CounterVec
	EmbeddingCacheHits   prometheus.Counter
	EmbeddingCacheMisses prometheus.Counter
	SessionsCreatedTotal prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		UploadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rag_uploads_total",
				Help: "Total upload batches accepted.",
			},
		),
		FilesUploadedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rag_files_uploaded_total",
				Help: "Total PDF files accepted for ingestion.",
			},
		),
		IngestJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_ingest_jobs_total",
				Help: "Total ingestion jobs by outcome (indexed, skipped_expired, skipped_empty, failed).",
			},
			[]string{"outcome"},
		),
		IngestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rag_ingest_duration_seconds",
				Help:    "Time spent processing one ingestion job.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		ChunksIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rag_chunks_indexed_total",
				Help: "Total chunks written to the vector index.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_queries_total",
				Help: "Total queries by result (answered, not_ready, no_documents, error).",
			},
			[]string{"result"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rag_query_duration_seconds",
				Help:    "End-to-end query latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		SweepDeletionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_sweep_deletions_total",
				Help: "Resources removed by the reconciliation sweep (collection, upload_dir).",
			},
			[]string{"resource"},
		),
		EmbeddingCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rag_embedding_cache_hits_total",
				Help: "Total embedding cache hits.",
			},
		),
		EmbeddingCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rag_embedding_cache_misses_total",
				Help: "Total embedding cache misses.",
			},
		),
		SessionsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rag_sessions_created_total",
				Help: "Total fresh session ids minted by the session middleware.",
			},
		),
	}

	prometheus.MustRegister(
		m.UploadsTotal,
		m.FilesUploadedTotal,
		m.IngestJobsTotal,
		m.IngestDuration,
		m.ChunksIndexedTotal,
		m.QueriesTotal,
		m.QueryDuration,
		m.SweepDeletionsTotal,
		m.EmbeddingCacheHits,
		m.EmbeddingCacheMisses,
		m.SessionsCreatedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
