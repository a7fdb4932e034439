package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsage_uploads_total",
		Help: "PDF uploads by outcome.",
	}, []string{"status"})

	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsage_queries_total",
		Help: "Query-serving requests by endpoint and outcome.",
	}, []string{"endpoint", "status"})

	pipelineSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsage_pipeline_seconds",
		Help:    "Wall-clock time of the retrieve-and-generate pipeline.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
