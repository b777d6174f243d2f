package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_mutations_total",
		Help: "Mutations by kind and final state",
	}, []string{"kind", "state"})

	commitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_remote_commit_duration_seconds",
		Help:    "Duration of remote commit calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_refresh_total",
		Help: "Full resynchronizations by result",
	}, []string{"result"})
)
