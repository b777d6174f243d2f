package pipeline

import (
	"job-pipeline-backend/lib/pipeline/funnel"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var applicationsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "pipeline_applications",
	Help: "Applications per stage, current distribution and cumulative funnel",
}, []string{"stage", "view"})

func exportView(view funnel.View) {
	for stage, count := range view.Current {
		applicationsGauge.WithLabelValues(string(stage), "current").Set(float64(count))
	}
	for stage, count := range view.Cumulative {
		applicationsGauge.WithLabelValues(string(stage), "cumulative").Set(float64(count))
	}
}
