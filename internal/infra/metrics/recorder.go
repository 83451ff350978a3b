// Package metrics exports pipeline counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_analyses_total",
			Help: "Persisted analyses by rating and whether the scoring fallback was used",
		},
		[]string{"rating", "fallback"},
	)

	pipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_pipeline_failures_total",
			Help: "Analyses that ended in the failed state, by stage",
		},
		[]string{"stage"},
	)

	ocrAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_ocr_attempts_total",
			Help: "OCR strategy attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	scoringFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_scoring_fallbacks_total",
			Help: "Scoring calls answered with the fallback score",
		},
		[]string{"reason"},
	)
)

// Recorder satisfies the Metrics ports of the application services.
type Recorder struct{}

func (Recorder) AnalysisCompleted(rating string, fallback bool) {
	f := "false"
	if fallback {
		f = "true"
	}
	analysesTotal.WithLabelValues(rating, f).Inc()
}

func (Recorder) PipelineFailed(stage string) { pipelineFailures.WithLabelValues(stage).Inc() }

func (Recorder) OCRAttempt(provider, outcome string) {
	ocrAttempts.WithLabelValues(provider, outcome).Inc()
}

func (Recorder) ScoringFallback(reason string) { scoringFallbacks.WithLabelValues(reason).Inc() }
