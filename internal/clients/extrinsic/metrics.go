package extrinsic

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submittedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multisig_extrinsics_submitted_total",
	}, []string{"action"})
	outcomeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multisig_submission_outcomes_total",
	}, []string{"outcome"})
	submissionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "multisig_submission_seconds",
		Buckets: []float64{1, 3, 6, 12, 24, 48, 96, 192},
	}, []string{"action"})
)

func observeSubmission(action string, outcome OutcomeKind, started time.Time) {
	outcomeCounter.With(prometheus.Labels{"outcome": outcome.String()}).Inc()
	submissionSeconds.With(prometheus.Labels{"action": action}).Observe(time.Since(started).Seconds())
}
