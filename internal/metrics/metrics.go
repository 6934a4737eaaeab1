// Package metrics holds the Prometheus collectors for the guestlist engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Admissions counts admission attempts by result.
	Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlist_admissions_total",
		Help: "Admission requests by result",
	}, []string{"result"})

	// AdmissionRetries counts transactions retried after a lost race.
	AdmissionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guestlist_admission_retries_total",
		Help: "Admission transactions retried after a concurrency conflict",
	})

	// AdmissionDuration tracks end-to-end admission latency including retries.
	AdmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guestlist_admission_duration_seconds",
		Help:    "Admission duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// Redemptions counts door scans by outcome.
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlist_redemptions_total",
		Help: "Redemption attempts by outcome",
	}, []string{"outcome"})

	// StatusTransitions counts stored guestlist status changes.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlist_status_transitions_total",
		Help: "Stored guestlist status transitions by target status",
	}, []string{"to"})
)
