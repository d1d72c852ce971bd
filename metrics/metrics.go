// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counting job outcomes
const (
	OutcomeReportedSuccess = "REPORTED_SUCCESS"
	OutcomeReportedFailure = "REPORTED_FAILURE"
	OutcomeReportingError  = "REPORTING_ERROR"
)

var (
	CountJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballot_crypto_count_jobs_total",
		Help: "counting jobs finished, by outcome",
	}, []string{"outcome"})

	CountRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballot_crypto_count_rejected_total",
		Help: "count requests refused before scheduling, by error code",
	}, []string{"code"})

	CountDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ballot_crypto_count_job_duration_seconds",
		Help:    "time from a worker picking up a job to its completion",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	BallotsDecrypted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballot_crypto_ballots_decrypted_total",
		Help: "ballots successfully decrypted",
	})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ballot_crypto_count_queue_depth",
		Help: "counting jobs waiting for a worker",
	})

	KeyOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballot_crypto_key_operations_total",
		Help: "election key lifecycle operations, by operation and result code",
	}, []string{"operation", "result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballot_crypto_http_requests_total",
		Help: "inbound HTTP requests, by method, route and status",
	}, []string{"method", "route", "status"})
)

// Collectors lists every collector of the service
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		CountJobs, CountRejected, CountDuration, BallotsDecrypted,
		QueueDepth, KeyOperations, HTTPRequests,
	}
}

// Register adds the service collectors to reg. Registering twice is not an
// error.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		err := reg.Register(c)
		var already prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &already) {
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
