// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voter_search",
		Name:      "searches_total",
		Help:      "Total number of searches by outcome",
	}, []string{"outcome"})
	searchTermsUsed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voter_search",
		Name:      "search_terms_total",
		Help:      "Search terms used by field and resolved strategy",
	}, []string{"field", "strategy"})
	candidatesFetched = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voter_search",
		Name:      "search_candidates",
		Help:      "Number of candidate voters scored per search",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	searchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voter_search",
		Name:      "search_duration_seconds",
		Help:      "Time spent per search phase",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms up to ~4s
	}, []string{"phase"})
	topConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voter_search",
		Name:      "search_top_confidence",
		Help:      "Confidence of the best match returned per search",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	votersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voter_search",
		Name:      "voters_total",
		Help:      "Current total number of voters in the store",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searchesTotal, searchTermsUsed, candidatesFetched,
			searchDuration, topConfidence, votersGauge)
	})
}

// Search lifecycle helpers
func IncSearch(outcome string)             { searchesTotal.WithLabelValues(outcome).Inc() }
func IncSearchTerm(field, strategy string) { searchTermsUsed.WithLabelValues(field, strategy).Inc() }
func ObserveCandidates(n int)              { candidatesFetched.Observe(float64(n)) }
func ObserveTopConfidence(c float64)       { topConfidence.Observe(c) }

func ObservePhase(phase string, d time.Duration) {
	searchDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Gauges
func SetVoters(n int) { votersGauge.Set(float64(n)) }
