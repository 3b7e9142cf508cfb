// internal/metrics/collector.go
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricType identifies one registered metric.
type MetricType string

const (
	QuoteCounterType       MetricType = "quote_counter"
	QuoteLatencyType       MetricType = "quote_latency"
	SnapshotDurationType   MetricType = "snapshot_duration"
	CacheHitCounterType    MetricType = "cache_hit_counter"
	OpportunityCounterType MetricType = "opportunity_counter"
)

var registerOnce sync.Once

// Collector manages the scanner's prometheus metrics.
type Collector struct {
	metrics sync.Map
}

// NewCollector creates the collector and registers its metrics. The
// underlying collectors are process-global; repeated construction reuses
// the same registrations.
func NewCollector() *Collector {
	c := &Collector{}
	c.initializeMetrics()
	return c
}

func (c *Collector) initializeMetrics() {
	metricsMap := map[MetricType]prometheus.Collector{
		QuoteCounterType:       quoteCounter,
		QuoteLatencyType:       quoteLatency,
		SnapshotDurationType:   snapshotDuration,
		CacheHitCounterType:    cacheHits,
		OpportunityCounterType: opportunityCounter,
	}

	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
	}

	registerOnce.Do(func() {
		for _, metric := range metricsMap {
			prometheus.MustRegister(metric)
		}
	})
}

// Reset clears all metrics (useful in tests).
func (c *Collector) Reset() {
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}

// RecordQuote records one provider call.
func (c *Collector) RecordQuote(source string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if counter, ok := c.metrics.Load(QuoteCounterType); ok {
		if counterVec, ok := counter.(*prometheus.CounterVec); ok {
			counterVec.WithLabelValues(status, source).Inc()
		}
	}

	if latency, ok := c.metrics.Load(QuoteLatencyType); ok {
		if histVec, ok := latency.(*prometheus.HistogramVec); ok {
			histVec.WithLabelValues(source).Observe(duration.Seconds())
		}
	}
}

// RecordCacheHit records one cache hit for a source.
func (c *Collector) RecordCacheHit(source string) {
	if counter, ok := c.metrics.Load(CacheHitCounterType); ok {
		if counterVec, ok := counter.(*prometheus.CounterVec); ok {
			counterVec.WithLabelValues(source).Inc()
		}
	}
}

// RecordSnapshot records the wall-clock duration of one full fan-out.
func (c *Collector) RecordSnapshot(pair string, duration time.Duration) {
	if metric, ok := c.metrics.Load(SnapshotDurationType); ok {
		if histVec, ok := metric.(*prometheus.HistogramVec); ok {
			histVec.WithLabelValues(pair).Observe(duration.Seconds())
		}
	}
}

// RecordOpportunities records how many viable opportunities one analysis
// produced.
func (c *Collector) RecordOpportunities(pair string, count int) {
	if metric, ok := c.metrics.Load(OpportunityCounterType); ok {
		if counterVec, ok := metric.(*prometheus.CounterVec); ok {
			counterVec.WithLabelValues(pair).Add(float64(count))
		}
	}
}

var (
	quoteCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbscan",
			Name:      "quotes_total",
			Help:      "Total number of quote requests issued",
		},
		[]string{"status", "source"},
	)

	quoteLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arbscan",
			Name:      "quote_latency_seconds",
			Help:      "Quote request latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"source"},
	)

	snapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arbscan",
			Name:      "snapshot_duration_seconds",
			Help:      "Full multi-source collection duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"pair"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbscan",
			Name:      "quote_cache_hits_total",
			Help:      "Quote cache hits by source",
		},
		[]string{"source"},
	)

	opportunityCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbscan",
			Name:      "opportunities_total",
			Help:      "Viable arbitrage opportunities found",
		},
		[]string{"pair"},
	)
)
