package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID uint16

const (
	// MetricValidateSuccess counts successful magic-link validations.
	MetricValidateSuccess MetricID = iota
	// MetricValidateFailure counts rejected or failed magic-link validations.
	MetricValidateFailure
	// MetricRefreshSuccess counts successful session refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh attempts that ended the session.
	MetricRefreshFailure
	// MetricRefreshRetried counts transient refresh failures that were retried.
	MetricRefreshRetried
	// MetricRefreshScheduled counts refresh timers armed ahead of expiry.
	MetricRefreshScheduled
	// MetricRefreshImmediate counts refreshes attempted immediately because the
	// computed lead time was not positive.
	MetricRefreshImmediate
	// MetricSessionEstablished counts sessions installed in the store.
	MetricSessionEstablished
	// MetricSessionCleared counts sessions removed from the store.
	MetricSessionCleared
	// MetricLogout counts explicit logout operations.
	MetricLogout
	// MetricInactivityLogout counts logouts forced by the inactivity timer.
	MetricInactivityLogout
	// MetricActivityRecorded counts inactivity-timer rearms.
	MetricActivityRecorded
	// MetricAccessorBounced counts accessor calls short-circuited pre-network.
	MetricAccessorBounced
	// MetricGatewayRequest counts gateway round-trips attempted.
	MetricGatewayRequest
	// MetricGatewayTransportError counts gateway calls that failed in transport.
	MetricGatewayTransportError
	// MetricGatewayRejected counts gateway calls answered with a non-2xx status.
	MetricGatewayRejected
	// MetricFingerprintGenerated counts fingerprint digest computations.
	MetricFingerprintGenerated
	// MetricRequestLatency is the gateway round-trip latency histogram.
	MetricRequestLatency
	// MetricIDCount is one past the highest valid MetricID.
	MetricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls metric collection. When Enabled is false every operation
// is a no-op.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and optional latency histograms.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]metricHistogram
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New creates a [Metrics] instance configured by cfg.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Enabled reports whether metric collection is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample for the request-latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= MetricIDCount {
		return
	}
	if id != MetricRequestLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of the counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// SnapshotNow returns a deep copy of all counters and histograms.
func (m *Metrics) SnapshotNow() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
