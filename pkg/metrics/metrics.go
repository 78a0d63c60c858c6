// Package metrics exposes Prometheus instrumentation for the connection
// pool and server group layers. All recorder methods are nil-safe:
// calls on a nil recorder are no-ops, so instrumentation stays optional
// at every call site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics tracks one connection pool.
type PoolMetrics struct {
	// ConnectionsTotal counts connections ever established, labeled by
	// endpoint.
	ConnectionsTotal *prometheus.CounterVec

	// ConnectFailuresTotal counts failed connection attempts.
	ConnectFailuresTotal *prometheus.CounterVec

	// IdleGauge and InUseGauge track the instantaneous pool population.
	IdleGauge  *prometheus.GaugeVec
	InUseGauge *prometheus.GaugeVec

	// AcquireWaitSeconds observes how long Get callers waited.
	AcquireWaitSeconds *prometheus.HistogramVec

	// DiscardedTotal counts connections dropped instead of returned to
	// the idle set, labeled by endpoint and reason ("closed",
	// "unhealthy").
	DiscardedTotal *prometheus.CounterVec

	// BytesTotal accumulates compressed wire bytes moved by connections
	// the pool has retired, labeled by endpoint and direction ("read",
	// "written").
	BytesTotal *prometheus.CounterVec
}

// NewPoolMetrics creates and registers the pool metrics with reg. A nil
// reg creates unregistered metrics, which tests use.
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	m := &PoolMetrics{
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Subsystem: "pool",
			Name:      "connections_total",
			Help:      "Total NNTP connections established",
		}, []string{"endpoint"}),
		ConnectFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Subsystem: "pool",
			Name:      "connect_failures_total",
			Help:      "Total failed NNTP connection attempts",
		}, []string{"endpoint"}),
		IdleGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "spool",
			Subsystem: "pool",
			Name:      "idle_connections",
			Help:      "Idle connections currently held by the pool",
		}, []string{"endpoint"}),
		InUseGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "spool",
			Subsystem: "pool",
			Name:      "in_use_connections",
			Help:      "Connections currently lent out to callers",
		}, []string{"endpoint"}),
		AcquireWaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spool",
			Subsystem: "pool",
			Name:      "acquire_wait_seconds",
			Help:      "Time Get callers spent waiting for a connection",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.5m
		}, []string{"endpoint"}),
		DiscardedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Subsystem: "pool",
			Name:      "discarded_total",
			Help:      "Connections discarded instead of recycled",
		}, []string{"endpoint", "reason"}),
		BytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Subsystem: "pool",
			Name:      "bytes_total",
			Help:      "Wire bytes transferred by retired pool connections",
		}, []string{"endpoint", "direction"}),
	}

	if reg != nil {
		register(reg,
			m.ConnectionsTotal, m.ConnectFailuresTotal,
			m.IdleGauge, m.InUseGauge,
			m.AcquireWaitSeconds, m.DiscardedTotal,
			m.BytesTotal,
		)
	}
	return m
}

// RecordConnect counts one established connection.
func (m *PoolMetrics) RecordConnect(endpoint string) {
	if m == nil {
		return
	}
	m.ConnectionsTotal.WithLabelValues(endpoint).Inc()
}

// RecordConnectFailure counts one failed attempt.
func (m *PoolMetrics) RecordConnectFailure(endpoint string) {
	if m == nil {
		return
	}
	m.ConnectFailuresTotal.WithLabelValues(endpoint).Inc()
}

// SetPopulation updates the idle and in-use gauges.
func (m *PoolMetrics) SetPopulation(endpoint string, idle, inUse int) {
	if m == nil {
		return
	}
	m.IdleGauge.WithLabelValues(endpoint).Set(float64(idle))
	m.InUseGauge.WithLabelValues(endpoint).Set(float64(inUse))
}

// RecordAcquireWait observes one Get wait.
func (m *PoolMetrics) RecordAcquireWait(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.AcquireWaitSeconds.WithLabelValues(endpoint).Observe(seconds)
}

// RecordDiscard counts one discarded connection.
func (m *PoolMetrics) RecordDiscard(endpoint, reason string) {
	if m == nil {
		return
	}
	m.DiscardedTotal.WithLabelValues(endpoint, reason).Inc()
}

// RecordBandwidth accumulates a retired connection's wire byte totals.
func (m *PoolMetrics) RecordBandwidth(endpoint string, read, written int64) {
	if m == nil {
		return
	}
	m.BytesTotal.WithLabelValues(endpoint, "read").Add(float64(read))
	m.BytesTotal.WithLabelValues(endpoint, "written").Add(float64(written))
}

// GroupMetrics tracks endpoint routing and health in a server group.
type GroupMetrics struct {
	// AcquiresTotal counts group acquires, labeled by endpoint and
	// outcome ("ok", "error").
	AcquiresTotal *prometheus.CounterVec

	// UnhealthyGauge is 1 while an endpoint is marked unhealthy.
	UnhealthyGauge *prometheus.GaugeVec
}

// NewGroupMetrics creates and registers the group metrics with reg.
func NewGroupMetrics(reg prometheus.Registerer) *GroupMetrics {
	m := &GroupMetrics{
		AcquiresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Subsystem: "group",
			Name:      "acquires_total",
			Help:      "Acquire attempts routed through the server group",
		}, []string{"endpoint", "outcome"}),
		UnhealthyGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "spool",
			Subsystem: "group",
			Name:      "endpoint_unhealthy",
			Help:      "Whether the endpoint is currently considered unhealthy",
		}, []string{"endpoint"}),
	}
	if reg != nil {
		register(reg, m.AcquiresTotal, m.UnhealthyGauge)
	}
	return m
}

// RecordAcquire counts one routed acquire attempt.
func (m *GroupMetrics) RecordAcquire(endpoint string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.AcquiresTotal.WithLabelValues(endpoint, outcome).Inc()
}

// SetUnhealthy flips the endpoint health gauge.
func (m *GroupMetrics) SetUnhealthy(endpoint string, unhealthy bool) {
	if m == nil {
		return
	}
	v := 0.0
	if unhealthy {
		v = 1.0
	}
	m.UnhealthyGauge.WithLabelValues(endpoint).Set(v)
}

// register registers collectors, tolerating re-registration.
func register(reg prometheus.Registerer, collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
