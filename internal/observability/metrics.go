// Package observability implements the broker's C8 surface: stats and
// health snapshots, and a Prometheus text-format metrics exposition.
package observability

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metrics owns every counter/gauge in spec §4.8's metrics contract and
// renders them to the Prometheus text exposition format on demand. Per
// spec §9's open question, success and error are recorded as separate
// counters rather than derived by subtraction from a total; their sum
// always equals the total operation count.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec // action, result
	compressed *prometheus.CounterVec // compressed=true/false

	bytesBefore prometheus.Counter
	bytesAfter  prometheus.Counter
	compressionRatio prometheus.Gauge

	expiredItems  prometheus.Counter
	expiredLeases prometheus.Counter

	totalRequests prometheus.Counter
	inFlight      prometheus.Gauge
	draining      prometheus.Gauge

	capacityItems prometheus.Gauge
	capacityMax   prometheus.Gauge
	capacityUtil  prometheus.Gauge
}

// NewMetrics constructs and registers every metric on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_operations_total",
			Help: "Count of broker operations by action and result.",
		}, []string{"action", "result"}),
		compressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_writes_total",
			Help: "Count of set writes by whether the client compressed the value.",
		}, []string{"compressed"}),
		bytesBefore: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_compression_bytes_before_total",
			Help: "Cumulative pre-compression byte size reported by clients.",
		}),
		bytesAfter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_compression_bytes_after_total",
			Help: "Cumulative post-compression byte size reported by clients.",
		}),
		compressionRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "broker_compression_ratio",
			Help: "Current cumulative compression ratio (after/before).",
		}),
		expiredItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_expired_items_total",
			Help: "Count of value store entries removed by TTL expiry.",
		}),
		expiredLeases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_expired_leases_total",
			Help: "Count of lease entries removed by TTL expiry.",
		}),
		totalRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_requests_total",
			Help: "Count of accepted request frames.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "broker_requests_in_flight",
			Help: "Number of requests currently being handled.",
		}),
		draining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "broker_draining",
			Help: "1 if the broker is currently draining, else 0.",
		}),
		capacityItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "broker_capacity_items",
			Help: "Current non-expired value store item count.",
		}),
		capacityMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "broker_capacity_max_items",
			Help: "Configured max_items cap (0 means uncapped).",
		}),
		capacityUtil: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "broker_capacity_utilization",
			Help: "items / max_items, or 0 when uncapped.",
		}),
	}

	reg.MustRegister(
		m.operations, m.compressed, m.bytesBefore, m.bytesAfter, m.compressionRatio,
		m.expiredItems, m.expiredLeases, m.totalRequests, m.inFlight, m.draining,
		m.capacityItems, m.capacityMax, m.capacityUtil,
	)
	return m
}

// RecordOperation records one handled request's outcome, split by action.
func (m *Metrics) RecordOperation(action string, ok bool) {
	result := "success"
	if !ok {
		result = "error"
	}
	m.operations.WithLabelValues(action, result).Inc()
	m.totalRequests.Inc()
}

// RecordCompressedWrite implements valuestore.MetricsRecorder.
func (m *Metrics) RecordCompressedWrite(beforeSize, afterSize int) {
	m.compressed.WithLabelValues("true").Inc()
	m.bytesBefore.Add(float64(beforeSize))
	m.bytesAfter.Add(float64(afterSize))
	m.recomputeRatio()
}

// RecordUncompressedWrite implements valuestore.MetricsRecorder.
func (m *Metrics) RecordUncompressedWrite(size int) {
	m.compressed.WithLabelValues("false").Inc()
}

func (m *Metrics) recomputeRatio() {
	before := gaugeValueOfCounter(m.bytesBefore)
	after := gaugeValueOfCounter(m.bytesAfter)
	if before == 0 {
		m.compressionRatio.Set(0)
		return
	}
	m.compressionRatio.Set(after / before)
}

// RecordExpiredItems implements sweeper.ExpiryRecorder.
func (m *Metrics) RecordExpiredItems(n int) { m.expiredItems.Add(float64(n)) }

// RecordExpiredLeases implements sweeper.ExpiryRecorder.
func (m *Metrics) RecordExpiredLeases(n int) { m.expiredLeases.Add(float64(n)) }

// SetInFlight sets the current in-flight request gauge.
func (m *Metrics) SetInFlight(n int) { m.inFlight.Set(float64(n)) }

// SetDraining sets the draining gauge.
func (m *Metrics) SetDraining(draining bool) {
	if draining {
		m.draining.Set(1)
	} else {
		m.draining.Set(0)
	}
}

// SetCapacity updates the capacity gauges.
func (m *Metrics) SetCapacity(items, max int) {
	m.capacityItems.Set(float64(items))
	m.capacityMax.Set(float64(max))
	if max > 0 {
		m.capacityUtil.Set(float64(items) / float64(max))
	} else {
		m.capacityUtil.Set(0)
	}
}

// Render encodes every registered metric family as Prometheus text
// exposition format.
func (m *Metrics) Render() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	enc := expfmt.NewEncoder(&sb, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// gaugeValueOfCounter reads back a counter's current value. Only used
// for the derived compression-ratio gauge; prometheus.Counter does not
// expose a Get, so we go through its protobuf metric representation.
func gaugeValueOfCounter(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	if m.Counter == nil {
		return 0
	}
	return m.Counter.GetValue()
}
