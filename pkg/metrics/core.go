package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetrics records counters for the accounting and inventory core.
type CoreMetrics struct {
	opDuration       *prometheus.HistogramVec
	postings         *prometheus.CounterVec
	movements        *prometheus.CounterVec
	idempotentHits   *prometheus.CounterVec
	insufficientQty  prometheus.Counter
	periodLockDenied prometheus.Counter
}

// NewCoreMetrics registers the core metrics on the provided registerer.
func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	if reg == nil {
		return &CoreMetrics{}
	}
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "core_op_duration_seconds",
		Help:    "Duration of core operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	postings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_entries_posted_total",
		Help: "Journal entries posted, by status.",
	}, []string{"status"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_total",
		Help: "Inventory movements recorded, by type.",
	}, []string{"type"})
	idempotentHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idempotent_replays_total",
		Help: "Mutating calls answered from a prior write via the source key.",
	}, []string{"entity"})
	insufficientQty := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batch_insufficient_quantity_total",
		Help: "Batch decrements rejected by the non-negativity guard.",
	})
	periodLockDenied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "period_lock_rejections_total",
		Help: "Postings rejected because the period is locked.",
	})
	reg.MustRegister(opDuration, postings, movements, idempotentHits, insufficientQty, periodLockDenied)
	return &CoreMetrics{
		opDuration:       opDuration,
		postings:         postings,
		movements:        movements,
		idempotentHits:   idempotentHits,
		insufficientQty:  insufficientQty,
		periodLockDenied: periodLockDenied,
	}
}

// ObserveOp records the duration for the named operation.
func (m *CoreMetrics) ObserveOp(op string, duration time.Duration) {
	if m == nil || m.opDuration == nil {
		return
	}
	m.opDuration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncPosting increments the posting counter for the given entry status.
func (m *CoreMetrics) IncPosting(status string) {
	if m == nil || m.postings == nil {
		return
	}
	m.postings.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncMovement increments the movement counter for the given movement type.
func (m *CoreMetrics) IncMovement(movementType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncIdempotentReplay increments the replay counter for the given entity.
func (m *CoreMetrics) IncIdempotentReplay(entity string) {
	if m == nil || m.idempotentHits == nil {
		return
	}
	m.idempotentHits.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncInsufficientQuantity counts a rejected batch decrement.
func (m *CoreMetrics) IncInsufficientQuantity() {
	if m == nil || m.insufficientQty == nil {
		return
	}
	m.insufficientQty.Inc()
}

// IncPeriodLockRejection counts a posting rejected by the period lock.
func (m *CoreMetrics) IncPeriodLockRejection() {
	if m == nil || m.periodLockDenied == nil {
		return
	}
	m.periodLockDenied.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
