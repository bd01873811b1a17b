package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApprovalTransitions counts applied expense and transfer transitions.
var ApprovalTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "club",
	Subsystem: "caisse",
	Name:      "approval_transitions_total",
	Help:      "Applied approval transitions by subject and target status.",
}, []string{"subject", "to"})

// ApprovalConflicts counts transitions refused because the status had moved.
var ApprovalConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "club",
	Subsystem: "caisse",
	Name:      "approval_conflicts_total",
	Help:      "Transitions refused by the status guard or the compare-and-set update.",
}, []string{"subject"})

var PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "club",
	Subsystem: "contributions",
	Name:      "payments_recorded_total",
	Help:      "Payments recorded, by source (admin or self).",
}, []string{"source"})

var PaymentAmount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "club",
	Subsystem: "contributions",
	Name:      "payment_amount_total",
	Help:      "Sum of recorded payment amounts.",
})

var SuspensionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "club",
	Subsystem: "members",
	Name:      "suspension_decisions_total",
	Help:      "Applied suspension policy decisions.",
}, []string{"decision"})

var SuspensionRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "club",
	Subsystem: "members",
	Name:      "suspension_run_seconds",
	Help:      "Duration of a full suspension evaluation pass.",
	Buckets:   prometheus.DefBuckets,
})

var NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "club",
	Subsystem: "notifications",
	Name:      "dispatched_total",
	Help:      "Reminder and in-app notifications dispatched, by outcome.",
}, []string{"type", "outcome"})

// NotificationQueueDepth is the number of reminder jobs waiting for a worker.
var NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "club",
	Subsystem: "notifications",
	Name:      "queue_depth",
	Help:      "Reminder jobs queued but not yet picked up.",
})

var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "club",
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Badge cache lookups by result (hit, miss, error).",
}, []string{"result"})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "club",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern and status class.",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
}, []string{"method", "route", "status"})
