// Package metrics provides Prometheus metrics for Paydirt — counters and
// gauges for task lifecycle, escrow custody, disputes, and ratings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated tracks created tasks.
var TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "paydirt",
	Name:      "tasks_created_total",
	Help:      "Total tasks created.",
})

// TaskAssignments tracks assignments and reassignments.
var TaskAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "paydirt",
	Name:      "task_assignments_total",
	Help:      "Total task assignments.",
}, []string{"kind"}) // assign | reassign

// TaskSubmissions tracks work submissions.
var TaskSubmissions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "paydirt",
	Name:      "task_submissions_total",
	Help:      "Total work submissions.",
})

// ─── Escrow ─────────────────────────────────────────────────────────────────

// EscrowHeld tracks total value currently held in task escrows.
var EscrowHeld = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "paydirt",
	Name:      "escrow_held_total",
	Help:      "Value currently held in task escrow accounts.",
})

// Payouts tracks terminal escrow drains by kind.
var Payouts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "paydirt",
	Name:      "escrow_payouts_total",
	Help:      "Terminal escrow payouts.",
}, []string{"kind"}) // release | refund | cancel | resolve_assignee | resolve_creator

// GuardFailures tracks rejected operations by error class.
var GuardFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "paydirt",
	Name:      "guard_failures_total",
	Help:      "Operations aborted by a transition guard.",
}, []string{"op"})

// ─── Disputes ───────────────────────────────────────────────────────────────

// DisputesOpen tracks tasks currently in the disputed state.
var DisputesOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "paydirt",
	Name:      "disputes_open",
	Help:      "Tasks currently under dispute.",
})

// ─── Ratings & Trainings ────────────────────────────────────────────────────

// RatingsRecorded tracks appended ratings.
var RatingsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "paydirt",
	Name:      "ratings_recorded_total",
	Help:      "Total peer ratings recorded.",
})

// TrainingsCompleted tracks completed trainings.
var TrainingsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "paydirt",
	Name:      "trainings_completed_total",
	Help:      "Total trainings completed.",
})
