// Package domain holds the core escrow marketplace types.
// A Task is a funded unit of work: a creator posts it with the reward
// locked in escrow, one worker is assigned, submits, and the escrow is
// drained exactly once — released, refunded, or split by arbitration.
package domain

import "time"

// Principal identifies a party that can authorize operations.
// The execution context (API layer) supplies the caller's principal.
type Principal string

// None is the absent principal (task has no assignee).
const None Principal = ""

// TaskState is the explicit task lifecycle state. The escrow engine
// pattern-matches on it so illegal flag combinations (such as a
// verified task with no assignee) cannot be represented.
type TaskState string

const (
	StateUnassigned TaskState = "UNASSIGNED"
	StateAssigned   TaskState = "ASSIGNED"
	StateSubmitted  TaskState = "SUBMITTED"
	StateVerified   TaskState = "VERIFIED"
	StateDisputed   TaskState = "DISPUTED"
)

// Task is the central escrowed record.
type Task struct {
	ID          string    `json:"id"`
	Creator     Principal `json:"creator"`
	Assignee    Principal `json:"assignee,omitempty"`
	Description string    `json:"description"`
	Reward      int64     `json:"reward"`
	State       TaskState `json:"state"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
}

// Assigned reports whether the task currently has a worker bound.
func (t *Task) Assigned() bool {
	return t.Assignee != None
}

// WorkSubmitted reports whether work has been handed in this cycle.
// Submitted work survives verification and disputes.
func (t *Task) WorkSubmitted() bool {
	return t.State == StateSubmitted || t.State == StateVerified || t.State == StateDisputed
}

// EscrowAccount is the vault account holding this task's funds.
func (t *Task) EscrowAccount() string {
	return "escrow:task:" + t.ID
}
