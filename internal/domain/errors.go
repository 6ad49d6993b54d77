package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Every guard
// violation aborts the whole operation; state is left untouched.

var (
	// Task escrow guards
	ErrTaskNotFound           = errors.New("task not found")
	ErrInvalidAssignment      = errors.New("task already has an assignee")
	ErrInvalidCompletion      = errors.New("completion not allowed — wrong caller or work not submitted")
	ErrDisputeAuthorization   = errors.New("only the task creator may dispute or resolve")
	ErrAlreadyResolved        = errors.New("task is not under dispute")
	ErrNotAuthorized          = errors.New("caller is not authorized for this operation")
	ErrInvalidWithdrawal      = errors.New("refund not allowed after work submission")
	ErrInsufficientFunding    = errors.New("attached funding is below the task reward")
	ErrCancellationNotAllowed = errors.New("cancellation requires an unassigned task and the creator")
	ErrDeadlineNotReached     = errors.New("completion deadline has not passed")
	ErrEscrowDrained          = errors.New("escrow already drained, no funds to move")
	ErrNotAssigned            = errors.New("task has no assignee")

	// Rating guards
	ErrInvalidRating = errors.New("rating score out of bounds")

	// Training guards
	ErrTrainingNotFound  = errors.New("training not found")
	ErrSelfCompletion    = errors.New("creator cannot complete their own training")
	ErrTrainingCompleted = errors.New("training already completed")
	ErrAlreadyCertified  = errors.New("user already certified")

	// Custody vault
	ErrNoSuchAccount     = errors.New("vault account does not exist")
	ErrInsufficientFunds = errors.New("insufficient funds in vault account")
	ErrInvalidAmount     = errors.New("amount must be positive")
)
