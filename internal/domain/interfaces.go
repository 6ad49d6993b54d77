package domain

import "time"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Vault is the opaque custody primitive. It is assumed
// conservation-correct: funds enter via Deposit, move via Transfer, and
// leave via Withdraw, always in exact amounts.
type Vault interface {
	// Deposit credits amount to account, creating it if needed.
	Deposit(account string, amount int64, tx TxType, refID string) error

	// Withdraw debits exactly amount from account.
	Withdraw(account string, amount int64, tx TxType, refID string) error

	// Transfer atomically moves amount from one account to another.
	Transfer(from, to string, amount int64, tx TxType, refID string) error

	// Balance returns the current balance of account (0 if absent).
	Balance(account string) int64
}

// Clock supplies current time. The engine compares deadlines against it
// instead of calling time.Now directly so tests can advance time.
type Clock func() time.Time

// TaskStore persists task records across daemon restarts.
// The in-memory engine is the system of record within a process; the
// store is its snapshot.
type TaskStore interface {
	UpsertTask(t Task) error
	DeleteTask(id string) error
	ListTasks() ([]Task, error)
}

// TrainingStore persists training records.
type TrainingStore interface {
	UpsertTraining(tr Training) error
	ListTrainings() ([]Training, error)
}

// RatingStore persists the append-only rating log.
type RatingStore interface {
	InsertRating(r Rating) error
	ListRatings() ([]Rating, error)
}

// LedgerRecorder persists custody ledger entries as they are written.
type LedgerRecorder interface {
	InsertLedgerEntry(e LedgerEntry) (int64, error)
}
