// Package ledger implements the custody vault as a double-entry ledger.
// Every movement creates matched DEBIT/CREDIT entries.
// SUM(debits) == SUM(credits) is an invariant.
package ledger

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/paydirt-network/paydirt/internal/domain"
)

// externalAccount is the counter-account for deposits and withdrawals,
// so even boundary movements keep the double-entry books balanced.
const externalAccount = "external"

// Ledger is an in-memory conservation-correct vault. It satisfies
// domain.Vault. An optional recorder writes entries through to durable
// storage; recorder failures are logged, never propagated, because the
// in-memory books are the system of record within a process.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]int64
	entries  []domain.LedgerEntry
	recorder domain.LedgerRecorder
	nextID   int64
	clock    domain.Clock
}

// New creates an empty ledger. recorder may be nil.
func New(recorder domain.LedgerRecorder) *Ledger {
	return &Ledger{
		balances: make(map[string]int64),
		recorder: recorder,
		nextID:   1,
		clock:    time.Now,
	}
}

// SetClock overrides the timestamp source (tests).
func (l *Ledger) SetClock(c domain.Clock) { l.clock = c }

// Deposit credits amount to account from the external world.
func (l *Ledger) Deposit(account string, amount int64, tx domain.TxType, refID string) error {
	if amount <= 0 {
		return fmt.Errorf("deposit %d to %s: %w", amount, account, domain.ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(domain.EntryDebit, externalAccount, amount, tx, refID)
	l.record(domain.EntryCredit, account, amount, tx, refID)
	return nil
}

// Withdraw debits exactly amount from account to the external world.
func (l *Ledger) Withdraw(account string, amount int64, tx domain.TxType, refID string) error {
	if amount <= 0 {
		return fmt.Errorf("withdraw %d from %s: %w", amount, account, domain.ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[account] < amount {
		return fmt.Errorf("withdraw %d from %s (have %d): %w",
			amount, account, l.balances[account], domain.ErrInsufficientFunds)
	}

	l.record(domain.EntryDebit, account, amount, tx, refID)
	l.record(domain.EntryCredit, externalAccount, amount, tx, refID)
	return nil
}

// Transfer atomically moves amount between accounts. Either both entries
// are written or neither is.
func (l *Ledger) Transfer(from, to string, amount int64, tx domain.TxType, refID string) error {
	if amount <= 0 {
		return fmt.Errorf("transfer %d %s→%s: %w", amount, from, to, domain.ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return fmt.Errorf("transfer %d from %s (have %d): %w",
			amount, from, l.balances[from], domain.ErrInsufficientFunds)
	}

	l.record(domain.EntryDebit, from, amount, tx, refID)
	l.record(domain.EntryCredit, to, amount, tx, refID)
	return nil
}

// Balance returns the current balance of account (0 if never used).
func (l *Ledger) Balance(account string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account]
}

// Entries returns up to limit most recent entries for an account
// (all accounts when account is empty).
func (l *Ledger) Entries(account string, limit int) []domain.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.LedgerEntry
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if account == "" || l.entries[i].Account == account {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// record appends one entry under the held lock and updates the running
// account balance. Debits subtract, credits add.
func (l *Ledger) record(et domain.EntryType, account string, amount int64, tx domain.TxType, refID string) {
	if et == domain.EntryDebit {
		l.balances[account] -= amount
	} else {
		l.balances[account] += amount
	}

	e := domain.LedgerEntry{
		ID:        l.nextID,
		Timestamp: l.clock(),
		Type:      tx,
		EntryType: et,
		Account:   account,
		Amount:    amount,
		RefID:     refID,
		Balance:   l.balances[account],
	}
	l.nextID++
	l.entries = append(l.entries, e)

	if l.recorder != nil {
		if _, err := l.recorder.InsertLedgerEntry(e); err != nil {
			log.Printf("[ledger] persist entry %d: %v", e.ID, err)
		}
	}
}

// Restore replays persisted entries into a fresh ledger (daemon start).
// Entries must be in insertion order.
func (l *Ledger) Restore(entries []domain.LedgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range entries {
		l.balances[e.Account] = e.Balance
		l.entries = append(l.entries, e)
		if e.ID >= l.nextID {
			l.nextID = e.ID + 1
		}
	}
}
