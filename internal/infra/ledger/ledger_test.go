package ledger

import (
	"errors"
	"testing"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func TestLedger_DepositAndBalance(t *testing.T) {
	l := New(nil)

	if err := l.Deposit("alice", 100, domain.TxDeposit, ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if bal := l.Balance("alice"); bal != 100 {
		t.Errorf("balance = %d, want 100", bal)
	}
}

func TestLedger_DepositInvalidAmount(t *testing.T) {
	l := New(nil)

	for _, amount := range []int64{0, -5} {
		err := l.Deposit("alice", amount, domain.TxDeposit, "")
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("Deposit(%d) = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestLedger_Transfer(t *testing.T) {
	l := New(nil)
	l.Deposit("alice", 100, domain.TxDeposit, "")

	if err := l.Transfer("alice", "escrow:task:t1", 60, domain.TxFund, "t1"); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if bal := l.Balance("alice"); bal != 40 {
		t.Errorf("alice = %d, want 40", bal)
	}
	if bal := l.Balance("escrow:task:t1"); bal != 60 {
		t.Errorf("escrow = %d, want 60", bal)
	}
}

func TestLedger_TransferInsufficient(t *testing.T) {
	l := New(nil)
	l.Deposit("alice", 10, domain.TxDeposit, "")

	err := l.Transfer("alice", "bob", 20, domain.TxFund, "")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	// No partial mutation
	if bal := l.Balance("alice"); bal != 10 {
		t.Errorf("alice = %d, want 10 (unchanged)", bal)
	}
	if bal := l.Balance("bob"); bal != 0 {
		t.Errorf("bob = %d, want 0 (unchanged)", bal)
	}
}

func TestLedger_Withdraw(t *testing.T) {
	l := New(nil)
	l.Deposit("alice", 50, domain.TxDeposit, "")

	if err := l.Withdraw("alice", 50, domain.TxRefund, ""); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if bal := l.Balance("alice"); bal != 0 {
		t.Errorf("alice = %d, want 0", bal)
	}

	err := l.Withdraw("alice", 1, domain.TxRefund, "")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("overdraw err = %v, want ErrInsufficientFunds", err)
	}
}

// Double-entry invariant: across all accounts (external included) the
// books always sum to zero.
func TestLedger_DoubleEntryInvariant(t *testing.T) {
	l := New(nil)
	l.Deposit("alice", 100, domain.TxDeposit, "")
	l.Deposit("bob", 30, domain.TxDeposit, "")
	l.Transfer("alice", "escrow:task:t1", 75, domain.TxFund, "t1")
	l.Transfer("escrow:task:t1", "bob", 75, domain.TxRelease, "t1")
	l.Withdraw("bob", 40, domain.TxRefund, "")

	var debits, credits int64
	for _, e := range l.Entries("", 1000) {
		if e.EntryType == domain.EntryDebit {
			debits += e.Amount
		} else {
			credits += e.Amount
		}
	}
	if debits != credits {
		t.Errorf("sum(debits) = %d, sum(credits) = %d, want equal", debits, credits)
	}
}

func TestLedger_Entries(t *testing.T) {
	l := New(nil)
	l.Deposit("alice", 10, domain.TxDeposit, "")
	l.Deposit("alice", 20, domain.TxDeposit, "")

	entries := l.Entries("alice", 10)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// Most recent first
	if entries[0].Amount != 20 {
		t.Errorf("first entry amount = %d, want 20", entries[0].Amount)
	}
	if entries[0].Balance != 30 {
		t.Errorf("running balance = %d, want 30", entries[0].Balance)
	}
}

func TestLedger_Restore(t *testing.T) {
	l := New(nil)
	l.Deposit("alice", 100, domain.TxDeposit, "")
	l.Transfer("alice", "escrow:task:t1", 60, domain.TxFund, "t1")

	restored := New(nil)
	// Replay oldest-first
	all := l.Entries("", 1000)
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	restored.Restore(all)

	if bal := restored.Balance("alice"); bal != 40 {
		t.Errorf("restored alice = %d, want 40", bal)
	}
	if bal := restored.Balance("escrow:task:t1"); bal != 60 {
		t.Errorf("restored escrow = %d, want 60", bal)
	}

	// New entries continue the ID sequence
	restored.Deposit("bob", 5, domain.TxDeposit, "")
	entries := restored.Entries("bob", 1)
	if entries[0].ID <= all[len(all)-1].ID {
		t.Errorf("entry ID %d should continue past %d", entries[0].ID, all[len(all)-1].ID)
	}
}
