package domain

import "time"

// TxType classifies why funds moved.
type TxType string

const (
	TxDeposit TxType = "DEPOSIT"
	TxFund    TxType = "FUND"    // creator → task escrow at creation
	TxRelease TxType = "RELEASE" // escrow → assignee
	TxRefund  TxType = "REFUND"  // escrow → creator
	TxResolve TxType = "RESOLVE" // escrow → winner of arbitration
	TxCancel  TxType = "CANCEL"  // escrow → creator, task deleted
	TxPayout  TxType = "PAYOUT"  // training escrow → completer
)

// EntryType marks one side of a double-entry pair.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// LedgerEntry is one side of a custody ledger movement. Every transfer
// writes a matched DEBIT/CREDIT pair; SUM(debits) == SUM(credits) is an
// invariant of the vault.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      TxType    `json:"type"`
	EntryType EntryType `json:"entry_type"`
	Account   string    `json:"account"`
	Amount    int64     `json:"amount"`
	RefID     string    `json:"ref_id,omitempty"` // task or training ID
	Balance   int64     `json:"balance"`          // account balance after this entry
}
