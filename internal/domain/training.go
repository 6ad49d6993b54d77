package domain

import "time"

// Training is a certification record with its own funded escrow.
// Unlike tasks it has no dispute or refund lifecycle: the escrow pays
// out once to whoever completes it, and the creator certifies users
// onto an append-only list.
type Training struct {
	ID          string      `json:"id"`
	Creator     Principal   `json:"creator"`
	Description string      `json:"description"`
	Reward      int64       `json:"reward"`
	Completed   bool        `json:"completed"`
	Certified   []Principal `json:"certified,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// EscrowAccount is the vault account holding this training's funds.
func (tr *Training) EscrowAccount() string {
	return "escrow:training:" + tr.ID
}

// IsCertified reports whether p appears on the certified list.
func (tr *Training) IsCertified(p Principal) bool {
	for _, c := range tr.Certified {
		if c == p {
			return true
		}
	}
	return false
}
