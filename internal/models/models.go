package models

import (
	"time"
)

// Wallet is a balance holder owned by exactly one user.
// Balance and OpeningBalance are integer minor units.
type Wallet struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Balance        int64     `json:"balance"`
	OpeningBalance int64     `json:"opening_balance"`
	Version        uint64    `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
}

type Transaction struct {
	ID           string    `json:"id"`
	SrcWalletID  string    `json:"src_wallet_id"`
	DestWalletID string    `json:"dest_wallet_id"`
	Amount       int64     `json:"amount"`
	Status       string    `json:"status"` // PENDING, COMMITTED or FAILED
	Reason       string    `json:"reason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Statement pairs a wallet snapshot with its ledger history. The two parts are
// read separately and are not linearized against each other.
type Statement struct {
	Wallet       Wallet        `json:"wallet"`
	Transactions []Transaction `json:"transactions"`
}

type AuditEvent struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	ActorID       string    `json:"actor_id"`
	WalletID      string    `json:"wallet_id"`
	ClaimedUserID string    `json:"claimed_user_id"`
	ActualOwnerID string    `json:"actual_owner_id,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
