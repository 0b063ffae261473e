package domain

// TxKind identifies the write operation behind a transaction.
type TxKind string

const (
	TxKindApprove TxKind = "APPROVE"
	TxKindIssue   TxKind = "ISSUE"
	TxKindRedeem  TxKind = "REDEEM"
)

// TxStatus is the lifecycle state of a write transaction.
//
//	SUBMITTED -> PENDING -> CONFIRMED | FAILED
//	SUBMITTED -> FAILED (broadcast rejected)
type TxStatus string

const (
	TxStatusSubmitted TxStatus = "SUBMITTED"
	TxStatusPending   TxStatus = "PENDING"
	TxStatusConfirmed TxStatus = "CONFIRMED"
	TxStatusFailed    TxStatus = "FAILED"
)

// IsFinal reports whether no further transition is possible.
func (s TxStatus) IsFinal() bool {
	return s == TxStatusConfirmed || s == TxStatusFailed
}

// TransactionRecord tracks one write submitted through the dashboard.
// Corresponds to transactions table in PostgreSQL.
type TransactionRecord struct {
	ID        string   `json:"id"`                // uuid
	Kind      TxKind   `json:"kind"`              // APPROVE, ISSUE, REDEEM
	TxHash    string   `json:"tx_hash,omitempty"` // 0x-prefixed hash, empty until broadcast
	From      string   `json:"from"`              // sender address
	To        string   `json:"to"`                // contract address
	Amount    string   `json:"amount,omitempty"`  // smallest-unit amount, empty for approvals
	Status    TxStatus `json:"status"`            // lifecycle state
	Error     string   `json:"error,omitempty"`   // failure reason, empty on success
	CreatedAt int64    `json:"created_at"`        // ms
	UpdatedAt int64    `json:"updated_at"`        // ms
}
