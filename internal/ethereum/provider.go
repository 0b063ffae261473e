package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Provider defines the subset of Ethereum JSON-RPC the dashboard needs.
// Signing happens behind SendTransaction (wallet-managed account).
type Provider interface {
	// GetBalance returns the native coin balance in wei at the latest block.
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)

	// Call executes a read-only contract call at the latest block.
	Call(ctx context.Context, msg CallMsg) ([]byte, error)

	// SendTransaction broadcasts a transaction signed by the provider's wallet.
	SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error)

	// GetTransactionReceipt returns the receipt for hash.
	// Returns nil, nil while the transaction is not yet mined.
	GetTransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// CallMsg is an eth_call request.
type CallMsg struct {
	From common.Address
	To   common.Address
	Data []byte
}

// TxRequest is an eth_sendTransaction request.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Gas   uint64
	Value *big.Int // nil means zero
	Data  []byte
}

// Receipt represents a mined transaction receipt.
type Receipt struct {
	TxHash      common.Hash
	Status      uint64 // 1 success, 0 failure
	BlockNumber uint64
	GasUsed     uint64
}

// Succeeded reports whether the receipt carries a success status.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}
