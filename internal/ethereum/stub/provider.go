package stub

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"index-dashboard/internal/ethereum"
)

// ErrNotFound is returned when no scripted response exists.
var ErrNotFound = errors.New("not found")

// CallHandler answers an eth_call.
type CallHandler func(msg ethereum.CallMsg) ([]byte, error)

// Provider implements ethereum.Provider for testing.
// Receipts are scripted per hash: each lookup returns the next queued entry,
// and the last entry repeats once the queue is exhausted.
type Provider struct {
	mu sync.Mutex

	Balances   map[common.Address]*big.Int
	BalanceErr error

	CallHandler CallHandler
	CallErr     error

	SendErr  error
	sent     []ethereum.TxRequest
	nextHash uint64

	receipts   map[common.Hash][]*ethereum.Receipt
	polls      map[common.Hash]int
	ReceiptErr error
}

// NewProvider creates a new stub provider.
func NewProvider() *Provider {
	return &Provider{
		Balances: make(map[common.Address]*big.Int),
		receipts: make(map[common.Hash][]*ethereum.Receipt),
		polls:    make(map[common.Hash]int),
	}
}

var _ ethereum.Provider = (*Provider)(nil)

// GetBalance returns the scripted balance, zero when unknown.
func (p *Provider) GetBalance(_ context.Context, address common.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.BalanceErr != nil {
		return nil, p.BalanceErr
	}
	if b, ok := p.Balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// Call dispatches to CallHandler.
func (p *Provider) Call(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	p.mu.Lock()
	handler, callErr := p.CallHandler, p.CallErr
	p.mu.Unlock()

	if callErr != nil {
		return nil, callErr
	}
	if handler == nil {
		return nil, ErrNotFound
	}
	return handler(msg)
}

// SendTransaction records tx and returns a deterministic hash.
func (p *Provider) SendTransaction(_ context.Context, tx ethereum.TxRequest) (common.Hash, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SendErr != nil {
		return common.Hash{}, p.SendErr
	}
	p.sent = append(p.sent, tx)
	p.nextHash++
	return HashFor(p.nextHash), nil
}

// GetTransactionReceipt pops the next scripted receipt for hash.
func (p *Provider) GetTransactionReceipt(_ context.Context, hash common.Hash) (*ethereum.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.polls[hash]++
	if p.ReceiptErr != nil {
		return nil, p.ReceiptErr
	}

	queue := p.receipts[hash]
	if len(queue) == 0 {
		return nil, nil
	}
	r := queue[0]
	if len(queue) > 1 {
		p.receipts[hash] = queue[1:]
	}
	return r, nil
}

// QueueReceipts scripts the lookups for hash. A nil entry means "not mined yet".
func (p *Provider) QueueReceipts(hash common.Hash, receipts ...*ethereum.Receipt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receipts[hash] = append(p.receipts[hash], receipts...)
}

// Polls returns how many receipt lookups were made for hash.
func (p *Provider) Polls(hash common.Hash) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls[hash]
}

// Sent returns a copy of all broadcast transactions in order.
func (p *Provider) Sent() []ethereum.TxRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ethereum.TxRequest, len(p.sent))
	copy(out, p.sent)
	return out
}

// HashFor returns the hash the n-th SendTransaction call produces (1-based).
func HashFor(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

// Success returns a successful receipt for hash.
func Success(hash common.Hash) *ethereum.Receipt {
	return &ethereum.Receipt{TxHash: hash, Status: 1, BlockNumber: 1}
}

// Failure returns a reverted receipt for hash.
func Failure(hash common.Hash) *ethereum.Receipt {
	return &ethereum.Receipt{TxHash: hash, Status: 0, BlockNumber: 1}
}
