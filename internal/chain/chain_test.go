package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"index-dashboard/internal/amount"
	"index-dashboard/internal/contracts"
	"index-dashboard/internal/domain"
	"index-dashboard/internal/ethereum"
	"index-dashboard/internal/ethereum/stub"
	"index-dashboard/internal/storage/memory"
)

var (
	owner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token   = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// fakeClock records every requested delay. Its channels fire immediately
// unless blocked is set.
type fakeClock struct {
	mu      sync.Mutex
	waits   []time.Duration
	blocked bool
	onWait  func()
}

func (f *fakeClock) after(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	blocked, onWait := f.blocked, f.onWait
	f.mu.Unlock()

	if onWait != nil {
		onWait()
	}
	ch := make(chan time.Time, 1)
	if !blocked {
		ch <- time.Time{}
	}
	return ch
}

func (f *fakeClock) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

func newTestClient(p ethereum.Provider, opts ...Option) (*Client, *fakeClock) {
	clock := &fakeClock{}
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	c := New(p, contracts.Mainnet, opts...)
	c.after = clock.after
	return c, clock
}

func uint256Word(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func TestWaitTransaction_PollsUntilReceipt(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)
	p.QueueReceipts(hash, nil, nil, stub.Success(hash))

	c, clock := newTestClient(p)

	ok, err := c.WaitTransaction(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, p.Polls(hash))
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, clock.Waits())
}

func TestWaitTransaction_FailedReceipt(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)
	p.QueueReceipts(hash, stub.Failure(hash))

	c, clock := newTestClient(p)

	ok, err := c.WaitTransaction(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, p.Polls(hash))
	assert.Empty(t, clock.Waits())
}

func TestWaitTransaction_PollIntervalFloor(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)
	p.QueueReceipts(hash, nil, stub.Success(hash))

	c, clock := newTestClient(p, WithPollInterval(100*time.Millisecond))
	_, err := c.WaitTransaction(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{MinPollInterval}, clock.Waits())

	p.QueueReceipts(stub.HashFor(2), nil, stub.Success(stub.HashFor(2)))
	c, clock = newTestClient(p, WithPollInterval(5*time.Second))
	_, err = c.WaitTransaction(context.Background(), stub.HashFor(2).Hex())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, clock.Waits())
}

func TestWaitTransaction_RetriesLookupErrors(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)
	p.QueueReceipts(hash, stub.Success(hash))
	p.ReceiptErr = errors.New("node unavailable")

	c, clock := newTestClient(p)
	clock.onWait = func() { p.ReceiptErr = nil }

	ok, err := c.WaitTransaction(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, p.Polls(hash))
}

func TestWaitTransaction_InvalidHash(t *testing.T) {
	c, _ := newTestClient(stub.NewProvider())

	for _, h := range []string{"", "0xabc", "not-hex", "0x" + "zz"} {
		_, err := c.WaitTransaction(context.Background(), h)
		assert.ErrorIs(t, err, ErrInvalidHash, "hash %q", h)
	}
}

func TestWaitTransaction_Timeout(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)

	c, clock := newTestClient(p, WithWaitTimeout(20*time.Millisecond))
	clock.blocked = true

	ok, err := c.WaitTransaction(context.Background(), hash.Hex())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Equal(t, 1, p.Polls(hash))
}

func TestWaitTransaction_ContextCancelled(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)

	c, clock := newTestClient(p, WithWaitTimeout(time.Hour))
	clock.blocked = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := c.WaitTransaction(ctx, hash.Hex())
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrWaitTimeout)
}

func TestEthBalance(t *testing.T) {
	p := stub.NewProvider()
	p.Balances[owner] = big.NewInt(42)
	c, _ := newTestClient(p)

	balance, err := c.EthBalance(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "42", balance.String())
	assert.Equal(t, "42", c.EthBalanceString(context.Background(), owner))

	p.BalanceErr = errors.New("rpc down")
	_, err = c.EthBalance(context.Background(), owner)
	assert.Error(t, err)
	assert.Equal(t, "0", c.EthBalanceString(context.Background(), owner))
}

func TestBalanceAndAllowance(t *testing.T) {
	p := stub.NewProvider()
	balanceOf, err := contracts.PackBalanceOf(owner)
	require.NoError(t, err)
	allowance, err := contracts.PackAllowance(owner, spender)
	require.NoError(t, err)

	p.CallHandler = func(msg ethereum.CallMsg) ([]byte, error) {
		if msg.To != token {
			return nil, errors.New("unexpected contract")
		}
		switch string(msg.Data) {
		case string(balanceOf):
			return uint256Word(1500), nil
		case string(allowance):
			return uint256Word(7), nil
		}
		return nil, errors.New("unexpected call")
	}
	c, _ := newTestClient(p)
	ctx := context.Background()

	b, err := c.Balance(ctx, token, owner)
	require.NoError(t, err)
	assert.Equal(t, "1500", b.String())
	assert.Equal(t, "1500", c.BalanceString(ctx, token, owner))

	a, err := c.Allowance(ctx, owner, spender, token)
	require.NoError(t, err)
	assert.Equal(t, "7", a.String())
	assert.Equal(t, "7", c.AllowanceString(ctx, owner, spender, token))

	// Wrong contract and failing calls degrade to "0"
	assert.Equal(t, "0", c.BalanceString(ctx, spender, owner))
	p.CallErr = errors.New("execution reverted")
	assert.Equal(t, "0", c.BalanceString(ctx, token, owner))
	assert.Equal(t, "0", c.AllowanceString(ctx, owner, spender, token))
}

func TestBalance_MalformedResponse(t *testing.T) {
	p := stub.NewProvider()
	p.CallHandler = func(ethereum.CallMsg) ([]byte, error) { return []byte{0x01}, nil }
	c, _ := newTestClient(p)

	_, err := c.Balance(context.Background(), token, owner)
	assert.Error(t, err)
	assert.Equal(t, "0", c.BalanceString(context.Background(), token, owner))
}

func TestApprove(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)
	p.QueueReceipts(hash, nil, stub.Success(hash))
	store := memory.NewTransactionStore()
	c, _ := newTestClient(p, WithTransactionStore(store))

	var gotHash string
	var pollsAtCallback int
	ok, err := c.Approve(context.Background(), owner, spender, token, func(h string) {
		gotHash = h
		pollsAtCallback = p.Polls(hash)
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, hash.Hex(), gotHash)
	assert.Equal(t, 0, pollsAtCallback, "callback must run before confirmation polling")

	sent := p.Sent()
	require.Len(t, sent, 1)
	want, err := contracts.PackApprove(spender, contracts.MaxAllowance)
	require.NoError(t, err)
	assert.Equal(t, owner, sent[0].From)
	assert.Equal(t, token, sent[0].To)
	assert.Equal(t, ApproveGas, sent[0].Gas)
	assert.Equal(t, want, sent[0].Data)

	r, err := store.GetByHash(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.TxKindApprove, r.Kind)
	assert.Equal(t, domain.TxStatusConfirmed, r.Status)
	assert.Empty(t, r.Amount)
}

func TestApprove_SubmissionError(t *testing.T) {
	p := stub.NewProvider()
	p.SendErr = errors.New("user rejected transaction")
	store := memory.NewTransactionStore()
	c, _ := newTestClient(p, WithTransactionStore(store))

	called := false
	gotHash := "unset"
	ok, err := c.Approve(context.Background(), owner, spender, token, func(h string) {
		called = true
		gotHash = h
	})
	assert.False(t, ok)
	assert.Error(t, err)
	assert.True(t, called)
	assert.Equal(t, "", gotHash)

	records, err := store.ListByAddress(context.Background(), owner.Hex())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.TxStatusFailed, records[0].Status)
	assert.Equal(t, "user rejected transaction", records[0].Error)
}

func TestApprove_NilCallback(t *testing.T) {
	p := stub.NewProvider()
	p.QueueReceipts(stub.HashFor(1), stub.Success(stub.HashFor(1)))
	c, _ := newTestClient(p)

	ok, err := c.Approve(context.Background(), owner, spender, token, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIssue(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)
	p.QueueReceipts(hash, nil, nil, stub.Success(hash))
	store := memory.NewTransactionStore()
	c, _ := newTestClient(p, WithTransactionStore(store))

	ok, err := c.Issue(context.Background(), decimal.RequireFromString("1.5"), owner)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, p.Polls(hash))

	sent := p.Sent()
	require.Len(t, sent, 1)
	quantity, _ := new(big.Int).SetString("1500000000000000000", 10)
	want, err := contracts.PackIssue(contracts.Mainnet.SetToken, quantity, owner)
	require.NoError(t, err)
	assert.Equal(t, contracts.Mainnet.IssuanceModule, sent[0].To)
	assert.Equal(t, owner, sent[0].From)
	assert.Equal(t, IssueGas, sent[0].Gas)
	assert.Equal(t, want, sent[0].Data)

	r, err := store.GetByHash(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.TxKindIssue, r.Kind)
	assert.Equal(t, domain.TxStatusConfirmed, r.Status)
	assert.Equal(t, "1500000000000000000", r.Amount)
}

func TestRedeem_Reverted(t *testing.T) {
	p := stub.NewProvider()
	hash := stub.HashFor(1)
	p.QueueReceipts(hash, stub.Failure(hash))
	store := memory.NewTransactionStore()
	c, _ := newTestClient(p, WithTransactionStore(store))

	ok, err := c.Redeem(context.Background(), decimal.NewFromInt(2), owner)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrTransactionFailed)

	sent := p.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, RedeemGas, sent[0].Gas)
	quantity, _ := new(big.Int).SetString("2000000000000000000", 10)
	want, err := contracts.PackRedeem(contracts.Mainnet.SetToken, quantity, owner)
	require.NoError(t, err)
	assert.Equal(t, want, sent[0].Data)

	r, err := store.GetByHash(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, r.Status)
}

func TestIssue_InvalidQuantity(t *testing.T) {
	p := stub.NewProvider()
	c, _ := newTestClient(p)
	ctx := context.Background()

	_, err := c.Issue(ctx, decimal.NewFromInt(-1), owner)
	assert.ErrorIs(t, err, amount.ErrNegative)

	_, err = c.Issue(ctx, decimal.Zero, owner)
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	_, err = c.Redeem(ctx, decimal.RequireFromString("0.0000000000000000001"), owner)
	assert.ErrorIs(t, err, amount.ErrPrecision)

	assert.Empty(t, p.Sent())
}

func TestIssue_TimeoutLeavesRecordPending(t *testing.T) {
	p := stub.NewProvider()
	store := memory.NewTransactionStore()
	c, clock := newTestClient(p, WithTransactionStore(store), WithWaitTimeout(20*time.Millisecond))
	clock.blocked = true

	ok, err := c.Issue(context.Background(), decimal.NewFromInt(1), owner)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrWaitTimeout)

	r, err := store.GetByHash(context.Background(), stub.HashFor(1).Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, r.Status)
}

func TestEtherscanLink(t *testing.T) {
	assert.Equal(t, "https://etherscan.io/tx/0xabc", EtherscanLink("0xabc"))

	c, _ := newTestClient(stub.NewProvider())
	assert.Equal(t, "https://etherscan.io/tx/0xabc", c.EtherscanLink("0xabc"))

	custom := contracts.Mainnet
	custom.ExplorerURL = "https://sepolia.etherscan.io"
	c = New(stub.NewProvider(), custom)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", c.EtherscanLink("0xabc"))
}
