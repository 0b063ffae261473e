// Package chain reads balances and allowances and submits approve, issue
// and redeem transactions through an ethereum.Provider.
package chain

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"index-dashboard/internal/contracts"
	"index-dashboard/internal/ethereum"
	"index-dashboard/internal/observability"
	"index-dashboard/internal/storage"
)

// MinPollInterval is the shortest allowed spacing between receipt lookups.
const MinPollInterval = 2 * time.Second

// Gas limits sent with each write.
const (
	ApproveGas uint64 = 80000
	IssueGas   uint64 = 278649
	RedeemGas  uint64 = 313906
)

var (
	// ErrWaitTimeout is returned when no receipt arrived within the wait timeout.
	ErrWaitTimeout = errors.New("timed out waiting for transaction receipt")

	// ErrTransactionFailed is returned when the receipt reports a revert.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidHash is returned for a handle that is not a 32-byte hex hash.
	ErrInvalidHash = errors.New("invalid transaction hash")
)

// Client performs reads and writes against the contracts of one network.
// It keeps no per-call state and is safe for concurrent use.
type Client struct {
	provider ethereum.Provider
	network  contracts.Network
	store    storage.TransactionStore
	logger   zerolog.Logger

	pollInterval time.Duration
	waitTimeout  time.Duration

	after func(time.Duration) <-chan time.Time
	now   func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval sets the receipt poll interval. Values below
// MinPollInterval are raised to it.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d < MinPollInterval {
			d = MinPollInterval
		}
		c.pollInterval = d
	}
}

// WithWaitTimeout bounds WaitTransaction. Zero waits until the context ends.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d < 0 {
			d = 0
		}
		c.waitTimeout = d
	}
}

// WithTransactionStore records every write in store.
func WithTransactionStore(store storage.TransactionStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for network.
func New(provider ethereum.Provider, network contracts.Network, opts ...Option) *Client {
	c := &Client{
		provider:     provider,
		network:      network,
		logger:       observability.Component("chain"),
		pollInterval: MinPollInterval,
		after:        time.After,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Network returns the deployment the client targets.
func (c *Client) Network() contracts.Network {
	return c.network
}

// EtherscanLink returns the explorer page of a transaction.
func (c *Client) EtherscanLink(txHash string) string {
	return c.network.TxURL(txHash)
}

// EtherscanLink returns the mainnet Etherscan page of a transaction.
func EtherscanLink(txHash string) string {
	return contracts.Mainnet.TxURL(txHash)
}
