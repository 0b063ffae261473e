package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"index-dashboard/internal/amount"
	"index-dashboard/internal/contracts"
	"index-dashboard/internal/domain"
	"index-dashboard/internal/ethereum"
	"index-dashboard/internal/observability"
)

// Transaction outcome labels.
const (
	outcomeConfirmed = "confirmed"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
	outcomeUnknown   = "unknown"
)

// Approve grants spender an unlimited allowance on token from owner and
// waits for confirmation. onTxHash, when non-nil, receives the hash as soon
// as the transaction is broadcast, or "" when it could not be submitted.
func (c *Client) Approve(ctx context.Context, owner, spender, token common.Address, onTxHash func(string)) (bool, error) {
	data, err := contracts.PackApprove(spender, contracts.MaxAllowance)
	if err != nil {
		notify(onTxHash, "")
		return false, fmt.Errorf("pack approve: %w", err)
	}
	return c.submit(ctx, write{
		kind:     domain.TxKindApprove,
		from:     owner,
		to:       token,
		gas:      ApproveGas,
		data:     data,
		onTxHash: onTxHash,
	})
}

// Issue mints quantity of the index token to user through the issuance
// module and waits for confirmation.
func (c *Client) Issue(ctx context.Context, quantity decimal.Decimal, user common.Address) (bool, error) {
	return c.issuance(ctx, domain.TxKindIssue, quantity, user)
}

// Redeem burns quantity of the index token held by user through the
// issuance module and waits for confirmation.
func (c *Client) Redeem(ctx context.Context, quantity decimal.Decimal, user common.Address) (bool, error) {
	return c.issuance(ctx, domain.TxKindRedeem, quantity, user)
}

func (c *Client) issuance(ctx context.Context, kind domain.TxKind, quantity decimal.Decimal, user common.Address) (bool, error) {
	units, err := amount.DecToBn(quantity, amount.DefaultDecimals)
	if err != nil {
		return false, fmt.Errorf("%s quantity %s: %w", strings.ToLower(string(kind)), quantity, err)
	}
	if units.Sign() == 0 {
		return false, fmt.Errorf("%s quantity: %w: must be positive", strings.ToLower(string(kind)), amount.ErrInvalidAmount)
	}

	var data []byte
	var gas uint64
	switch kind {
	case domain.TxKindIssue:
		data, err = contracts.PackIssue(c.network.SetToken, units, user)
		gas = IssueGas
	default:
		data, err = contracts.PackRedeem(c.network.SetToken, units, user)
		gas = RedeemGas
	}
	if err != nil {
		return false, fmt.Errorf("pack %s: %w", strings.ToLower(string(kind)), err)
	}

	return c.submit(ctx, write{
		kind:   kind,
		from:   user,
		to:     c.network.IssuanceModule,
		gas:    gas,
		data:   data,
		amount: units,
	})
}

type write struct {
	kind     domain.TxKind
	from     common.Address
	to       common.Address
	gas      uint64
	data     []byte
	amount   *big.Int
	onTxHash func(string)
}

// submit broadcasts w, waits for its receipt and records each transition.
func (c *Client) submit(ctx context.Context, w write) (bool, error) {
	kind := strings.ToLower(string(w.kind))
	logger := c.logger.With().Str("kind", kind).Str("from", w.from.Hex()).Logger()

	id := c.track(ctx, w)

	hash, err := c.provider.SendTransaction(ctx, ethereum.TxRequest{
		From: w.from,
		To:   w.to,
		Gas:  w.gas,
		Data: w.data,
	})
	if err != nil {
		notify(w.onTxHash, "")
		c.transition(ctx, id, domain.TxStatusFailed, "", err.Error())
		observability.RecordTransaction(kind, outcomeRejected)
		logger.Warn().Err(err).Msg("transaction submission failed")
		return false, fmt.Errorf("send %s: %w", kind, err)
	}

	txHash := hash.Hex()
	notify(w.onTxHash, txHash)
	c.transition(ctx, id, domain.TxStatusPending, txHash, "")
	logger.Info().Str("tx_hash", txHash).Str("link", c.EtherscanLink(txHash)).Msg("transaction submitted")

	ok, err := c.WaitTransaction(ctx, txHash)
	if err != nil {
		// The transaction may still be mined; the record stays pending.
		observability.RecordTransaction(kind, outcomeUnknown)
		logger.Warn().Err(err).Str("tx_hash", txHash).Msg("gave up waiting for confirmation")
		return false, err
	}
	if !ok {
		c.transition(ctx, id, domain.TxStatusFailed, "", ErrTransactionFailed.Error())
		observability.RecordTransaction(kind, outcomeFailed)
		logger.Warn().Str("tx_hash", txHash).Msg("transaction reverted")
		return false, fmt.Errorf("%s %s: %w", kind, txHash, ErrTransactionFailed)
	}

	c.transition(ctx, id, domain.TxStatusConfirmed, "", "")
	observability.RecordTransaction(kind, outcomeConfirmed)
	return true, nil
}

// track inserts a SUBMITTED record and returns its id, "" when untracked.
// Store failures are logged and never fail the write.
func (c *Client) track(ctx context.Context, w write) string {
	if c.store == nil {
		return ""
	}

	now := c.now().UnixMilli()
	r := &domain.TransactionRecord{
		ID:        uuid.NewString(),
		Kind:      w.kind,
		From:      w.from.Hex(),
		To:        w.to.Hex(),
		Status:    domain.TxStatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if w.amount != nil {
		r.Amount = w.amount.String()
	}

	if err := c.store.Insert(ctx, r); err != nil {
		c.logger.Warn().Err(err).Str("kind", string(w.kind)).Msg("record transaction")
		return ""
	}
	return r.ID
}

func (c *Client) transition(ctx context.Context, id string, status domain.TxStatus, txHash, errMsg string) {
	if c.store == nil || id == "" {
		return
	}
	// Transitions are written even after the caller's context ends.
	ctx = context.WithoutCancel(ctx)
	err := c.store.UpdateStatus(ctx, id, status, txHash, errMsg, c.now().UnixMilli())
	if err != nil {
		c.logger.Warn().Err(err).Str("id", id).Str("status", string(status)).Msg("update transaction record")
	}
}

func notify(onTxHash func(string), txHash string) {
	if onTxHash != nil {
		onTxHash(txHash)
	}
}
