package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"index-dashboard/internal/observability"
)

// ParseHash validates a 0x-prefixed 32-byte transaction hash.
func ParseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return common.BytesToHash(b), nil
}

// WaitTransaction polls for the receipt of txHash until one is mined and
// reports whether it succeeded. Lookups are spaced by the poll interval.
// Lookup errors are logged and polled again. The wait ends with ctx.Err()
// when ctx is done, or ErrWaitTimeout once the configured timeout passes.
func (c *Client) WaitTransaction(ctx context.Context, txHash string) (bool, error) {
	hash, err := ParseHash(txHash)
	if err != nil {
		return false, err
	}

	waitCtx := ctx
	if c.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.waitTimeout)
		defer cancel()
	}

	start := c.now()
	polls := 0
	for {
		receipt, err := c.provider.GetTransactionReceipt(waitCtx, hash)
		polls++
		switch {
		case err != nil:
			c.logger.Debug().Err(err).Str("tx_hash", txHash).Int("poll", polls).Msg("receipt lookup failed")
		case receipt != nil:
			observability.RecordConfirmation(polls, c.now().Sub(start).Seconds())
			c.logger.Info().
				Str("tx_hash", txHash).
				Uint64("status", receipt.Status).
				Uint64("block", receipt.BlockNumber).
				Int("polls", polls).
				Msg("transaction mined")
			return receipt.Succeeded(), nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, fmt.Errorf("%w after %s (%d polls)", ErrWaitTimeout, c.waitTimeout, polls)
		case <-c.after(c.pollInterval):
		}
	}
}
