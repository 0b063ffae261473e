package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"index-dashboard/internal/contracts"
	"index-dashboard/internal/ethereum"
	"index-dashboard/internal/observability"
)

// EthBalance returns the native balance of address in wei.
func (c *Client) EthBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := c.provider.GetBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get eth balance of %s: %w", address.Hex(), err)
	}
	return balance, nil
}

// Balance returns the ERC20 balance of address in token's smallest unit.
func (c *Client) Balance(ctx context.Context, token, address common.Address) (*big.Int, error) {
	data, err := contracts.PackBalanceOf(address)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	balance, err := c.callUint256(ctx, token, "balanceOf", data)
	if err != nil {
		return nil, fmt.Errorf("get balance of %s on %s: %w", address.Hex(), token.Hex(), err)
	}
	return balance, nil
}

// Allowance returns how much spender may move from owner's token balance.
func (c *Client) Allowance(ctx context.Context, owner, spender, token common.Address) (*big.Int, error) {
	data, err := contracts.PackAllowance(owner, spender)
	if err != nil {
		return nil, fmt.Errorf("pack allowance: %w", err)
	}
	allowance, err := c.callUint256(ctx, token, "allowance", data)
	if err != nil {
		return nil, fmt.Errorf("get allowance of %s for %s on %s: %w", owner.Hex(), spender.Hex(), token.Hex(), err)
	}
	return allowance, nil
}

// EthBalanceString is EthBalance as a decimal string, "0" on any failure.
func (c *Client) EthBalanceString(ctx context.Context, address common.Address) string {
	balance, err := c.EthBalance(ctx, address)
	return c.orZero("eth_balance", balance, err)
}

// BalanceString is Balance as a decimal string, "0" on any failure.
func (c *Client) BalanceString(ctx context.Context, token, address common.Address) string {
	balance, err := c.Balance(ctx, token, address)
	return c.orZero("balance", balance, err)
}

// AllowanceString is Allowance as a decimal string, "0" on any failure.
func (c *Client) AllowanceString(ctx context.Context, owner, spender, token common.Address) string {
	allowance, err := c.Allowance(ctx, owner, spender, token)
	return c.orZero("allowance", allowance, err)
}

func (c *Client) callUint256(ctx context.Context, to common.Address, method string, data []byte) (*big.Int, error) {
	out, err := c.provider.Call(ctx, ethereum.CallMsg{To: to, Data: data})
	if err != nil {
		return nil, err
	}
	return contracts.UnpackUint256(method, out)
}

func (c *Client) orZero(operation string, v *big.Int, err error) string {
	if err != nil {
		observability.RecordReadFailure(operation)
		c.logger.Debug().Err(err).Str("operation", operation).Msg("read failed, reporting zero")
		return "0"
	}
	if v == nil {
		return "0"
	}
	return v.String()
}
