// Package contracts holds the ABIs and deployment addresses the dashboard talks to.
package contracts

import (
	"bytes"
	"embed"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

//go:embed abi/*.json
var abiFS embed.FS

var (
	erc20ABI    = mustLoad("abi/ERC20.json")
	issuanceABI = mustLoad("abi/Issuance.json")
)

// MaxAllowance is 2^256-1, the "unlimited" ERC20 approval amount.
var MaxAllowance = new(big.Int).Set(math.MaxBig256)

func mustLoad(name string) abi.ABI {
	data, err := abiFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read embedded abi %s: %v", name, err))
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("parse embedded abi %s: %v", name, err))
	}
	return parsed
}

// PackBalanceOf encodes balanceOf(owner).
func PackBalanceOf(owner common.Address) ([]byte, error) {
	return erc20ABI.Pack("balanceOf", owner)
}

// PackAllowance encodes allowance(owner, spender).
func PackAllowance(owner, spender common.Address) ([]byte, error) {
	return erc20ABI.Pack("allowance", owner, spender)
}

// PackApprove encodes approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return erc20ABI.Pack("approve", spender, amount)
}

// UnpackUint256 decodes the single uint256 returned by an ERC20 read method.
func UnpackUint256(method string, data []byte) (*big.Int, error) {
	out, err := erc20ABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", method, out[0])
	}
	return v, nil
}

// PackIssue encodes issue(setToken, quantity, to) on the issuance module.
func PackIssue(setToken common.Address, quantity *big.Int, to common.Address) ([]byte, error) {
	return issuanceABI.Pack("issue", setToken, quantity, to)
}

// PackRedeem encodes redeem(setToken, quantity, to) on the issuance module.
func PackRedeem(setToken common.Address, quantity *big.Int, to common.Address) ([]byte, error) {
	return issuanceABI.Pack("redeem", setToken, quantity, to)
}
