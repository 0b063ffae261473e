package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"index-dashboard/internal/amount"
	"index-dashboard/internal/chain"
)

var errUsage = errors.New("usage")

// errWriteFailed is returned when a write was confirmed as failed or never confirmed.
var errWriteFailed = errors.New("transaction did not succeed")

// run dispatches one command. Reads print "0" when the node cannot answer.
func run(ctx context.Context, c *chain.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "balance":
		return runBalance(ctx, c, args, out)

	case "allowance":
		addrs, err := addresses(args, "TOKEN", "OWNER", "SPENDER")
		if err != nil {
			return err
		}
		printAmount(out, c.AllowanceString(ctx, addrs[1], addrs[2], addrs[0]))
		return nil

	case "approve":
		addrs, err := addresses(args, "OWNER", "SPENDER", "TOKEN")
		if err != nil {
			return err
		}
		ok, err := c.Approve(ctx, addrs[0], addrs[1], addrs[2], func(hash string) {
			if hash != "" {
				printf(out, "submitted %s", hash)
				printf(out, "%s", c.EtherscanLink(hash))
			}
		})
		return writeResult(out, ok, err)

	case "issue", "redeem":
		if len(args) != 2 {
			return fmt.Errorf("%w: %s AMOUNT USER", errUsage, cmd)
		}
		quantity, err := amount.Parse(args[0])
		if err != nil {
			return err
		}
		user, err := address(args[1], "USER")
		if err != nil {
			return err
		}
		write := c.Issue
		if cmd == "redeem" {
			write = c.Redeem
		}
		ok, err := write(ctx, quantity, user)
		return writeResult(out, ok, err)

	case "wait":
		if len(args) != 1 {
			return fmt.Errorf("%w: wait HASH", errUsage)
		}
		ok, err := c.WaitTransaction(ctx, args[0])
		return writeResult(out, ok, err)

	case "link":
		if len(args) != 1 {
			return fmt.Errorf("%w: link HASH", errUsage)
		}
		printf(out, "%s", c.EtherscanLink(args[0]))
		return nil
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func runBalance(ctx context.Context, c *chain.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	tokenFlag := fs.String("token", "", "ERC20 token address (default: native balance)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	addrs, err := addresses(fs.Args(), "ADDRESS")
	if err != nil {
		return err
	}
	if *tokenFlag == "" {
		printAmount(out, c.EthBalanceString(ctx, addrs[0]))
		return nil
	}
	token, err := address(*tokenFlag, "--token")
	if err != nil {
		return err
	}
	printAmount(out, c.BalanceString(ctx, token, addrs[0]))
	return nil
}

func printAmount(out io.Writer, raw string) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		v = new(big.Int)
	}
	printf(out, "%s (%s)", raw, amount.FullDisplayBalance(v, amount.DefaultDecimals))
}

func writeResult(out io.Writer, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errWriteFailed
	}
	printf(out, "confirmed")
	return nil
}

func address(raw, name string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: %q is not an address", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func addresses(args []string, names ...string) ([]common.Address, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("%w: expected %v", errUsage, names)
	}
	out := make([]common.Address, len(args))
	for i, raw := range args {
		a, err := address(raw, names[i])
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func printf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}
