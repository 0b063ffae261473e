// Package main provides chaintool, a command line front end to the chain
// helpers: balance and allowance reads, approve/issue/redeem writes and
// receipt waits.
//
// Usage:
//
//	chaintool [global flags] <command> [args]
//
// Commands:
//
//	balance [--token ADDR] ADDRESS
//	allowance TOKEN OWNER SPENDER
//	approve OWNER SPENDER TOKEN
//	issue AMOUNT USER
//	redeem AMOUNT USER
//	wait HASH
//	link HASH
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"index-dashboard/internal/chain"
	"index-dashboard/internal/config"
	"index-dashboard/internal/ethereum"
	"index-dashboard/internal/observability"
	"index-dashboard/internal/storage"
	"index-dashboard/internal/storage/migrations"
	pgstore "index-dashboard/internal/storage/postgres"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("chaintool", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: chaintool [flags] <balance|allowance|approve|issue|redeem|wait|link> [args]")
		fs.PrintDefaults()
	}
	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	observability.SetupLogging(cfg.LogLevel, os.Stderr)
	logger := observability.Component("chaintool")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []chain.Option{
		chain.WithPollInterval(cfg.PollInterval),
		chain.WithWaitTimeout(cfg.WaitTimeout),
		chain.WithLogger(observability.Component("chain")),
	}
	if cfg.PostgresDSN != "" {
		store, closeStore, err := openTransactionStore(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("open transaction store")
		}
		defer closeStore()
		opts = append(opts, chain.WithTransactionStore(store))
	}

	rpc := ethereum.NewHTTPClient(cfg.RPCEndpoint,
		ethereum.WithTimeout(cfg.RPCTimeout),
		ethereum.WithMaxRetries(cfg.MaxRetries),
	)
	client := chain.New(rpc, cfg.Network, opts...)

	err = run(ctx, client, fs.Args(), os.Stdout)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	case err != nil:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openTransactionStore(ctx context.Context, dsn string) (storage.TransactionStore, func(), error) {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pgstore.NewTransactionStore(pool), pool.Close, nil
}
