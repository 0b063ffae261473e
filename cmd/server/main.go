// Package main runs the dashboard HTTP server: chart views, balance reads
// and transaction lookups, plus /health, /metrics and /status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"index-dashboard/internal/api"
	"index-dashboard/internal/chain"
	"index-dashboard/internal/chart"
	"index-dashboard/internal/config"
	"index-dashboard/internal/ethereum"
	"index-dashboard/internal/observability"
	"index-dashboard/internal/storage"
	chstore "index-dashboard/internal/storage/clickhouse"
	"index-dashboard/internal/storage/memory"
	"index-dashboard/internal/storage/migrations"
	pgstore "index-dashboard/internal/storage/postgres"
)

// stores holds the storage implementations the server uses.
type stores struct {
	series       storage.PriceSeriesStore
	transactions storage.TransactionStore
}

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	observability.SetupLogging(cfg.LogLevel, os.Stdout)
	logger := observability.Component("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stores")
	}
	defer cleanup()

	rpc := ethereum.NewHTTPClient(cfg.RPCEndpoint,
		ethereum.WithTimeout(cfg.RPCTimeout),
		ethereum.WithMaxRetries(cfg.MaxRetries),
	)
	checkChainID(ctx, rpc, cfg, logger)

	client := chain.New(rpc, cfg.Network,
		chain.WithPollInterval(cfg.PollInterval),
		chain.WithWaitTimeout(cfg.WaitTimeout),
		chain.WithTransactionStore(st.transactions),
		chain.WithLogger(observability.Component("chain")),
	)

	srv := api.NewServer(api.Options{
		Chain:        client,
		Series:       st.series,
		Transactions: st.transactions,
		Theme:        chart.DefaultTheme,
		CacheTTL:     cfg.CacheTTL,
		Logger:       observability.Component("api"),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("network", cfg.Network.Name).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	// Wait for second signal for immediate shutdown
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("second signal, forcing exit")
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	cancel()

	logger.Info().Msg("shutdown complete")
}

// createStores connects the configured databases and applies migrations.
// Empty DSNs use in-memory stores.
func createStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, func(), error) {
	st := &stores{
		series:       memory.NewPriceSeriesStore(),
		transactions: memory.NewTransactionStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		st.transactions = pgstore.NewTransactionStore(pool)
		logger.Info().Msg("transactions stored in postgres")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		st.series = chstore.NewPriceSeriesStore(conn)
		logger.Info().Msg("price series stored in clickhouse")
	}

	return st, cleanup, nil
}

// checkChainID warns when the node serves a different chain than configured.
func checkChainID(ctx context.Context, rpc *ethereum.HTTPClient, cfg *config.Config, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := rpc.ChainID(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not read chain id")
		return
	}
	if id.Int64() != cfg.Network.ChainID {
		logger.Warn().
			Int64("node_chain_id", id.Int64()).
			Int64("network_chain_id", cfg.Network.ChainID).
			Msg("node chain id does not match configured network")
	}
}
