// Command evm-indexer runs the gap-fill sync engine for one chain, plus
// the head follower when a websocket RPC URL is configured.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/config"
	"github.com/csic-platform/evm-indexer/internal/eventbus"
	"github.com/csic-platform/evm-indexer/internal/headfollower"
	"github.com/csic-platform/evm-indexer/internal/health"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/kvcache"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
	"github.com/csic-platform/evm-indexer/internal/store"
	"github.com/csic-platform/evm-indexer/internal/syncengine"
)

func main() {
	app := &cli.App{
		Name:   "evm-indexer",
		Usage:  "sync a chain's blocks, transactions, receipts, and logs",
		Flags:  append(config.Flags(), &cli.StringFlag{Name: "health-addr", Value: ":8080"}),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c)
	if err != nil {
		return err
	}

	logger, _ := zap.NewProduction()
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()
	logger.Info("starting evm-indexer", zap.String("config", cfg.String()))

	chain, err := chains.Get(cfg.Chain)
	if err != nil {
		return &ierrors.ConfigError{Msg: "unknown chain", Cause: err}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	kv, err := kvcache.New(cfg.RedisURL, logger)
	if err != nil {
		return &ierrors.ConfigError{Msg: "connect redis", Cause: err}
	}
	defer kv.Close()

	if cfg.Reset {
		logger.Warn("dropping indexed set", zap.String("chain", chain.Name))
		return kv.Delete(ctx, chain.Name)
	}

	pool, err := rpcpool.New(ctx, chain, cfg.RPCs, cfg.Websocket)
	if err != nil {
		return err
	}
	defer pool.Close()

	publisher := eventbus.New(cfg.KafkaBrokers, logger)
	defer publisher.Close()

	hs := health.New(c.String("health-addr"), logger)
	if pool.PeerCount() > 0 {
		hs.MarkAlive()
	}

	engine, err := syncengine.New(ctx, chain, pool, st, kv, logger, cfg.StartBlock,
		syncengine.WithBatchSize(cfg.BatchSize), syncengine.WithEventBus(publisher),
		syncengine.WithReadyHook(hs.MarkReady))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hs.Run(ctx); err != nil {
			logger.Warn("health server stopped", zap.Error(err))
		}
	}()

	if pool.HasWebsocketPeer() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			follower := headfollower.New(engine, logger)
			if err := follower.Run(ctx); err != nil {
				logger.Warn("head follower stopped", zap.Error(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx); err != nil {
			logger.Warn("sync engine stopped", zap.Error(err))
		}
	}()

	wg.Wait()
	logger.Info("evm-indexer stopped")
	return nil
}
