// Command evm-abi-fetcher polls unparsed contracts and resolves their ABI
// from the chain's configured block-explorer API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/config"
	"github.com/csic-platform/evm-indexer/internal/external"
	"github.com/csic-platform/evm-indexer/internal/health"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/store"
)

func main() {
	app := &cli.App{
		Name:   "evm-abi-fetcher",
		Usage:  "resolve contract ABIs from the chain's block explorer",
		Flags:  append(config.Flags(), &cli.StringFlag{Name: "health-addr", Value: ":8082"}),
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
	logger.Info("starting evm-abi-fetcher", zap.String("config", cfg.String()))

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

	hs := health.New(c.String("health-addr"), logger)
	hs.MarkAlive()
	hs.MarkReady()
	go func() {
		if err := hs.Run(ctx); err != nil {
			logger.Warn("health server stopped", zap.Error(err))
		}
	}()

	fetcher := external.NewABIFetcher(chain, st, config.ABIToken(chain.Name), logger)
	fetcher.Run(ctx)

	logger.Info("evm-abi-fetcher stopped")
	return nil
}
