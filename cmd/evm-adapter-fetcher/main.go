// Command evm-adapter-fetcher polls a remote directory of known protocol
// adapter contracts and upserts them for this chain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/config"
	"github.com/csic-platform/evm-indexer/internal/external"
	"github.com/csic-platform/evm-indexer/internal/health"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/store"
)

func main() {
	app := &cli.App{
		Name:   "evm-adapter-fetcher",
		Usage:  "poll the adapter directory and upsert known protocol contracts",
		Flags:  append(config.Flags(), &cli.StringFlag{Name: "health-addr", Value: ":8083"}),
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
	if cfg.AdapterEndpoint == "" {
		return &ierrors.ConfigError{Msg: "--adapter-endpoint is required"}
	}

	logger, _ := zap.NewProduction()
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()
	logger.Info("starting evm-adapter-fetcher", zap.String("config", cfg.String()))

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

	fetcher := external.NewAdapterFetcher(cfg.Chain, cfg.AdapterEndpoint, st, logger)
	fetcher.Run(ctx)

	logger.Info("evm-adapter-fetcher stopped")
	return nil
}
