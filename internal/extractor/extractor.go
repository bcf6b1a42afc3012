// Package extractor runs the independent worker loops that turn persisted
// logs into decoded transfer events and maintain the balance ledgers
// derived from them. Each worker is a loop: fetch a batch, parse it,
// commit, sleep.
package extractor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/rpcpool"
	"github.com/csic-platform/evm-indexer/internal/store"
)

// worker is satisfied by each of the six extractor loops.
type worker interface {
	runBatch(ctx context.Context) error
	name() string
	sleepInterval() time.Duration
}

// Pipeline owns one chain's set of extractor workers and runs them as
// independent goroutines.
type Pipeline struct {
	workers []worker
	logger  *zap.Logger
}

// New builds the full six-worker pipeline for chain.
func New(chain string, st *store.Store, pool *rpcpool.Pool, logger *zap.Logger) *Pipeline {
	logger = logger.With(zap.String("chain", chain))
	return &Pipeline{
		logger: logger,
		workers: []worker{
			&erc20TransferDecoder{chain: chain, store: st},
			&erc20TokenMetadata{chain: chain, store: st, pool: pool},
			&erc20BalanceAccumulator{chain: chain, store: st},
			&nftTransferDecoder{chain: chain, store: st},
			&nftBalanceAccumulator{chain: chain, store: st},
			&nftTokenMetadata{chain: chain, store: st, pool: pool},
		},
	}
}

// Run launches every worker loop and blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	done := make(chan struct{}, len(p.workers))
	for _, w := range p.workers {
		go func(w worker) {
			runLoop(ctx, w, p.logger)
			done <- struct{}{}
		}(w)
	}
	for range p.workers {
		<-done
	}
}

// runLoop is the {fetch batch; parse; commit; sleep} shape shared by every
// worker. A batch that finds no work still sleeps, so an idle pipeline
// doesn't spin; a batch that errors logs a warning and retries after the
// same sleep, since TransientIO/DataError here are scoped to the batch.
func runLoop(ctx context.Context, w worker, logger *zap.Logger) {
	log := logger.With(zap.String("worker", w.name()))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.runBatch(ctx); err != nil {
			log.Warn("batch failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.sleepInterval()):
		}
	}
}
