// Package syncengine drives the gap-fill loop: find the heights between a
// configured start block and the chain's current head that are missing
// from the indexed set, fetch and normalize them in parallel chunks, and
// commit each chunk in dependency order before advancing the set.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/eventbus"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/kvcache"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
	"github.com/csic-platform/evm-indexer/internal/store"
)

// idleSleep is how long the engine waits between passes when it finds
// nothing left to fetch, so it doesn't spin hot polling the head.
const idleSleep = 500 * time.Millisecond

// Engine owns one chain's sync loop: a single instance is responsible for
// walking [startBlock, head) to completion and then idling until new
// blocks appear.
type Engine struct {
	chain      chains.Chain
	pool       *rpcpool.Pool
	store      *store.Store
	kv         *kvcache.Client
	logger     *zap.Logger
	startBlock int64
	batchSize  int
	events     *eventbus.Publisher
	readyHook  func()

	indexed *kvcache.IndexedSet
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithBatchSize overrides the default chunk size used for parallel fetch.
func WithBatchSize(n int) Option {
	return func(e *Engine) { e.batchSize = n }
}

// WithEventBus attaches a commit-fanout publisher. Without it, chunk commits
// are silent; this is optional since the notification is a supplement, not
// a correctness requirement.
func WithEventBus(p *eventbus.Publisher) Option {
	return func(e *Engine) { e.events = p }
}

// WithReadyHook registers a callback fired once, after the first pass
// completes (whether or not it found work). A health server uses this to
// flip its readiness probe.
func WithReadyHook(fn func()) Option {
	return func(e *Engine) { e.readyHook = fn }
}

const defaultBatchSize = 200

// New builds an Engine and loads the chain's indexed set from the KV
// cache, reconciling it against the blocks table if the cache came back
// empty.
func New(ctx context.Context, chain chains.Chain, pool *rpcpool.Pool, st *store.Store, kv *kvcache.Client, logger *zap.Logger, startBlock int64, opts ...Option) (*Engine, error) {
	e := &Engine{
		chain:      chain,
		pool:       pool,
		store:      st,
		kv:         kv,
		logger:     logger.With(zap.String("chain", chain.Name)),
		startBlock: startBlock,
		batchSize:  defaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	indexed, err := kv.Load(ctx, chain.Name)
	if err != nil {
		return nil, &ierrors.TransientIO{Msg: "load indexed set", Cause: err}
	}
	if indexed.Len() == 0 {
		e.logger.Info("indexed set empty, reconciling from blocks table")
		indexed, err = store.ReconcileIndexedBlocks(ctx, st, kv, chain.Name)
		if err != nil {
			return nil, &ierrors.TransientIO{Msg: "reconcile indexed set", Cause: err}
		}
	}
	e.indexed = indexed

	return e, nil
}

// Run executes passes until ctx is cancelled. Each pass recomputes the
// current gap against the live head and fetches it chunk by chunk; an
// empty gap sleeps idleSleep before the next pass.
func (e *Engine) Run(ctx context.Context) error {
	firstPass := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		did, err := e.runPass(ctx)
		if firstPass {
			firstPass = false
			if e.readyHook != nil {
				e.readyHook()
			}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			var cfgErr *ierrors.ConfigError
			if errors.As(err, &cfgErr) {
				return err
			}
			e.logger.Warn("sync pass failed", zap.Error(err))
		}
		if !did {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idleSleep):
			}
		}
	}
}

// runPass runs one gap-detect-and-fill cycle, returning whether any work
// was found.
func (e *Engine) runPass(ctx context.Context) (bool, error) {
	head, err := e.pool.GetLastBlock(ctx)
	if err != nil {
		return false, &ierrors.TransientIO{Msg: "get last block", Cause: err}
	}

	if err := e.store.SetIndexedBlocksAmount(ctx, e.chain.Name, int64(e.indexed.Len())); err != nil {
		e.logger.Warn("failed to update indexed blocks counter", zap.Error(err))
	}

	missing := e.missingHeights(head)
	if len(missing) == 0 {
		return false, nil
	}
	e.logger.Info(fmt.Sprintf("Syncing %d blocks", len(missing)))

	for start := 0; start < len(missing); start += e.batchSize {
		end := start + e.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		if err := e.fetchAndCommitChunk(ctx, missing[start:end]); err != nil {
			return true, err
		}
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		default:
		}
	}

	return true, nil
}

// FetchRange re-fetches and re-commits every height in [from, to] regardless
// of whether it is already in the indexed set. The head follower uses this
// to overwrite the reorg tail: a block height already committed with one
// hash is replaced in place when a later fetch returns a different hash for
// the same number, since UpsertBlocks conflicts on (chain, number), not
// block_hash.
func (e *Engine) FetchRange(ctx context.Context, from, to int64) error {
	if to < from {
		return nil
	}
	heights := make([]int64, 0, to-from+1)
	for h := from; h <= to; h++ {
		heights = append(heights, h)
	}
	for start := 0; start < len(heights); start += e.batchSize {
		end := start + e.batchSize
		if end > len(heights) {
			end = len(heights)
		}
		if err := e.fetchAndCommitChunk(ctx, heights[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Chain exposes the engine's chain config to callers that need it without
// threading an extra parameter through, such as the head follower.
func (e *Engine) Chain() chains.Chain { return e.chain }

// Pool exposes the engine's RPC pool so a single pool/Engine pair can be
// shared between the gap-fill loop and the head follower.
func (e *Engine) Pool() *rpcpool.Pool { return e.pool }

// missingHeights returns, in ascending order, every height in
// [startBlock, head) not already present in the indexed set.
func (e *Engine) missingHeights(head int64) []int64 {
	missing := make([]int64, 0)
	for h := e.startBlock; h < head; h++ {
		if !e.indexed.Contains(h) {
			missing = append(missing, h)
		}
	}
	return missing
}
