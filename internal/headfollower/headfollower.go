// Package headfollower subscribes to a chain's newHeads feed and re-fetches
// the tail of recently committed blocks on every new head, absorbing short
// reorgs without waiting for the next gap-fill pass to notice a hash
// mismatch (which it never would, since the gap-fill pass only looks at
// height, not hash).
package headfollower

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
	"github.com/csic-platform/evm-indexer/internal/syncengine"
)

// resubscribeBackoff is how long Follower waits before re-subscribing after
// the newHeads subscription ends or errors out.
const resubscribeBackoff = 5 * time.Second

// Follower re-fetches [H-blocksReorg, H] on every head it observes.
type Follower struct {
	engine *syncengine.Engine
	logger *zap.Logger
}

// New builds a Follower for engine. engine's pool must have a websocket
// peer; Run returns a ConfigError immediately if it doesn't.
func New(engine *syncengine.Engine, logger *zap.Logger) *Follower {
	return &Follower{engine: engine, logger: logger.With(zap.String("chain", engine.Chain().Name))}
}

// Run subscribes to newHeads and processes heads until ctx is cancelled or
// the pool has no websocket peer. A dropped subscription is retried after
// resubscribeBackoff; this is the only case Run loops on its own — a
// ConfigError (no websocket peer) is returned immediately since retrying
// cannot fix it.
func (f *Follower) Run(ctx context.Context) error {
	if !f.engine.Pool().HasWebsocketPeer() {
		return &ierrors.ConfigError{Msg: "head follower requires a websocket peer"}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := f.followOnce(ctx); err != nil {
			f.logger.Warn("newHeads subscription ended", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resubscribeBackoff):
		}
	}
}

// followOnce subscribes once and processes heads until the subscription
// ends, the context is cancelled, or a subscription error arrives.
func (f *Follower) followOnce(ctx context.Context) error {
	heads, sub, err := f.engine.Pool().SubscribeNewHeads(ctx)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case head, ok := <-heads:
			if !ok {
				return nil
			}
			f.handleHead(ctx, head)
		}
	}
}

// handleHead re-fetches the reorg tail ending at head. Fetch/commit errors
// are logged and swallowed: the tail gets another chance on the next head,
// and the gap-fill pass already guarantees eventual coverage of the height
// itself even if every tail re-fetch for it fails.
func (f *Follower) handleHead(ctx context.Context, head rpcpool.RawHead) {
	heightU64, err := hexutil.DecodeUint64(head.Number)
	if err != nil {
		f.logger.Warn("could not decode newHeads payload", zap.String("number", head.Number), zap.Error(err))
		return
	}
	height := int64(heightU64)

	from := height - f.engine.Chain().BlocksReorg
	if from < 0 {
		from = 0
	}

	if err := f.engine.FetchRange(ctx, from, height); err != nil {
		f.logger.Warn("reorg tail re-fetch failed", zap.Int64("head", height), zap.Error(err))
	}
}
