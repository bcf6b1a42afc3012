package store

import (
	"context"

	"github.com/csic-platform/evm-indexer/internal/kvcache"
)

// ReconcileIndexedBlocks rebuilds chain's IndexedBlockSet from the
// authoritative blocks table and writes it back to the KV cache,
// overwriting whatever shards were there before. This is the repair
// operation the design requires: the KV-backed set is an optimization,
// the blocks table is the source of truth.
func ReconcileIndexedBlocks(ctx context.Context, s *Store, kv *kvcache.Client, chain string) (*kvcache.IndexedSet, error) {
	heights, err := s.BlockHeights(ctx, chain)
	if err != nil {
		return nil, err
	}
	set := kvcache.FromHeights(chain, heights)
	if err := kv.Save(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}
