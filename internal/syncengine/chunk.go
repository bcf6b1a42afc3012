package syncengine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/eventbus"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
)

// fetchAndCommitChunk fetches every height in the chunk concurrently, one
// goroutine per block, then commits everything that succeeded as a single
// bulk write in contracts -> transactions -> receipts -> logs -> blocks ->
// indexed-set order. Heights that fail to fetch or fail their count checks
// are logged and dropped from this chunk; they stay out of the indexed set
// and are retried on the next pass.
func (e *Engine) fetchAndCommitChunk(ctx context.Context, heights []int64) error {
	results := make([]*fetchedBlock, len(heights))

	var wg sync.WaitGroup
	for i, height := range heights {
		wg.Add(1)
		go func(i int, height int64) {
			defer wg.Done()
			fb, err := fetchBlock(ctx, e.pool, e.chain, height)
			if err != nil {
				e.logger.Warn("dropping height from chunk", zap.Int64("height", height), zap.Error(err))
				return
			}
			results[i] = fb
		}(i, height)
	}
	wg.Wait()

	var contracts []domain.Contract
	var txs []domain.Transaction
	var receipts []domain.Receipt
	var logs []domain.Log
	var blocks []domain.Block
	committed := make([]int64, 0, len(heights))

	for _, fb := range results {
		if fb == nil {
			continue
		}
		contracts = append(contracts, fb.Contracts...)
		txs = append(txs, fb.Transactions...)
		receipts = append(receipts, fb.Receipts...)
		logs = append(logs, fb.Logs...)
		blocks = append(blocks, fb.Block)
		committed = append(committed, fb.Height)
	}

	if len(blocks) == 0 {
		return nil
	}

	if err := e.store.UpsertContracts(ctx, contracts); err != nil {
		ierrors.Panic("upsert contracts", err)
	}
	if err := e.store.UpsertTransactions(ctx, txs); err != nil {
		ierrors.Panic("upsert transactions", err)
	}
	if err := e.store.UpsertReceipts(ctx, receipts); err != nil {
		ierrors.Panic("upsert receipts", err)
	}
	if err := e.store.UpsertLogs(ctx, logs); err != nil {
		ierrors.Panic("upsert logs", err)
	}
	if err := e.store.UpsertBlocks(ctx, blocks); err != nil {
		ierrors.Panic("upsert blocks", err)
	}

	for _, h := range committed {
		e.indexed.Add(h)
	}
	if err := e.kv.Save(ctx, e.indexed); err != nil {
		return &ierrors.TransientIO{Msg: "save indexed set", Cause: err}
	}
	e.logger.Info(fmt.Sprintf("Inserted: blocks (%d) transactions (%d) receipts (%d) logs (%d) contracts (%d) for chain %s",
		len(blocks), len(txs), len(receipts), len(logs), len(contracts), e.chain.Name))

	if e.events != nil {
		from, to := committed[0], committed[0]
		for _, h := range committed {
			if h < from {
				from = h
			}
			if h > to {
				to = h
			}
		}
		e.events.PublishChunkCommitted(ctx, eventbus.ChunkCommitted{
			Chain:        e.chain.Name,
			FromHeight:   from,
			ToHeight:     to,
			Blocks:       len(blocks),
			Transactions: len(txs),
			Logs:         len(logs),
		})
	}

	return nil
}
