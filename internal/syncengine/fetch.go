package syncengine

import (
	"context"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/codec"
	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
)

// fetchedBlock is the full tuple fetch_block assembles for one height
// before it is handed to the chunk committer.
type fetchedBlock struct {
	Height       int64
	Block        domain.Block
	Transactions []domain.Transaction
	Receipts     []domain.Receipt
	Logs         []domain.Log
	Contracts    []domain.Contract
}

// fetchBlock implements the per-height fetch steps: get the block, get
// receipts (bulk or per-tx depending on the chain's capability), verify the
// receipt count, normalize everything into the internal data model, and
// verify the transaction count against the block's count. A TransientIO or DataError here means this
// height is abandoned for the pass and retried next time — it is never
// propagated past the caller's per-block goroutine.
func fetchBlock(ctx context.Context, pool *rpcpool.Pool, chain chains.Chain, height int64) (*fetchedBlock, error) {
	raw, err := pool.GetBlock(ctx, height)
	if err != nil {
		return nil, err
	}

	rawReceipts, err := fetchReceipts(ctx, pool, chain, height, raw)
	if err != nil {
		return nil, err
	}
	if len(rawReceipts) != len(raw.Transactions) {
		return nil, &ierrors.DataError{Msg: "receipt count mismatch", Height: height}
	}

	block := codec.NormalizeBlock(chain.Name, raw)

	txs := make([]domain.Transaction, 0, len(raw.Transactions))
	for _, rawTx := range raw.Transactions {
		txs = append(txs, codec.NormalizeTransaction(chain.Name, rawTx, block.Timestamp))
	}
	if int64(len(txs)) != block.Transactions {
		return nil, &ierrors.DataError{Msg: "transaction count mismatch", Height: height}
	}

	receipts := make([]domain.Receipt, 0, len(rawReceipts))
	logs := make([]domain.Log, 0)
	contracts := make([]domain.Contract, 0)
	for i, rawReceipt := range rawReceipts {
		receipts = append(receipts, codec.NormalizeReceipt(rawReceipt))
		for _, rawLog := range rawReceipt.Logs {
			logs = append(logs, codec.NormalizeLog(chain.Name, rawLog))
		}
		if contract, ok := codec.NormalizeContractFromReceipt(chain.Name, rawReceipt, height, raw.Transactions[i].From); ok {
			contracts = append(contracts, contract)
		}
	}

	return &fetchedBlock{
		Height:       height,
		Block:        block,
		Transactions: txs,
		Receipts:     receipts,
		Logs:         logs,
		Contracts:    contracts,
	}, nil
}

// fetchReceipts takes the bulk eth_getBlockReceipts path when the chain
// supports it, otherwise falls back to one eth_getTransactionReceipt call
// per transaction, issued in transaction order.
func fetchReceipts(ctx context.Context, pool *rpcpool.Pool, chain chains.Chain, height int64, raw codec.RawBlock) ([]codec.RawReceipt, error) {
	if chain.SupportsBlocksReceipts {
		return pool.GetBlockReceipts(ctx, height)
	}

	receipts := make([]codec.RawReceipt, 0, len(raw.Transactions))
	for _, tx := range raw.Transactions {
		receipt, err := pool.GetTransactionReceipt(ctx, tx.Hash)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}
