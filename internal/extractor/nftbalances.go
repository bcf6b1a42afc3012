package extractor

import (
	"context"
	"math/big"
	"time"

	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/store"
	"github.com/csic-platform/evm-indexer/internal/u256"
)

const nftBalanceBatchSize = 5000
const nftBalanceSleep = 2 * time.Second

// nftBalanceAccumulator tracks one signed balance per (address, token,
// chain, token_id). Unlike the ERC-20 twin-counter model, a single signed
// value is adjusted directly; it is allowed to go transiently negative
// when transfers are ingested out of order.
type nftBalanceAccumulator struct {
	chain string
	store *store.Store
}

func (w *nftBalanceAccumulator) name() string               { return "nft-balance-accumulator" }
func (w *nftBalanceAccumulator) sleepInterval() time.Duration { return nftBalanceSleep }

func (w *nftBalanceAccumulator) runBatch(ctx context.Context) error {
	transfers, err := w.store.UnappliedNFTTransfers(ctx, w.chain, nftBalanceBatchSize)
	if err != nil {
		return err
	}

	keys := make([][3]any, 0, len(transfers))
	for _, t := range transfers {
		if err := w.applyTransfer(ctx, t); err != nil {
			return err
		}
		keys = append(keys, [3]any{t.Hash, t.LogIndex, t.TransferIndex})
	}
	if len(keys) == 0 {
		return nil
	}
	return w.store.MarkNFTBalancesApplied(ctx, keys)
}

func (w *nftBalanceAccumulator) applyTransfer(ctx context.Context, t domain.NFTTransfer) error {
	delta := u256.ToBigInt(t.Value)

	if t.FromAddress != domain.ZeroAddress {
		if err := w.adjustBalance(ctx, t.FromAddress, t.Token, t.TokenID, new(big.Int).Neg(delta)); err != nil {
			return err
		}
	}
	if t.ToAddress != domain.ZeroAddress {
		if err := w.adjustBalance(ctx, t.ToAddress, t.Token, t.TokenID, delta); err != nil {
			return err
		}
	}
	return nil
}

func (w *nftBalanceAccumulator) adjustBalance(ctx context.Context, address, token, tokenID string, delta *big.Int) error {
	bal, err := w.store.NFTBalance(ctx, address, token, w.chain, tokenID)
	if err != nil {
		return err
	}
	bal.Balance = u256.SignedAdd(bal.Balance, delta)
	return w.store.UpsertNFTBalance(ctx, bal)
}
