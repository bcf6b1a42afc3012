package extractor

import (
	"context"
	"time"

	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/store"
	"github.com/csic-platform/evm-indexer/internal/u256"
)

const erc20BalanceBatchSize = 5000
const erc20BalanceSleep = 2 * time.Second

// erc20BalanceAccumulator maintains the sent/received twin counters per
// (address, token, chain). Per transfer it upserts the touched balance
// row(s) before marking the transfer balance-applied, so a crash between
// the two replays the transfer into an already-updated balance at most
// once rather than losing the update.
type erc20BalanceAccumulator struct {
	chain string
	store *store.Store
}

func (w *erc20BalanceAccumulator) name() string               { return "erc20-balance-accumulator" }
func (w *erc20BalanceAccumulator) sleepInterval() time.Duration { return erc20BalanceSleep }

func (w *erc20BalanceAccumulator) runBatch(ctx context.Context) error {
	transfers, err := w.store.UnparsedERC20TransfersForBalances(ctx, w.chain, erc20BalanceBatchSize)
	if err != nil {
		return err
	}

	keys := make([][2]any, 0, len(transfers))
	for _, t := range transfers {
		if err := w.applyTransfer(ctx, t); err != nil {
			return err
		}
		keys = append(keys, [2]any{t.Hash, t.LogIndex})
	}
	if len(keys) == 0 {
		return nil
	}
	return w.store.MarkERC20BalancesParsed(ctx, keys)
}

func (w *erc20BalanceAccumulator) applyTransfer(ctx context.Context, t domain.ERC20Transfer) error {
	if t.FromAddress != domain.ZeroAddress {
		if err := w.addToBalance(ctx, t.FromAddress, t.Token, "sent", t.Value); err != nil {
			return err
		}
	}
	if t.ToAddress != domain.ZeroAddress {
		if err := w.addToBalance(ctx, t.ToAddress, t.Token, "received", t.Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *erc20BalanceAccumulator) addToBalance(ctx context.Context, address, token, side, value string) error {
	bal, err := w.store.ERC20Balance(ctx, address, token, w.chain)
	if err != nil {
		return err
	}
	if side == "sent" {
		bal.Sent = u256.Add(bal.Sent, value)
	} else {
		bal.Received = u256.Add(bal.Received, value)
	}
	return w.store.UpsertERC20Balance(ctx, bal)
}
