package extractor

import (
	"context"
	"time"

	"github.com/csic-platform/evm-indexer/internal/codec"
	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/store"
)

const erc20TransferBatchSize = 500
const erc20TransferSleep = 2 * time.Second

// erc20TransferDecoder applies the ERC-20 Transfer decoder to a batch of
// not-yet-parsed logs, deriving ERC20Transfer rows and marking every input
// log parsed whether or not it decoded into one.
type erc20TransferDecoder struct {
	chain string
	store *store.Store
}

func (w *erc20TransferDecoder) name() string               { return "erc20-transfer-decoder" }
func (w *erc20TransferDecoder) sleepInterval() time.Duration { return erc20TransferSleep }

func (w *erc20TransferDecoder) runBatch(ctx context.Context) error {
	logs, err := w.store.UnparsedERC20Logs(ctx, w.chain, erc20TransferBatchSize)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return nil
	}

	var transfers []domain.ERC20Transfer
	keys := make([][2]any, 0, len(logs))
	for _, l := range logs {
		if t, ok := codec.DecodeERC20Transfer(w.chain, l); ok {
			transfers = append(transfers, t)
		}
		keys = append(keys, [2]any{l.Hash, l.LogIndex})
	}

	if len(transfers) > 0 {
		if err := w.store.UpsertERC20Transfers(ctx, transfers); err != nil {
			return err
		}
	}
	return w.store.MarkERC20TransfersParsed(ctx, keys)
}
