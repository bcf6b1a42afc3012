package extractor

import (
	"context"
	"time"

	"github.com/csic-platform/evm-indexer/internal/codec"
	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/store"
)

const nftTransferBatchSize = 500
const nftTransferSleep = 2 * time.Second

// nftTransferDecoder is erc20TransferDecoder's NFT counterpart: it tries
// all three event shapes per log (ERC-721, ERC-1155 single, ERC-1155
// batch), since topic0 alone distinguishes which one applies.
type nftTransferDecoder struct {
	chain string
	store *store.Store
}

func (w *nftTransferDecoder) name() string               { return "nft-transfer-decoder" }
func (w *nftTransferDecoder) sleepInterval() time.Duration { return nftTransferSleep }

func (w *nftTransferDecoder) runBatch(ctx context.Context) error {
	logs, err := w.store.UnparsedNFTLogs(ctx, w.chain, nftTransferBatchSize)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return nil
	}

	var transfers []domain.NFTTransfer
	keys := make([][2]any, 0, len(logs))
	for _, l := range logs {
		if t, ok := codec.DecodeERC721Transfer(w.chain, l); ok {
			transfers = append(transfers, t)
		} else if t, ok := codec.DecodeERC1155TransferSingle(w.chain, l); ok {
			transfers = append(transfers, t)
		} else if batch, ok := codec.DecodeERC1155TransferBatch(w.chain, l); ok {
			transfers = append(transfers, batch...)
		}
		keys = append(keys, [2]any{l.Hash, l.LogIndex})
	}

	if len(transfers) > 0 {
		if err := w.store.UpsertNFTTransfers(ctx, transfers); err != nil {
			return err
		}
	}
	return w.store.MarkNFTTransfersParsed(ctx, keys)
}
