package extractor

import (
	"context"
	"sync"
	"time"

	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
	"github.com/csic-platform/evm-indexer/internal/store"
)

const nftTokenBatchSize = 5000
const nftTokenSleep = 5 * time.Second

// contractURI() is the ERC721/ERC1155 collection-level metadata getter; it
// takes no arguments and returns a string, same shape as name()/symbol().
const selectorContractURI = "0xe8a3d485"

// nftTokenMetadata resolves collection name/symbol/contractURI for every
// token contract touched by a batch of unparsed NFT transfers, one eth_call
// trio per unique token, tolerating individual call
// failures as a null field rather than failing the whole token.
type nftTokenMetadata struct {
	chain string
	store *store.Store
	pool  *rpcpool.Pool
}

func (w *nftTokenMetadata) name() string                { return "nft-token-metadata" }
func (w *nftTokenMetadata) sleepInterval() time.Duration { return nftTokenSleep }

func (w *nftTokenMetadata) runBatch(ctx context.Context) error {
	transfers, err := w.store.UnparsedNFTTransfersForTokens(ctx, w.chain, nftTokenBatchSize)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		return nil
	}

	uniqueTokens := make(map[string]domain.NFTTransferType)
	for _, t := range transfers {
		if _, seen := uniqueTokens[t.Token]; !seen {
			uniqueTokens[t.Token] = t.TransferType
		}
	}

	tokens := make([]domain.NFTToken, 0, len(uniqueTokens))
	for token, transferType := range uniqueTokens {
		tokens = append(tokens, w.fetchMetadata(ctx, token, transferType))
	}
	if err := w.store.UpsertNFTTokens(ctx, tokens); err != nil {
		return err
	}

	keys := make([][3]any, 0, len(transfers))
	for _, t := range transfers {
		keys = append(keys, [3]any{t.Hash, t.LogIndex, t.TransferIndex})
	}
	return w.store.MarkNFTTokensParsed(ctx, keys)
}

// fetchMetadata issues name(), symbol(), and contractURI() concurrently
// against the token contract; a failed or undecodable call leaves that
// field null instead of failing the token. nftType is derived from the
// transfer event shape rather than an on-chain call, since neither ERC721
// nor ERC1155 exposes a standard interface-kind getter.
func (w *nftTokenMetadata) fetchMetadata(ctx context.Context, token string, transferType domain.NFTTransferType) domain.NFTToken {
	out := domain.NFTToken{Address: token, Chain: w.chain, NFTType: nftTypeFor(transferType)}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if s, ok := callString(ctx, w.pool, token, selectorName); ok {
			out.Name = &s
		}
	}()
	go func() {
		defer wg.Done()
		if s, ok := callString(ctx, w.pool, token, selectorSymbol); ok {
			out.Symbol = &s
		}
	}()
	go func() {
		defer wg.Done()
		if s, ok := callString(ctx, w.pool, token, selectorContractURI); ok {
			out.ContractURI = &s
		}
	}()

	wg.Wait()
	return out
}

// nftTypeFor collapses the three transfer event shapes into the two
// standards they originate from: ERC1155TransferSingle and
// ERC1155TransferBatch are both emitted by ERC-1155 contracts.
func nftTypeFor(t domain.NFTTransferType) string {
	if t == domain.NFTTransferERC721 {
		return "ERC721"
	}
	return "ERC1155"
}
