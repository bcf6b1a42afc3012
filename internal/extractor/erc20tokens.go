package extractor

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
	"github.com/csic-platform/evm-indexer/internal/store"
)

const erc20TokenBatchSize = 5000
const erc20TokenSleep = 5 * time.Second

// Selectors for the three no-argument ERC-20 metadata getters.
const (
	selectorName     = "0x06fdde03"
	selectorSymbol   = "0x95d89b41"
	selectorDecimals = "0x313ce567"
)

var stringReturnType, _ = abi.NewType("string", "", nil)
var uint8ReturnType, _ = abi.NewType("uint8", "", nil)

var stringReturnArgs = abi.Arguments{{Type: stringReturnType}}
var uint8ReturnArgs = abi.Arguments{{Type: uint8ReturnType}}

// erc20TokenMetadata resolves name/symbol/decimals for every token touched
// by a batch of unparsed transfers, one eth_call trio per unique
// (token, chain), tolerating individual call failures as a null field
// rather than failing the whole token.
type erc20TokenMetadata struct {
	chain string
	store *store.Store
	pool  *rpcpool.Pool
}

func (w *erc20TokenMetadata) name() string               { return "erc20-token-metadata" }
func (w *erc20TokenMetadata) sleepInterval() time.Duration { return erc20TokenSleep }

func (w *erc20TokenMetadata) runBatch(ctx context.Context) error {
	transfers, err := w.store.UnparsedERC20TransfersForTokens(ctx, w.chain, erc20TokenBatchSize)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		return nil
	}

	uniqueTokens := make(map[string]struct{})
	for _, t := range transfers {
		uniqueTokens[t.Token] = struct{}{}
	}

	tokens := make([]domain.ERC20Token, 0, len(uniqueTokens))
	for token := range uniqueTokens {
		tokens = append(tokens, w.fetchMetadata(ctx, token))
	}
	if err := w.store.UpsertERC20Tokens(ctx, tokens); err != nil {
		return err
	}

	keys := make([][2]any, 0, len(transfers))
	for _, t := range transfers {
		keys = append(keys, [2]any{t.Hash, t.LogIndex})
	}
	return w.store.MarkERC20TokensParsed(ctx, keys)
}

// fetchMetadata issues name(), symbol(), and decimals() concurrently
// against the token contract; a failed or undecodable call leaves that
// field null instead of failing the token.
func (w *erc20TokenMetadata) fetchMetadata(ctx context.Context, token string) domain.ERC20Token {
	out := domain.ERC20Token{Address: token, Chain: w.chain}

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
		if d, ok := w.callDecimals(ctx, token); ok {
			out.Decimals = &d
		}
	}()

	wg.Wait()
	return out
}

// callString issues an eth_call against a no-argument string-returning
// selector, tolerating any failure to unpack as a missing field. Shared by
// every metadata worker that resolves name()/symbol()-shaped getters.
func callString(ctx context.Context, pool *rpcpool.Pool, token, selector string) (string, bool) {
	result, err := pool.CallContract(ctx, token, selector)
	if err != nil || result == "" || result == "0x" {
		return "", false
	}
	values, err := stringReturnArgs.Unpack(common.FromHex(result))
	if err != nil || len(values) != 1 {
		return "", false
	}
	s, ok := values[0].(string)
	if !ok {
		return "", false
	}
	return s, true
}

func (w *erc20TokenMetadata) callDecimals(ctx context.Context, token string) (int64, bool) {
	result, err := w.pool.CallContract(ctx, token, selectorDecimals)
	if err != nil || result == "" || result == "0x" {
		return 0, false
	}
	values, err := uint8ReturnArgs.Unpack(common.FromHex(result))
	if err != nil || len(values) != 1 {
		return 0, false
	}
	d, ok := values[0].(uint8)
	if !ok {
		return 0, false
	}
	return int64(d), true
}
