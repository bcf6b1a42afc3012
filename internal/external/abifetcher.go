// Package external holds the two outer HTTP poll loops that enrich
// persisted data from third-party sources: the block-explorer ABI fetcher
// and the LlamaFolio-style adapter fetcher.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/store"
)

const (
	abiFetchBatchSize = 50
	abiFetchSleep     = 3 * time.Second
	unverifiedResult  = "Contract source code not verified"
)

// abiExplorerResponse mirrors the block-explorer ABI endpoint's JSON shape
// (Etherscan and its per-chain forks all share it).
type abiExplorerResponse struct {
	Status  string `json:"status"`
	Result  string `json:"result"`
}

// ABIFetcher polls unparsed contracts and resolves their ABI from the
// chain's configured block-explorer API.
type ABIFetcher struct {
	chain      chains.Chain
	store      *store.Store
	httpClient *http.Client
	apiToken   string
	logger     *zap.Logger
}

// NewABIFetcher builds an ABIFetcher for chain. apiToken is the per-chain
// explorer API key; it is appended as &apikey= only when the chain's
// registry entry marks authentication required.
func NewABIFetcher(chain chains.Chain, st *store.Store, apiToken string, logger *zap.Logger) *ABIFetcher {
	return &ABIFetcher{
		chain:      chain,
		store:      st,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiToken:   apiToken,
		logger:     logger.With(zap.String("chain", chain.Name)),
	}
}

// Run polls until ctx is cancelled, per the {fetch batch; parse; commit;
// sleep} worker-loop shape shared by the extractor's workers.
func (f *ABIFetcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.runBatch(ctx); err != nil {
			f.logger.Warn("abi fetch batch failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(abiFetchSleep):
		}
	}
}

func (f *ABIFetcher) runBatch(ctx context.Context) error {
	contracts, err := f.store.UnparsedContracts(ctx, f.chain.Name, abiFetchBatchSize)
	if err != nil {
		return err
	}

	for _, c := range contracts {
		if err := f.resolve(ctx, c); err != nil {
			f.logger.Warn("abi resolve failed", zap.String("contract", c.Contract), zap.Error(err))
		}
	}
	return nil
}

// resolve fetches one contract's ABI and applies the design's three-way
// outcome: verified source stores the ABI and marks parsed+verified,
// confirmed-unverified marks parsed only, anything else (rate limit,
// transient error, unrecognized response) leaves the contract untouched
// for the next pass.
func (f *ABIFetcher) resolve(ctx context.Context, c domain.Contract) error {
	body, err := f.fetch(ctx, c.Contract)
	if err != nil {
		return &ierrors.TransientIO{Msg: "abi fetch", Cause: err}
	}

	var resp abiExplorerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &ierrors.TransientIO{Msg: "abi response decode", Cause: err}
	}

	switch {
	case resp.Status == "1":
		return f.storeVerified(ctx, c, resp.Result)
	case resp.Result == unverifiedResult:
		return f.store.MarkContractParsed(ctx, c.Hash, false)
	default:
		return nil
	}
}

func (f *ABIFetcher) fetch(ctx context.Context, address string) ([]byte, error) {
	endpoint := strings.TrimRight(f.chain.ABISourceAPIBase, "/") + "/api"
	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "getabi")
	q.Set("address", address)
	if f.chain.ABISourceRequireAuth && f.apiToken != "" {
		q.Set("apikey", f.apiToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// storeVerified persists the ABI (the name column is left null), marks the
// contract parsed and
// verified, and inserts one Method row per function entry in the ABI,
// keyed by its 4-byte selector.
func (f *ABIFetcher) storeVerified(ctx context.Context, c domain.Contract, rawABI string) error {
	if err := f.store.UpsertContractInformation(ctx, domain.ContractInformation{
		Chain:    f.chain.Name,
		Contract: c.Contract,
		ABI:      &rawABI,
		Verified: true,
	}); err != nil {
		return err
	}

	if err := f.storeMethods(ctx, rawABI); err != nil {
		f.logger.Warn("method table population failed", zap.Error(err))
	}

	return f.store.MarkContractParsed(ctx, c.Hash, true)
}

func (f *ABIFetcher) storeMethods(ctx context.Context, rawABI string) error {
	methods, err := parseMethods(rawABI)
	if err != nil {
		return err
	}
	if len(methods) == 0 {
		return nil
	}
	return f.store.UpsertMethods(ctx, methods)
}

// parseMethods decodes a contract ABI and returns one Method row per
// function entry, keyed by its 4-byte selector.
func parseMethods(rawABI string) ([]domain.Method, error) {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		return nil, fmt.Errorf("external: parse abi: %w", err)
	}

	methods := make([]domain.Method, 0, len(parsed.Methods))
	for _, m := range parsed.Methods {
		methods = append(methods, domain.Method{
			Method: "0x" + fmt.Sprintf("%x", m.ID),
			Name:   m.Name,
		})
	}
	return methods, nil
}
