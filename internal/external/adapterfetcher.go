package external

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/csic-platform/evm-indexer/internal/store"
)

const adapterFetchSleep = 1 * time.Hour

// adapterEntry is one row of the remote adapter directory's JSON array.
type adapterEntry struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// AdapterFetcher polls a remote JSON directory of known protocol adapter
// contracts and idempotently upserts them, keyed by (address, chain).
type AdapterFetcher struct {
	chain      string
	endpoint   string
	store      *store.Store
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAdapterFetcher builds an AdapterFetcher. endpoint is the chain-specific
// adapter directory URL.
func NewAdapterFetcher(chain, endpoint string, st *store.Store, logger *zap.Logger) *AdapterFetcher {
	return &AdapterFetcher{
		chain:      chain,
		endpoint:   endpoint,
		store:      st,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With(zap.String("chain", chain)),
	}
}

// Run polls until ctx is cancelled. The directory changes rarely, so the
// sleep between polls is long relative to the other worker loops.
func (f *AdapterFetcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.runBatch(ctx); err != nil {
			f.logger.Warn("adapter fetch failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(adapterFetchSleep):
		}
	}
}

func (f *AdapterFetcher) runBatch(ctx context.Context) error {
	entries, err := f.fetch(ctx)
	if err != nil {
		return err
	}

	records := make([]store.AdapterRecord, len(entries))
	for i, e := range entries {
		records[i] = store.AdapterRecord{AdapterID: e.ID, Chain: f.chain, Address: e.Address}
	}
	return f.store.UpsertAdapterRecords(ctx, records)
}

func (f *AdapterFetcher) fetch(ctx context.Context) ([]adapterEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}

	var entries []adapterEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
