package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
	"github.com/csic-platform/evm-indexer/internal/kvcache"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
)

type jsonrpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

func sampleRawBlock() map[string]interface{} {
	return map[string]interface{}{
		"hash":       "0xblockhash",
		"number":     "0x64",
		"parentHash": "0xparent",
		"timestamp":  "0x1",
		"miner":      "0xminer",
		"gasUsed":    "0x5208",
		"gasLimit":   "0x5208",
		"transactions": []map[string]interface{}{
			{
				"hash":             "0xtx1",
				"blockHash":        "0xblockhash",
				"blockNumber":      "0x64",
				"from":             "0xfrom",
				"to":               "0xto",
				"value":            "0x0",
				"gas":              "0x5208",
				"gasPrice":         "0x1",
				"nonce":            "0x0",
				"transactionIndex": "0x0",
				"type":             "0x0",
				"input":            "0x",
			},
		},
	}
}

func sampleReceipt() map[string]interface{} {
	return map[string]interface{}{
		"transactionHash":   "0xtx1",
		"contractAddress":   "",
		"cumulativeGasUsed": "0x5208",
		"effectiveGasPrice": "0x1",
		"gasUsed":           "0x5208",
		"status":            "0x1",
		"from":              "0xfrom",
		"logs":              []map[string]interface{}{},
	}
}

// newMockChainServer answers eth_chainId, eth_blockNumber, and the fetch
// methods fetchBlock needs, with either the bulk eth_getBlockReceipts form
// or the per-transaction eth_getTransactionReceipt form depending on
// bulkReceipts.
func newMockChainServer(t *testing.T, chainIDHex string, bulkReceipts bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "eth_chainId":
			result = chainIDHex
		case "eth_blockNumber":
			result = "0x64"
		case "eth_getBlockByNumber":
			result = sampleRawBlock()
		case "eth_getBlockReceipts":
			if bulkReceipts {
				result = []map[string]interface{}{sampleReceipt()}
			} else {
				result = nil
			}
		case "eth_getTransactionReceipt":
			result = sampleReceipt()
		default:
			result = nil
		}

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestFetchBlock_BulkReceiptsPath(t *testing.T) {
	srv := newMockChainServer(t, "0x1", true)
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)
	require.True(t, ethereum.SupportsBlocksReceipts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := rpcpool.New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	fb, err := fetchBlock(ctx, pool, ethereum, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), fb.Height)
	assert.Len(t, fb.Transactions, 1)
	assert.Len(t, fb.Receipts, 1)
}

func TestFetchBlock_PerTransactionReceiptsPath(t *testing.T) {
	srv := newMockChainServer(t, "0xa", false)
	defer srv.Close()

	optimism, err := chains.Get("optimism")
	require.NoError(t, err)
	require.False(t, optimism.SupportsBlocksReceipts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := rpcpool.New(ctx, optimism, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	fb, err := fetchBlock(ctx, pool, optimism, 100)
	require.NoError(t, err)
	assert.Len(t, fb.Receipts, 1)
}

func TestFetchBlock_ReceiptCountMismatchIsDataError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "eth_chainId":
			result = "0x1"
		case "eth_blockNumber":
			result = "0x64"
		case "eth_getBlockByNumber":
			result = sampleRawBlock()
		case "eth_getBlockReceipts":
			result = []map[string]interface{}{} // claims zero receipts for one tx
		default:
			result = nil
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := rpcpool.New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	_, err = fetchBlock(ctx, pool, ethereum, 100)
	require.Error(t, err)
	var dataErr *ierrors.DataError
	require.True(t, errors.As(err, &dataErr))
}

func TestMissingHeights_ExcludesIndexedAndRespectsStart(t *testing.T) {
	indexed := kvcache.NewIndexedSet("ethereum")
	indexed.Add(10)
	indexed.Add(11)

	e := &Engine{startBlock: 9, indexed: indexed}

	missing := e.missingHeights(13)
	assert.Equal(t, []int64{9, 12}, missing)
}
