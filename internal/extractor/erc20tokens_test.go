package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
)

type jsonrpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

func encodeString(t *testing.T, s string) string {
	t.Helper()
	packed, err := stringReturnArgs.Pack(s)
	require.NoError(t, err)
	return "0x" + common.Bytes2Hex(packed)
}

func encodeUint8(t *testing.T, n uint8) string {
	t.Helper()
	packed, err := uint8ReturnArgs.Pack(n)
	require.NoError(t, err)
	return "0x" + common.Bytes2Hex(packed)
}

func newMockCallServer(t *testing.T, nameHex, symbolHex, decimalsHex string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "eth_chainId":
			result = "0x1"
		case "eth_blockNumber":
			result = "0x1"
		case "eth_call":
			var callArgs map[string]string
			require.NoError(t, json.Unmarshal(req.Params[0], &callArgs))
			switch callArgs["data"] {
			case selectorName:
				result = nameHex
			case selectorSymbol:
				result = symbolHex
			case selectorDecimals:
				result = decimalsHex
			default:
				result = "0x"
			}
		default:
			result = nil
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestFetchMetadata_HappyPath(t *testing.T) {
	srv := newMockCallServer(t, encodeString(t, "Wrapped Ether"), encodeString(t, "WETH"), encodeUint8(t, 18))
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := rpcpool.New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	w := &erc20TokenMetadata{chain: "ethereum", pool: pool}
	token := w.fetchMetadata(ctx, "0xtoken")

	require.NotNil(t, token.Name)
	require.NotNil(t, token.Symbol)
	require.NotNil(t, token.Decimals)
	assert.Equal(t, "Wrapped Ether", *token.Name)
	assert.Equal(t, "WETH", *token.Symbol)
	assert.Equal(t, int64(18), *token.Decimals)
}

func TestFetchMetadata_FailedCallLeavesFieldNull(t *testing.T) {
	srv := newMockCallServer(t, "0x", encodeString(t, "WETH"), encodeUint8(t, 18))
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := rpcpool.New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	w := &erc20TokenMetadata{chain: "ethereum", pool: pool}
	token := w.fetchMetadata(ctx, "0xtoken")

	assert.Nil(t, token.Name)
	require.NotNil(t, token.Symbol)
	assert.Equal(t, "WETH", *token.Symbol)
}

