package rpcpool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csic-platform/evm-indexer/internal/chains"
)

type jsonrpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

// newMockRPCServer returns an httptest server answering eth_chainId with
// chainIDHex and eth_blockNumber with a fixed height, used to exercise pool
// construction validation without a real node.
func newMockRPCServer(t *testing.T, chainIDHex string) *httptest.Server {
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
			result = map[string]interface{}{
				"hash":   "0xblock",
				"number": "0x64",
			}
		default:
			result = nil
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestNew_AllPeersValidChainID(t *testing.T) {
	srv1 := newMockRPCServer(t, "0x1")
	defer srv1.Close()
	srv2 := newMockRPCServer(t, "0x1")
	defer srv2.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := New(ctx, ethereum, []string{srv1.URL, srv2.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, 2, pool.PeerCount())
	assert.False(t, pool.HasWebsocketPeer())
}

func TestNew_MismatchedChainIDPeerDropped(t *testing.T) {
	good := newMockRPCServer(t, "0x1")
	defer good.Close()
	bad := newMockRPCServer(t, "0x89") // 137 (polygon), config expects ethereum (1)
	defer bad.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := New(ctx, ethereum, []string{good.URL, bad.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, 1, pool.PeerCount())
}

func TestNew_AllPeersRejectedFailsConfig(t *testing.T) {
	bad := newMockRPCServer(t, "0x89")
	defer bad.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = New(ctx, ethereum, []string{bad.URL}, "")
	require.Error(t, err)
}

func TestGetLastBlock(t *testing.T) {
	srv := newMockRPCServer(t, "0x1")
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	height, err := pool.GetLastBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), height)
}

func TestGetBlock(t *testing.T) {
	srv := newMockRPCServer(t, "0x1")
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	block, err := pool.GetBlock(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "0xblock", block.Hash)
}
