package extractor

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
	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/rpcpool"
)

func newMockNFTCallServer(t *testing.T, nameHex, symbolHex, contractURIHex string) *httptest.Server {
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
			case selectorContractURI:
				result = contractURIHex
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

func TestNFTFetchMetadata_HappyPath(t *testing.T) {
	srv := newMockNFTCallServer(t,
		encodeString(t, "Bored Ape Yacht Club"),
		encodeString(t, "BAYC"),
		encodeString(t, "ipfs://bayc/"),
	)
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := rpcpool.New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	w := &nftTokenMetadata{chain: "ethereum", pool: pool}
	token := w.fetchMetadata(ctx, "0xtoken", domain.NFTTransferERC721)

	require.NotNil(t, token.Name)
	require.NotNil(t, token.Symbol)
	require.NotNil(t, token.ContractURI)
	assert.Equal(t, "Bored Ape Yacht Club", *token.Name)
	assert.Equal(t, "BAYC", *token.Symbol)
	assert.Equal(t, "ipfs://bayc/", *token.ContractURI)
	assert.Equal(t, "ERC721", token.NFTType)
}

func TestNFTFetchMetadata_FailedCallLeavesFieldNull(t *testing.T) {
	srv := newMockNFTCallServer(t, "0x", encodeString(t, "BAYC"), "0x")
	defer srv.Close()

	ethereum, err := chains.Get("ethereum")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := rpcpool.New(ctx, ethereum, []string{srv.URL}, "")
	require.NoError(t, err)
	defer pool.Close()

	w := &nftTokenMetadata{chain: "ethereum", pool: pool}
	token := w.fetchMetadata(ctx, "0xtoken", domain.NFTTransferERC1155Single)

	assert.Nil(t, token.Name)
	assert.Nil(t, token.ContractURI)
	require.NotNil(t, token.Symbol)
	assert.Equal(t, "BAYC", *token.Symbol)
	assert.Equal(t, "ERC1155", token.NFTType)
}

func TestNftTypeFor(t *testing.T) {
	assert.Equal(t, "ERC721", nftTypeFor(domain.NFTTransferERC721))
	assert.Equal(t, "ERC1155", nftTypeFor(domain.NFTTransferERC1155Single))
	assert.Equal(t, "ERC1155", nftTypeFor(domain.NFTTransferERC1155Batch))
}
