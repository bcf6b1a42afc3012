package external

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleERC20ABI = `[
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

func TestABIExplorerResponse_VerifiedStatusParses(t *testing.T) {
	body := []byte(`{"status":"1","message":"OK","result":"` + sampleERC20ABI + `"}`)
	var resp abiExplorerResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "1", resp.Status)
}

func TestABIExplorerResponse_UnverifiedSentinel(t *testing.T) {
	body := []byte(`{"status":"0","message":"NOTOK","result":"Contract source code not verified"}`)
	var resp abiExplorerResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, unverifiedResult, resp.Result)
}

func TestParseMethods_DerivesSelectors(t *testing.T) {
	methods, err := parseMethods(sampleERC20ABI)
	require.NoError(t, err)
	assert.Len(t, methods, 2)

	var sawTransfer, sawBalanceOf bool
	for _, m := range methods {
		switch m.Name {
		case "transfer":
			sawTransfer = true
			assert.Equal(t, "0xa9059cbb", m.Method)
		case "balanceOf":
			sawBalanceOf = true
			assert.Equal(t, "0x70a08231", m.Method)
		}
	}
	assert.True(t, sawTransfer)
	assert.True(t, sawBalanceOf)
}
