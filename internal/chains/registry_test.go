package chains

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownChain(t *testing.T) {
	c, err := Get("ethereum")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.True(t, c.SupportsBlocksReceipts)
}

func TestGet_MainnetAlias(t *testing.T) {
	c, err := Get("mainnet")
	require.NoError(t, err)
	assert.Equal(t, "ethereum", c.Name)
	assert.Equal(t, int64(1), c.ID)
}

func TestGet_UnknownChainFailsLoudly(t *testing.T) {
	_, err := Get("not-a-real-chain")
	require.Error(t, err)

	var unknown *ErrUnknownChain
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "not-a-real-chain", unknown.Name)
}

func TestMustGet_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nope")
	})
}

func TestNames_ContainsRegisteredChains(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "ethereum")
	assert.Contains(t, names, "polygon")
}
