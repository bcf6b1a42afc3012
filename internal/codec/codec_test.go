package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBlock_HappyPath(t *testing.T) {
	raw := RawBlock{
		Hash:         "0xABC123",
		Number:       "0x10",
		ParentHash:   "0xdef",
		Timestamp:    "0x5f5e100",
		Miner:        "0xMinerAddr",
		GasUsed:      "0x5208",
		GasLimit:     "0x7a1200",
		Uncles:       []string{"0xUNCLE1"},
		Transactions: []RawTransaction{{Hash: "0x1"}, {Hash: "0x2"}},
	}

	b := NormalizeBlock("ethereum", raw)

	assert.Equal(t, "ethereum", b.Chain)
	assert.Equal(t, "0xabc123", b.Hash)
	assert.Equal(t, int64(16), b.Number)
	assert.Equal(t, "100000000", b.Timestamp)
	assert.Equal(t, "0xmineraddr", b.Miner)
	assert.Equal(t, int64(2), b.Transactions)
	assert.Equal(t, []string{"0xuncle1"}, b.Uncles)
}

func TestNormalizeBlock_MissingOptionalFieldsDefaultToZero(t *testing.T) {
	b := NormalizeBlock("ethereum", RawBlock{})

	assert.Equal(t, "0x", b.Hash)
	assert.Equal(t, int64(0), b.Number)
	assert.Equal(t, "0", b.Difficulty)
	assert.Equal(t, "0", b.BaseFeePerGas)
	assert.Equal(t, "0x0000000000000000000000000000000000000000", b.Miner)
	assert.Equal(t, []string{}, b.Uncles)
}

func TestNormalizeTransaction_CopiesBlockTimestamp(t *testing.T) {
	raw := RawTransaction{
		Hash:             "0xHASH",
		From:             "0xFROM",
		To:               "0xTO",
		Value:            "0xde0b6b3a7640000",
		TransactionIndex: "0x3",
		Input:            "0xa9059cbb000000000000000000000000",
	}

	tx := NormalizeTransaction("polygon", raw, "100000000")

	assert.Equal(t, "polygon", tx.Chain)
	assert.Equal(t, "1000000000000000000", tx.Value)
	assert.Equal(t, int64(3), tx.TransactionIndex)
	assert.Equal(t, "0xa9059cbb", tx.Method)
	assert.Equal(t, "100000000", tx.Timestamp)
}

func TestNormalizeTransaction_ContractCreationDefaultsToAddress(t *testing.T) {
	tx := NormalizeTransaction("ethereum", RawTransaction{From: "0xFROM", To: ""}, "0")
	assert.Equal(t, "0x0000000000000000000000000000000000000000", tx.ToAddress)
}

func TestNormalizeTransaction_ShortInputDefaultsMethodSelector(t *testing.T) {
	tx := NormalizeTransaction("ethereum", RawTransaction{Input: "0x1234"}, "0")
	assert.Equal(t, "0x00000000", tx.Method)
}

func TestNormalizeReceipt_NoContractAddress(t *testing.T) {
	r := NormalizeReceipt(RawReceipt{TransactionHash: "0xHASH", Status: "0x1"})
	assert.Nil(t, r.ContractAddress)
	assert.Equal(t, "1", r.Status)
}

func TestNormalizeReceipt_ContractCreation(t *testing.T) {
	r := NormalizeReceipt(RawReceipt{
		TransactionHash: "0xHASH",
		ContractAddress: "0xDEADBEEF",
		Status:          "0x0",
	})
	require := assert.New(t)
	require.NotNil(r.ContractAddress)
	require.Equal("0xdeadbeef", *r.ContractAddress)
	require.Equal("0", r.Status)
}

func TestNormalizeReceipt_MissingStatusIsPreByzantiumSentinel(t *testing.T) {
	r := NormalizeReceipt(RawReceipt{TransactionHash: "0xHASH"})
	assert.Equal(t, "-1", r.Status)
}

func TestNormalizeLog_NullableTopicsPreserved(t *testing.T) {
	raw := RawLog{
		TransactionHash: "0xHASH",
		Address:         "0xADDR",
		Topics:          []string{"0xTOPIC0", ""},
		Data:            "0xdata",
	}

	l := NormalizeLog("ethereum", raw)

	require := assert.New(t)
	require.Len(l.Topics, 2)
	require.NotNil(l.Topics[0])
	require.Equal("0xtopic0", *l.Topics[0])
	require.Nil(l.Topics[1])
}

func TestNormalizeContractFromReceipt_OnlyWhenDeployed(t *testing.T) {
	_, ok := NormalizeContractFromReceipt("ethereum", RawReceipt{}, 10, "0xCREATOR")
	assert.False(t, ok)

	c, ok := NormalizeContractFromReceipt("ethereum", RawReceipt{ContractAddress: "0xNEWCONTRACT"}, 10, "0xCREATOR")
	require := assert.New(t)
	require.True(ok)
	require.Equal("ethereum", c.Chain)
	require.Equal(int64(10), c.Block)
	require.Equal("0xnewcontract", c.Contract)
	require.Equal("0xcreator", c.Creator)
	require.False(c.Parsed)
	require.False(c.Verified)
}
