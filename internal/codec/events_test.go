package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

func topicPtr(addressHex20Bytes string) *string {
	t := "0x" + strings.Repeat("0", 24) + addressHex20Bytes
	return &t
}

func addr(b byte) string {
	return strings.Repeat(string([]byte{hexDigit(b >> 4), hexDigit(b & 0x0f)}), 20)
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + (n - 10)
}

func word(n int64) string {
	return strings.Repeat("0", 56) + hexPad(n)
}

func hexPad(n int64) string {
	h := ""
	for n > 0 {
		h = string(hexDigit(byte(n&0xf))) + h
		n >>= 4
	}
	for len(h) < 8 {
		h = "0" + h
	}
	return h
}

func TestDecodeERC20Transfer_HappyPath(t *testing.T) {
	topic0 := TransferTopic
	fromTopic := topicPtr(addr(0x11))
	toTopic := topicPtr(addr(0x22))

	log := domain.Log{
		Hash:     "0xhash",
		LogIndex: 1,
		Address:  "0x" + addr(0x33),
		Topics:   []*string{&topic0, fromTopic, toTopic},
		Data:     "0x" + word(1000),
	}

	transfer, ok := DecodeERC20Transfer("ethereum", log)

	require.True(t, ok)
	assert.Equal(t, "ethereum", transfer.Chain)
	assert.Equal(t, "0x"+addr(0x11), transfer.FromAddress)
	assert.Equal(t, "0x"+addr(0x22), transfer.ToAddress)
	assert.Equal(t, "1000", transfer.Value)
}

func TestDecodeERC20Transfer_WrongTopicCountRejected(t *testing.T) {
	topic0 := TransferTopic
	log := domain.Log{Topics: []*string{&topic0}}

	_, ok := DecodeERC20Transfer("ethereum", log)

	assert.False(t, ok)
}

func TestDecodeERC20Transfer_WrongTopic0Rejected(t *testing.T) {
	other := TransferSingleTopic
	fromTopic := topicPtr(addr(0x11))
	toTopic := topicPtr(addr(0x22))
	log := domain.Log{Topics: []*string{&other, fromTopic, toTopic}}

	_, ok := DecodeERC20Transfer("ethereum", log)

	assert.False(t, ok)
}

func TestDecodeERC721Transfer_HappyPath(t *testing.T) {
	topic0 := TransferTopic
	fromTopic := topicPtr(addr(0x11))
	toTopic := topicPtr(addr(0x22))
	idTopic := "0x" + word(42)
	tokenIDTopic := &idTopic

	log := domain.Log{
		Hash:     "0xhash",
		LogIndex: 5,
		Address:  "0x" + addr(0x33),
		Topics:   []*string{&topic0, fromTopic, toTopic, tokenIDTopic},
	}

	transfer, ok := DecodeERC721Transfer("ethereum", log)

	require.True(t, ok)
	assert.Equal(t, "ethereum", transfer.Chain)
	assert.Equal(t, domain.NFTTransferERC721, transfer.TransferType)
	assert.Equal(t, "42", transfer.TokenID)
	assert.Equal(t, "1", transfer.Value)
	assert.Equal(t, int64(0), transfer.TransferIndex)
}

func TestDecodeERC1155TransferSingle_HappyPath(t *testing.T) {
	topic0 := TransferSingleTopic
	operatorTopic := topicPtr(addr(0x99))
	fromTopic := topicPtr(addr(0x11))
	toTopic := topicPtr(addr(0x22))

	data := "0x" + word(7) + word(50)

	log := domain.Log{
		Hash:     "0xhash",
		LogIndex: 2,
		Address:  "0x" + addr(0x33),
		Topics:   []*string{&topic0, operatorTopic, fromTopic, toTopic},
		Data:     data,
	}

	transfer, ok := DecodeERC1155TransferSingle("polygon", log)

	require.True(t, ok)
	assert.Equal(t, "polygon", transfer.Chain)
	assert.Equal(t, domain.NFTTransferERC1155Single, transfer.TransferType)
	assert.Equal(t, "7", transfer.TokenID)
	assert.Equal(t, "50", transfer.Value)
}

func TestDecodeERC1155TransferBatch_HappyPath(t *testing.T) {
	topic0 := TransferBatchTopic
	operatorTopic := topicPtr(addr(0x99))
	fromTopic := topicPtr(addr(0x11))
	toTopic := topicPtr(addr(0x22))

	// Two dynamic uint256[] arrays, ABI-encoded by hand: head offsets
	// followed by each array's length-prefixed body. ids = [1, 2],
	// values = [10, 20].
	data := "0x" +
		word(0x40) + // offset to ids
		word(0xa0) + // offset to values
		word(2) + word(1) + word(2) + // ids: len, item0, item1
		word(2) + word(10) + word(20) // values: len, item0, item1

	log := domain.Log{
		Hash:     "0xhash",
		LogIndex: 9,
		Address:  "0x" + addr(0x33),
		Topics:   []*string{&topic0, operatorTopic, fromTopic, toTopic},
		Data:     data,
	}

	transfers, ok := DecodeERC1155TransferBatch("arbitrum", log)

	require.True(t, ok)
	require.Len(t, transfers, 2)

	assert.Equal(t, "arbitrum", transfers[0].Chain)
	assert.Equal(t, domain.NFTTransferERC1155Batch, transfers[0].TransferType)
	assert.Equal(t, int64(0), transfers[0].TransferIndex)
	assert.Equal(t, "1", transfers[0].TokenID)
	assert.Equal(t, "10", transfers[0].Value)

	assert.Equal(t, int64(1), transfers[1].TransferIndex)
	assert.Equal(t, "2", transfers[1].TokenID)
	assert.Equal(t, "20", transfers[1].Value)
}

func TestDecodeERC1155TransferBatch_MismatchedArrayLengthsRejected(t *testing.T) {
	topic0 := TransferBatchTopic
	operatorTopic := topicPtr(addr(0x99))
	fromTopic := topicPtr(addr(0x11))
	toTopic := topicPtr(addr(0x22))

	data := "0x" +
		word(0x40) +
		word(0x80) +
		word(1) + word(1) + // ids: len 1
		word(2) + word(10) + word(20) // values: len 2

	log := domain.Log{
		Topics: []*string{&topic0, operatorTopic, fromTopic, toTopic},
		Data:   data,
	}

	_, ok := DecodeERC1155TransferBatch("arbitrum", log)

	assert.False(t, ok)
}
