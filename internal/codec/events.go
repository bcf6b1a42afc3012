package codec

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/u256"
)

// Topic-0 signatures the event decoders key off. Values are the
// keccak256 hashes of the canonical event signatures.
const (
	TransferTopic           = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	TransferSingleTopic     = "0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62"
	TransferBatchTopic      = "0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb"
)

var uint256ArrayType, _ = abi.NewType("uint256[]", "", nil)

var batchArguments = abi.Arguments{
	{Type: uint256ArrayType},
	{Type: uint256ArrayType},
}

func topicString(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}

// addressFromTopic extracts the low 20 bytes of a 32-byte indexed topic as
// a lowercase hex address.
func addressFromTopic(topic string) string {
	h := common.HexToHash(topic)
	return strings.ToLower(common.BytesToAddress(h.Bytes()).Hex())
}

// dataWord returns the i-th 32-byte word from a hex data blob, defaulting
// to an all-zero word when the payload is short.
func dataWord(data string, i int) []byte {
	clean := strings.TrimPrefix(data, "0x")
	start := i * 64
	end := start + 64
	word := make([]byte, 32)
	if start >= len(clean) {
		return word
	}
	if end > len(clean) {
		end = len(clean)
	}
	b := common.FromHex("0x" + clean[start:end])
	copy(word[32-len(b):], b)
	return word
}

// DecodeERC20Transfer decodes an ERC-20 Transfer(address,address,uint256)
// log: topic0 matches, exactly 3 topics (sender and receiver indexed,
// amount in data). A malformed payload yields no row; the caller still
// marks the log parsed.
func DecodeERC20Transfer(chain string, log domain.Log) (domain.ERC20Transfer, bool) {
	if len(log.Topics) != 3 {
		return domain.ERC20Transfer{}, false
	}
	if topicString(log.Topics[0]) != TransferTopic {
		return domain.ERC20Transfer{}, false
	}
	from := topicString(log.Topics[1])
	to := topicString(log.Topics[2])
	if from == "" || to == "" {
		return domain.ERC20Transfer{}, false
	}

	value := u256.FromBigEndianBytes(dataWord(log.Data, 0)).Dec()

	return domain.ERC20Transfer{
		Hash:        log.Hash,
		LogIndex:    log.LogIndex,
		Chain:       chain,
		Token:       log.Address,
		FromAddress: addressFromTopic(from),
		ToAddress:   addressFromTopic(to),
		Value:       value,
	}, true
}

// DecodeERC721Transfer decodes an ERC-721 Transfer(address,address,uint256)
// log, distinguished from the ERC-20 shape by carrying 4 topics (the token
// id is indexed).
func DecodeERC721Transfer(chain string, log domain.Log) (domain.NFTTransfer, bool) {
	if len(log.Topics) != 4 {
		return domain.NFTTransfer{}, false
	}
	if topicString(log.Topics[0]) != TransferTopic {
		return domain.NFTTransfer{}, false
	}
	from := topicString(log.Topics[1])
	to := topicString(log.Topics[2])
	tokenID := topicString(log.Topics[3])
	if from == "" || to == "" || tokenID == "" {
		return domain.NFTTransfer{}, false
	}

	tokenIDValue := u256.FromBigEndianBytes(common.HexToHash(tokenID).Bytes()).Dec()

	return domain.NFTTransfer{
		Hash:          log.Hash,
		LogIndex:      log.LogIndex,
		TransferIndex: 0,
		Chain:         chain,
		TransferType:  domain.NFTTransferERC721,
		Token:         log.Address,
		FromAddress:   addressFromTopic(from),
		ToAddress:     addressFromTopic(to),
		TokenID:       tokenIDValue,
		Value:         "1",
	}, true
}

// DecodeERC1155TransferSingle decodes a
// TransferSingle(address,address,address,uint256,uint256) log: operator,
// from, to indexed (4 topics), id and value packed in data.
func DecodeERC1155TransferSingle(chain string, log domain.Log) (domain.NFTTransfer, bool) {
	if len(log.Topics) != 4 {
		return domain.NFTTransfer{}, false
	}
	if topicString(log.Topics[0]) != TransferSingleTopic {
		return domain.NFTTransfer{}, false
	}
	from := topicString(log.Topics[2])
	to := topicString(log.Topics[3])
	if from == "" || to == "" {
		return domain.NFTTransfer{}, false
	}

	id := u256.FromBigEndianBytes(dataWord(log.Data, 0)).Dec()
	value := u256.FromBigEndianBytes(dataWord(log.Data, 1)).Dec()

	return domain.NFTTransfer{
		Hash:          log.Hash,
		LogIndex:      log.LogIndex,
		TransferIndex: 0,
		Chain:         chain,
		TransferType:  domain.NFTTransferERC1155Single,
		Token:         log.Address,
		FromAddress:   addressFromTopic(from),
		ToAddress:     addressFromTopic(to),
		TokenID:       id,
		Value:         value,
	}, true
}

// DecodeERC1155TransferBatch decodes a
// TransferBatch(address,address,address,uint256[],uint256[]) log into one
// NFTTransfer row per (id, value) pair, with a monotonically increasing
// transfer_index. The two dynamic arrays are ABI-decoded rather than
// sliced by hand since their encoding carries offset/length headers.
func DecodeERC1155TransferBatch(chain string, log domain.Log) ([]domain.NFTTransfer, bool) {
	if len(log.Topics) != 4 {
		return nil, false
	}
	if topicString(log.Topics[0]) != TransferBatchTopic {
		return nil, false
	}
	from := topicString(log.Topics[2])
	to := topicString(log.Topics[3])
	if from == "" || to == "" {
		return nil, false
	}

	raw := common.FromHex(log.Data)
	decoded, err := batchArguments.Unpack(raw)
	if err != nil || len(decoded) != 2 {
		return nil, false
	}

	ids, ok := decoded[0].([]*big.Int)
	if !ok {
		return nil, false
	}
	values, ok := decoded[1].([]*big.Int)
	if !ok {
		return nil, false
	}
	if len(ids) != len(values) {
		return nil, false
	}

	fromAddr := addressFromTopic(from)
	toAddr := addressFromTopic(to)

	transfers := make([]domain.NFTTransfer, 0, len(ids))
	for i := range ids {
		transfers = append(transfers, domain.NFTTransfer{
			Hash:          log.Hash,
			LogIndex:      log.LogIndex,
			TransferIndex: int64(i),
			Chain:         chain,
			TransferType:  domain.NFTTransferERC1155Batch,
			Token:         log.Address,
			FromAddress:   fromAddr,
			ToAddress:     toAddr,
			TokenID:       ids[i].String(),
			Value:         values[i].String(),
		})
	}

	return transfers, true
}
