package codec

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

// hexQuantityToDecimal turns a quantity-encoded hex string ("0x1a4") into
// its decimal-string representation, defaulting to "0" for empty or
// malformed input per the design's normalization rules for nullable
// numeric RPC fields.
func hexQuantityToDecimal(s string) string {
	if s == "" {
		return "0"
	}
	v, err := hexutil.DecodeBig(s)
	if err != nil {
		return "0"
	}
	return v.String()
}

// hexQuantityToInt64 is hexQuantityToDecimal's int64 counterpart, used for
// fields the store represents as integers (block number, log index, ...).
func hexQuantityToInt64(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0
	}
	return int64(v)
}

// normalizeHexString lowercases a hex blob and defaults empty input to
// "0x", matching the design's rule for missing optional byte-string
// fields.
func normalizeHexString(s string) string {
	if s == "" {
		return "0x"
	}
	return strings.ToLower(s)
}

// normalizeAddress lowercases an address, defaulting empty/contract-creation
// "to" fields to the zero address.
func normalizeAddress(s string) string {
	if s == "" {
		return domain.ZeroAddress
	}
	return strings.ToLower(s)
}

// methodSelector extracts the first 4 bytes of a transaction's input as the
// method selector, padding with zeros when input is shorter than that (the
// design's fallback is 0x00000000).
func methodSelector(input string) string {
	clean := strings.TrimPrefix(strings.ToLower(input), "0x")
	if len(clean) < 8 {
		return "0x00000000"
	}
	return "0x" + clean[:8]
}

// NormalizeBlock turns a RawBlock into the persisted Block shape. The
// Transactions count is taken from len(raw.Transactions); the tx-count
// check against the normalized transaction list happens one layer up, in
// the sync engine, so a mismatch is treated as a DataError there rather
// than silently absorbed here.
func NormalizeBlock(chain string, raw RawBlock) domain.Block {
	uncles := raw.Uncles
	if uncles == nil {
		uncles = []string{}
	}
	for i, u := range uncles {
		uncles[i] = strings.ToLower(u)
	}

	return domain.Block{
		Hash:            normalizeHexString(raw.Hash),
		Number:          hexQuantityToInt64(raw.Number),
		Chain:           chain,
		ParentHash:      normalizeHexString(raw.ParentHash),
		Timestamp:       hexQuantityToDecimal(raw.Timestamp),
		Miner:           normalizeAddress(raw.Miner),
		Difficulty:      hexQuantityToDecimal(raw.Difficulty),
		TotalDifficulty: hexQuantityToDecimal(raw.TotalDifficulty),
		GasUsed:         hexQuantityToDecimal(raw.GasUsed),
		GasLimit:        hexQuantityToDecimal(raw.GasLimit),
		BaseFeePerGas:   hexQuantityToDecimal(raw.BaseFeePerGas),
		ExtraData:       normalizeHexString(raw.ExtraData),
		LogsBloom:       normalizeHexString(raw.LogsBloom),
		MixHash:         normalizeHexString(raw.MixHash),
		Nonce:           normalizeHexString(raw.Nonce),
		ReceiptsRoot:    normalizeHexString(raw.ReceiptsRoot),
		StateRoot:       normalizeHexString(raw.StateRoot),
		Sha3Uncles:      normalizeHexString(raw.Sha3Uncles),
		Size:            hexQuantityToDecimal(raw.Size),
		Transactions:    int64(len(raw.Transactions)),
		Uncles:          uncles,
	}
}

// NormalizeTransaction turns a RawTransaction into the persisted
// Transaction shape. blockTimestamp is copied from the containing block
// per the design's data model.
func NormalizeTransaction(chain string, raw RawTransaction, blockTimestamp string) domain.Transaction {
	return domain.Transaction{
		Hash:                 normalizeHexString(raw.Hash),
		BlockHash:            normalizeHexString(raw.BlockHash),
		BlockNumber:          hexQuantityToInt64(raw.BlockNumber),
		Chain:                chain,
		FromAddress:          normalizeAddress(raw.From),
		ToAddress:            normalizeAddress(raw.To),
		Value:                hexQuantityToDecimal(raw.Value),
		Gas:                  hexQuantityToDecimal(raw.Gas),
		GasPrice:             hexQuantityToDecimal(raw.GasPrice),
		MaxFeePerGas:         hexQuantityToDecimal(raw.MaxFeePerGas),
		MaxPriorityFeePerGas: hexQuantityToDecimal(raw.MaxPriorityFeePerGas),
		Nonce:                hexQuantityToDecimal(raw.Nonce),
		TransactionIndex:     hexQuantityToInt64(raw.TransactionIndex),
		TransactionType:      normalizeHexString(raw.Type),
		Input:                normalizeHexString(raw.Input),
		Method:               methodSelector(raw.Input),
		Timestamp:            blockTimestamp,
	}
}

// NormalizeReceipt turns a RawReceipt into the persisted Receipt shape.
func NormalizeReceipt(raw RawReceipt) domain.Receipt {
	var contractAddress *string
	if raw.ContractAddress != "" {
		addr := normalizeAddress(raw.ContractAddress)
		contractAddress = &addr
	}

	status := "-1"
	if raw.Status != "" {
		status = hexQuantityToDecimal(raw.Status)
	}

	return domain.Receipt{
		Hash:              normalizeHexString(raw.TransactionHash),
		ContractAddress:   contractAddress,
		CumulativeGasUsed: hexQuantityToDecimal(raw.CumulativeGasUsed),
		EffectiveGasPrice: hexQuantityToDecimal(raw.EffectiveGasPrice),
		GasUsed:           hexQuantityToDecimal(raw.GasUsed),
		Status:            status,
	}
}

// NormalizeLog turns a RawLog into the persisted Log shape.
func NormalizeLog(chain string, raw RawLog) domain.Log {
	topics := make([]*string, 0, len(raw.Topics))
	for _, t := range raw.Topics {
		if t == "" {
			topics = append(topics, nil)
			continue
		}
		v := strings.ToLower(t)
		topics = append(topics, &v)
	}

	return domain.Log{
		Hash:     normalizeHexString(raw.TransactionHash),
		LogIndex: hexQuantityToInt64(raw.LogIndex),
		Address:  normalizeAddress(raw.Address),
		Chain:    chain,
		Topics:   topics,
		Data:     normalizeHexString(raw.Data),
		Removed:  raw.Removed,
	}
}

// NormalizeContractFromReceipt derives a Contract deployment row from a
// receipt carrying a non-empty contractAddress, paired with the deploying
// transaction's sender.
func NormalizeContractFromReceipt(chain string, raw RawReceipt, blockNumber int64, creator string) (domain.Contract, bool) {
	if raw.ContractAddress == "" {
		return domain.Contract{}, false
	}
	return domain.Contract{
		Hash:     normalizeHexString(raw.TransactionHash),
		Block:    blockNumber,
		Chain:    chain,
		Contract: normalizeAddress(raw.ContractAddress),
		Creator:  normalizeAddress(creator),
		Parsed:   false,
		Verified: false,
	}, true
}
