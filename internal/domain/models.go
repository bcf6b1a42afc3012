// Package domain holds the internal data model described in the design's
// data model section: blocks, transactions, receipts, logs, contracts,
// token transfers and balances, and the chain-level indexing counters.
// All hashes and addresses are lowercase hex strings with a 0x prefix; all
// large integers are decimal strings so arbitrary precision survives the
// round trip through the store.
package domain

// Block is keyed by block_hash and is immutable once committed.
type Block struct {
	Hash            string
	Number          int64
	Chain           string
	ParentHash      string
	Timestamp       string
	Miner           string
	Difficulty      string
	TotalDifficulty string
	GasUsed         string
	GasLimit        string
	BaseFeePerGas   string
	ExtraData       string
	LogsBloom       string
	MixHash         string
	Nonce           string
	ReceiptsRoot    string
	StateRoot       string
	Sha3Uncles      string
	Size            string
	Transactions    int64
	Uncles          []string
}

// Transaction is keyed by hash.
type Transaction struct {
	Hash                 string
	BlockHash            string
	BlockNumber          int64
	Chain                string
	FromAddress          string
	ToAddress            string
	Value                string
	Gas                  string
	GasPrice             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string
	Nonce                string
	TransactionIndex     int64
	TransactionType      string
	Input                string
	Method               string
	Timestamp            string
}

// Receipt is keyed by hash (the transaction hash).
type Receipt struct {
	Hash              string
	ContractAddress   *string
	CumulativeGasUsed string
	EffectiveGasPrice string
	GasUsed           string
	Status            string
}

// Log is keyed by (hash, log_index).
type Log struct {
	Hash                string
	LogIndex            int64
	Address             string
	Chain               string
	Topics              []*string
	Data                string
	Removed             bool
	ERC20TransfersParsed bool
	NFTTransfersParsed   bool
}

// Contract is a deployment event, keyed by the deployment transaction hash.
type Contract struct {
	Hash     string
	Block    int64
	Chain    string
	Contract string
	Creator  string
	Parsed   bool
	Verified bool
}

// ERC20Transfer is keyed by (hash, log_index).
type ERC20Transfer struct {
	Hash                string
	LogIndex            int64
	Chain               string
	Token               string
	FromAddress         string
	ToAddress           string
	Value               string
	ERC20TokensParsed   bool
	ERC20BalancesParsed bool
}

// ERC20Balance is keyed by (address, token, chain). The current balance is
// received - sent; it is never materialized as a single field so
// out-of-order ingestion never requires storing a transient negative.
type ERC20Balance struct {
	Address  string
	Token    string
	Chain    string
	Sent     string
	Received string
}

// ERC20Token is keyed by (address, chain). Fields are nullable because
// metadata calls against the token contract can individually fail.
type ERC20Token struct {
	Address  string
	Chain    string
	Name     *string
	Decimals *int64
	Symbol   *string
}

// NFTTransferType enumerates the three token-transfer event shapes the
// decoder recognizes.
type NFTTransferType string

const (
	NFTTransferERC721            NFTTransferType = "ERC721Transfer"
	NFTTransferERC1155Single     NFTTransferType = "ERC1155TransferSingle"
	NFTTransferERC1155Batch      NFTTransferType = "ERC1155TransferBatch"
)

// NFTTransfer is keyed by (hash, log_index, transfer_index). TransferIndex
// is always 0 except for ERC1155TransferBatch, which emits one row per
// (id, value) pair with a monotonically increasing index.
type NFTTransfer struct {
	Hash          string
	LogIndex      int64
	TransferIndex int64
	Chain         string
	TransferType  NFTTransferType
	Token         string
	FromAddress   string
	ToAddress     string
	TokenID        string
	Value          string
	BalanceApplied bool
	TokensParsed   bool
}

// NFTToken is the contract-level metadata row keyed by (address, chain):
// its collection name, symbol, and contract-wide metadata URI.
type NFTToken struct {
	Address     string
	Chain       string
	NFTType     string
	Name        *string
	Symbol      *string
	ContractURI *string
}

// NFTBalance is keyed by (address, token, chain, token_id). Balance is
// signed arbitrary precision because out-of-order ingestion can transiently
// produce a negative value.
type NFTBalance struct {
	Address string
	Token   string
	Chain   string
	TokenID string
	Balance string
}

// Method is keyed by the 4-byte selector and maps it to a human name.
type Method struct {
	Method string
	Name   string
}

// ContractInformation is keyed by (chain, contract).
type ContractInformation struct {
	Chain    string
	Contract string
	ABI      *string
	Name     *string
	Verified bool
}

// ChainIndexedState is keyed by chain and tracks the running count of
// heights known to be fully committed.
type ChainIndexedState struct {
	Chain               string
	IndexedBlocksAmount int64
}

// ZeroAddress is the sentinel "no address" value used for contract-creation
// transactions and for mint/burn transfer endpoints.
const ZeroAddress = "0x0000000000000000000000000000000000000000"
