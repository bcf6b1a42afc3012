package codec

// The Raw* types mirror the JSON shape returned by standard Ethereum
// JSON-RPC 2.0 nodes verbatim (all numeric fields are quantity-encoded hex
// strings, per the wire protocol). The codec package turns these into the
// internal domain model; it performs no I/O itself — rpcpool is
// responsible for issuing the RPC calls and unmarshaling into these types.

// RawBlock is the result of eth_getBlockByNumber(height, true).
type RawBlock struct {
	Hash             string             `json:"hash"`
	Number           string             `json:"number"`
	ParentHash       string             `json:"parentHash"`
	Timestamp        string             `json:"timestamp"`
	Miner            string             `json:"miner"`
	Difficulty       string             `json:"difficulty"`
	TotalDifficulty  string             `json:"totalDifficulty"`
	GasUsed          string             `json:"gasUsed"`
	GasLimit         string             `json:"gasLimit"`
	BaseFeePerGas    string             `json:"baseFeePerGas"`
	ExtraData        string             `json:"extraData"`
	LogsBloom        string             `json:"logsBloom"`
	MixHash          string             `json:"mixHash"`
	Nonce            string             `json:"nonce"`
	ReceiptsRoot     string             `json:"receiptsRoot"`
	StateRoot        string             `json:"stateRoot"`
	Sha3Uncles       string             `json:"sha3Uncles"`
	Size             string             `json:"size"`
	Uncles           []string           `json:"uncles"`
	Transactions     []RawTransaction   `json:"transactions"`
}

// RawTransaction is one entry of RawBlock.Transactions (full-transaction
// form, since eth_getBlockByNumber is always called with the "full" flag).
type RawTransaction struct {
	Hash                 string `json:"hash"`
	BlockHash            string `json:"blockHash"`
	BlockNumber          string `json:"blockNumber"`
	From                 string `json:"from"`
	To                   string `json:"to"`
	Value                string `json:"value"`
	Gas                  string `json:"gas"`
	GasPrice             string `json:"gasPrice"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	Nonce                string `json:"nonce"`
	TransactionIndex     string `json:"transactionIndex"`
	Type                 string `json:"type"`
	Input                string `json:"input"`
}

// RawReceipt is the result of eth_getTransactionReceipt, or one element of
// eth_getBlockReceipts.
type RawReceipt struct {
	TransactionHash   string   `json:"transactionHash"`
	ContractAddress   string   `json:"contractAddress"`
	CumulativeGasUsed string   `json:"cumulativeGasUsed"`
	EffectiveGasPrice string   `json:"effectiveGasPrice"`
	GasUsed           string   `json:"gasUsed"`
	Status            string   `json:"status"`
	From              string   `json:"from"`
	Logs              []RawLog `json:"logs"`
}

// RawLog is one entry of RawReceipt.Logs.
type RawLog struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	TransactionHash  string   `json:"transactionHash"`
	LogIndex         string   `json:"logIndex"`
	Removed          bool     `json:"removed"`
}
