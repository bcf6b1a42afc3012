package store

import "context"

// schemaDDL is the bootstrap schema, applied idempotently with IF NOT
// EXISTS on every Open. Table names and key columns follow the design's
// persisted-schema section; this package treats the DDL as an internal
// implementation detail the caller never has to manage separately.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS blocks (
	block_hash TEXT PRIMARY KEY,
	number BIGINT NOT NULL,
	chain TEXT NOT NULL,
	parent_hash TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	miner TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	total_difficulty TEXT NOT NULL,
	gas_used TEXT NOT NULL,
	gas_limit TEXT NOT NULL,
	base_fee_per_gas TEXT NOT NULL,
	extra_data TEXT NOT NULL,
	logs_bloom TEXT NOT NULL,
	mix_hash TEXT NOT NULL,
	nonce TEXT NOT NULL,
	receipts_root TEXT NOT NULL,
	state_root TEXT NOT NULL,
	sha3_uncles TEXT NOT NULL,
	size TEXT NOT NULL,
	transactions BIGINT NOT NULL,
	uncles TEXT[] NOT NULL DEFAULT '{}'
);
CREATE UNIQUE INDEX IF NOT EXISTS blocks_chain_number_idx ON blocks (chain, number);

CREATE TABLE IF NOT EXISTS transactions (
	hash TEXT PRIMARY KEY,
	block_hash TEXT NOT NULL,
	block_number BIGINT NOT NULL,
	chain TEXT NOT NULL,
	from_address TEXT NOT NULL,
	to_address TEXT NOT NULL,
	value TEXT NOT NULL,
	gas TEXT NOT NULL,
	gas_price TEXT NOT NULL,
	max_fee_per_gas TEXT NOT NULL,
	max_priority_fee_per_gas TEXT NOT NULL,
	nonce TEXT NOT NULL,
	transaction_index BIGINT NOT NULL,
	transaction_type TEXT NOT NULL,
	input TEXT NOT NULL,
	method TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_chain_block_number_idx ON transactions (chain, block_number);

CREATE TABLE IF NOT EXISTS transactions_receipts (
	hash TEXT PRIMARY KEY,
	contract_address TEXT,
	cumulative_gas_used TEXT NOT NULL,
	effective_gas_price TEXT NOT NULL,
	gas_used TEXT NOT NULL,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS logs (
	hash TEXT NOT NULL,
	log_index BIGINT NOT NULL,
	address TEXT NOT NULL,
	chain TEXT NOT NULL,
	topics TEXT[] NOT NULL DEFAULT '{}',
	data TEXT NOT NULL,
	removed BOOLEAN NOT NULL DEFAULT FALSE,
	erc20_transfers_parsed BOOLEAN NOT NULL DEFAULT FALSE,
	nft_transfers_parsed BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (hash, log_index)
);
CREATE INDEX IF NOT EXISTS logs_unparsed_erc20_idx ON logs (chain) WHERE erc20_transfers_parsed = FALSE;
CREATE INDEX IF NOT EXISTS logs_unparsed_nft_idx ON logs (chain) WHERE nft_transfers_parsed = FALSE;

CREATE TABLE IF NOT EXISTS contracts (
	hash TEXT PRIMARY KEY,
	block BIGINT NOT NULL,
	chain TEXT NOT NULL,
	contract TEXT NOT NULL,
	creator TEXT NOT NULL,
	parsed BOOLEAN NOT NULL DEFAULT FALSE,
	verified BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS contracts_unparsed_idx ON contracts (chain) WHERE parsed = FALSE;

CREATE TABLE IF NOT EXISTS contracts_information (
	chain TEXT NOT NULL,
	contract TEXT NOT NULL,
	abi TEXT,
	name TEXT,
	verified BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (chain, contract)
);

CREATE TABLE IF NOT EXISTS erc20_transfers (
	hash TEXT NOT NULL,
	log_index BIGINT NOT NULL,
	chain TEXT NOT NULL,
	token TEXT NOT NULL,
	from_address TEXT NOT NULL,
	to_address TEXT NOT NULL,
	value TEXT NOT NULL,
	erc20_tokens_parsed BOOLEAN NOT NULL DEFAULT FALSE,
	erc20_balances_parsed BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (hash, log_index)
);
CREATE INDEX IF NOT EXISTS erc20_transfers_unparsed_tokens_idx ON erc20_transfers (chain) WHERE erc20_tokens_parsed = FALSE;
CREATE INDEX IF NOT EXISTS erc20_transfers_unparsed_balances_idx ON erc20_transfers (chain) WHERE erc20_balances_parsed = FALSE;

CREATE TABLE IF NOT EXISTS erc20_tokens (
	address TEXT NOT NULL,
	chain TEXT NOT NULL,
	name TEXT,
	decimals BIGINT,
	symbol TEXT,
	PRIMARY KEY (address, chain)
);

CREATE TABLE IF NOT EXISTS erc20_balances (
	address TEXT NOT NULL,
	token TEXT NOT NULL,
	chain TEXT NOT NULL,
	sent TEXT NOT NULL DEFAULT '0',
	received TEXT NOT NULL DEFAULT '0',
	PRIMARY KEY (address, token, chain)
);

CREATE TABLE IF NOT EXISTS nft_transfers (
	hash TEXT NOT NULL,
	log_index BIGINT NOT NULL,
	transfer_index BIGINT NOT NULL,
	chain TEXT NOT NULL,
	transfer_type TEXT NOT NULL,
	token TEXT NOT NULL,
	from_address TEXT NOT NULL,
	to_address TEXT NOT NULL,
	token_id TEXT NOT NULL,
	value TEXT NOT NULL,
	balance_applied BOOLEAN NOT NULL DEFAULT FALSE,
	nft_tokens_parsed BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (hash, log_index, transfer_index)
);
CREATE INDEX IF NOT EXISTS nft_transfers_unapplied_idx ON nft_transfers (chain) WHERE NOT balance_applied;
CREATE INDEX IF NOT EXISTS nft_transfers_unparsed_tokens_idx ON nft_transfers (chain) WHERE NOT nft_tokens_parsed;

CREATE TABLE IF NOT EXISTS nft_balances (
	address TEXT NOT NULL,
	token TEXT NOT NULL,
	chain TEXT NOT NULL,
	token_id TEXT NOT NULL,
	balance TEXT NOT NULL DEFAULT '0',
	PRIMARY KEY (address, token, chain, token_id)
);

CREATE TABLE IF NOT EXISTS nft_tokens (
	address TEXT NOT NULL,
	chain TEXT NOT NULL,
	nft_type TEXT,
	name TEXT,
	symbol TEXT,
	contract_uri TEXT,
	PRIMARY KEY (address, chain)
);

CREATE TABLE IF NOT EXISTS methods (
	method TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chains_indexed_state (
	chain TEXT PRIMARY KEY,
	indexed_blocks_amount BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS contracts_adapters (
	adapter_id TEXT NOT NULL,
	chain TEXT NOT NULL,
	address TEXT NOT NULL,
	PRIMARY KEY (address, chain)
);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaDDL)
	return err
}
