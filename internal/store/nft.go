package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

var nftTransfersSpec = upsertSpec{
	table: "nft_transfers",
	columns: []string{
		"hash", "log_index", "transfer_index", "chain", "transfer_type", "token",
		"from_address", "to_address", "token_id", "value", "balance_applied", "nft_tokens_parsed",
	},
	conflictColumns: []string{"hash", "log_index", "transfer_index"},
}

var nftBalancesSpec = upsertSpec{
	table:           "nft_balances",
	columns:         []string{"address", "token", "chain", "token_id", "balance"},
	conflictColumns: []string{"address", "token", "chain", "token_id"},
}

var nftTokensSpec = upsertSpec{
	table:           "nft_tokens",
	columns:         []string{"address", "chain", "nft_type", "name", "symbol", "contract_uri"},
	conflictColumns: []string{"address", "chain"},
}

// UpsertNFTTransfers persists rows derived by the NFT transfer decoder,
// one per (id, value) pair for an ERC-1155 batch log.
func (s *Store) UpsertNFTTransfers(ctx context.Context, transfers []domain.NFTTransfer) error {
	rows := make([][]any, len(transfers))
	for i, t := range transfers {
		rows[i] = []any{
			t.Hash, t.LogIndex, t.TransferIndex, t.Chain, string(t.TransferType), t.Token,
			t.FromAddress, t.ToAddress, t.TokenID, t.Value, t.BalanceApplied, t.TokensParsed,
		}
	}
	return s.bulkUpsert(ctx, nftTransfersSpec, rows)
}

// UnappliedNFTTransfers returns up to limit transfers for chain whose
// balance effect has not yet been applied, for the balance accumulator's
// batch pull.
func (s *Store) UnappliedNFTTransfers(ctx context.Context, chain string, limit int) ([]domain.NFTTransfer, error) {
	return s.queryNFTTransfers(ctx,
		`SELECT hash, log_index, transfer_index, chain, transfer_type, token,
		        from_address, to_address, token_id, value, balance_applied, nft_tokens_parsed
		 FROM nft_transfers WHERE chain = $1 AND NOT balance_applied LIMIT $2`,
		chain, limit,
	)
}

// UnparsedNFTTransfersForTokens returns up to limit transfers for chain
// whose contract-level metadata has not yet been resolved, for the token
// metadata worker's batch pull.
func (s *Store) UnparsedNFTTransfersForTokens(ctx context.Context, chain string, limit int) ([]domain.NFTTransfer, error) {
	return s.queryNFTTransfers(ctx,
		`SELECT hash, log_index, transfer_index, chain, transfer_type, token,
		        from_address, to_address, token_id, value, balance_applied, nft_tokens_parsed
		 FROM nft_transfers WHERE chain = $1 AND NOT nft_tokens_parsed LIMIT $2`,
		chain, limit,
	)
}

func (s *Store) queryNFTTransfers(ctx context.Context, query string, args ...any) ([]domain.NFTTransfer, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NFTTransfer
	for rows.Next() {
		var t domain.NFTTransfer
		var transferType string
		if err := rows.Scan(
			&t.Hash, &t.LogIndex, &t.TransferIndex, &t.Chain, &transferType, &t.Token,
			&t.FromAddress, &t.ToAddress, &t.TokenID, &t.Value, &t.BalanceApplied, &t.TokensParsed,
		); err != nil {
			return nil, err
		}
		t.TransferType = domain.NFTTransferType(transferType)
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkNFTTokensParsed flags a batch of transfers, keyed by
// (hash, log_index, transfer_index), as metadata-resolved.
func (s *Store) MarkNFTTokensParsed(ctx context.Context, keys [][3]any) error {
	for _, k := range keys {
		if _, err := s.pool.Exec(ctx,
			"UPDATE nft_transfers SET nft_tokens_parsed = TRUE WHERE hash = $1 AND log_index = $2 AND transfer_index = $3",
			k[0], k[1], k[2],
		); err != nil {
			return err
		}
	}
	return nil
}

// UpsertNFTTokens persists contract-level metadata rows resolved by the
// token metadata worker, keyed by (address, chain).
func (s *Store) UpsertNFTTokens(ctx context.Context, tokens []domain.NFTToken) error {
	rows := make([][]any, len(tokens))
	for i, t := range tokens {
		rows[i] = []any{t.Address, t.Chain, t.NFTType, t.Name, t.Symbol, t.ContractURI}
	}
	return s.bulkUpsert(ctx, nftTokensSpec, rows)
}

// MarkNFTBalancesApplied flags a batch of transfers, keyed by
// (hash, log_index, transfer_index), as balance-applied.
func (s *Store) MarkNFTBalancesApplied(ctx context.Context, keys [][3]any) error {
	for _, k := range keys {
		if _, err := s.pool.Exec(ctx,
			"UPDATE nft_transfers SET balance_applied = TRUE WHERE hash = $1 AND log_index = $2 AND transfer_index = $3",
			k[0], k[1], k[2],
		); err != nil {
			return err
		}
	}
	return nil
}

// NFTBalance returns the current signed balance for (address, token,
// chain, token_id), or zero if no row exists yet. Unlike ERC20Balance the
// value may legitimately go negative on out-of-order ingestion.
func (s *Store) NFTBalance(ctx context.Context, address, token, chain, tokenID string) (domain.NFTBalance, error) {
	bal := domain.NFTBalance{Address: address, Token: token, Chain: chain, TokenID: tokenID, Balance: "0"}
	err := s.pool.QueryRow(ctx,
		"SELECT balance FROM nft_balances WHERE address = $1 AND token = $2 AND chain = $3 AND token_id = $4",
		address, token, chain, tokenID,
	).Scan(&bal.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NFTBalance{Address: address, Token: token, Chain: chain, TokenID: tokenID, Balance: "0"}, nil
	}
	if err != nil {
		return domain.NFTBalance{}, err
	}
	return bal, nil
}

// UpsertNFTBalance persists one signed balance row.
func (s *Store) UpsertNFTBalance(ctx context.Context, bal domain.NFTBalance) error {
	return s.bulkUpsert(ctx, nftBalancesSpec, [][]any{
		{bal.Address, bal.Token, bal.Chain, bal.TokenID, bal.Balance},
	})
}
