package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/csic-platform/evm-indexer/internal/domain"
	"github.com/csic-platform/evm-indexer/internal/u256"
)

var erc20TransfersSpec = upsertSpec{
	table: "erc20_transfers",
	columns: []string{
		"hash", "log_index", "chain", "token", "from_address", "to_address",
		"value", "erc20_tokens_parsed", "erc20_balances_parsed",
	},
	conflictColumns: []string{"hash", "log_index"},
}

var erc20TokensSpec = upsertSpec{
	table:           "erc20_tokens",
	columns:         []string{"address", "chain", "name", "decimals", "symbol"},
	conflictColumns: []string{"address", "chain"},
}

var erc20BalancesSpec = upsertSpec{
	table:           "erc20_balances",
	columns:         []string{"address", "token", "chain", "sent", "received"},
	conflictColumns: []string{"address", "token", "chain"},
}

// UpsertERC20Transfers persists rows derived by the ERC-20 transfer
// decoder worker.
func (s *Store) UpsertERC20Transfers(ctx context.Context, transfers []domain.ERC20Transfer) error {
	rows := make([][]any, len(transfers))
	for i, t := range transfers {
		rows[i] = []any{
			t.Hash, t.LogIndex, t.Chain, t.Token, t.FromAddress, t.ToAddress,
			t.Value, t.ERC20TokensParsed, t.ERC20BalancesParsed,
		}
	}
	return s.bulkUpsert(ctx, erc20TransfersSpec, rows)
}

// UnparsedERC20TransfersForTokens returns up to limit transfers awaiting
// token-metadata lookup, for the metadata worker's batch pull.
func (s *Store) UnparsedERC20TransfersForTokens(ctx context.Context, chain string, limit int) ([]domain.ERC20Transfer, error) {
	return s.queryERC20Transfers(ctx,
		"SELECT hash, log_index, chain, token, from_address, to_address, value, erc20_tokens_parsed, erc20_balances_parsed FROM erc20_transfers WHERE chain = $1 AND erc20_tokens_parsed = FALSE LIMIT $2",
		chain, limit,
	)
}

// UnparsedERC20TransfersForBalances is the balance accumulator's batch
// pull counterpart.
func (s *Store) UnparsedERC20TransfersForBalances(ctx context.Context, chain string, limit int) ([]domain.ERC20Transfer, error) {
	return s.queryERC20Transfers(ctx,
		"SELECT hash, log_index, chain, token, from_address, to_address, value, erc20_tokens_parsed, erc20_balances_parsed FROM erc20_transfers WHERE chain = $1 AND erc20_balances_parsed = FALSE LIMIT $2",
		chain, limit,
	)
}

func (s *Store) queryERC20Transfers(ctx context.Context, query string, args ...any) ([]domain.ERC20Transfer, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ERC20Transfer
	for rows.Next() {
		var t domain.ERC20Transfer
		if err := rows.Scan(
			&t.Hash, &t.LogIndex, &t.Chain, &t.Token, &t.FromAddress, &t.ToAddress,
			&t.Value, &t.ERC20TokensParsed, &t.ERC20BalancesParsed,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkERC20TokensParsed flags a batch of transfers as metadata-resolved.
func (s *Store) MarkERC20TokensParsed(ctx context.Context, keys [][2]any) error {
	for _, k := range keys {
		if _, err := s.pool.Exec(ctx,
			"UPDATE erc20_transfers SET erc20_tokens_parsed = TRUE WHERE hash = $1 AND log_index = $2",
			k[0], k[1],
		); err != nil {
			return err
		}
	}
	return nil
}

// MarkERC20BalancesParsed flags a batch of transfers as balance-applied.
// Callers must call this only after the corresponding balance upsert has
// committed, per the design's crash-replay-at-most-once-after ordering.
func (s *Store) MarkERC20BalancesParsed(ctx context.Context, keys [][2]any) error {
	for _, k := range keys {
		if _, err := s.pool.Exec(ctx,
			"UPDATE erc20_transfers SET erc20_balances_parsed = TRUE WHERE hash = $1 AND log_index = $2",
			k[0], k[1],
		); err != nil {
			return err
		}
	}
	return nil
}

// UpsertERC20Tokens persists token-metadata rows.
func (s *Store) UpsertERC20Tokens(ctx context.Context, tokens []domain.ERC20Token) error {
	rows := make([][]any, len(tokens))
	for i, t := range tokens {
		rows[i] = []any{t.Address, t.Chain, t.Name, t.Decimals, t.Symbol}
	}
	return s.bulkUpsert(ctx, erc20TokensSpec, rows)
}

// ERC20Balance returns the current (address, token, chain) balance row,
// or the zero-value twin counters if none exists yet.
func (s *Store) ERC20Balance(ctx context.Context, address, token, chain string) (domain.ERC20Balance, error) {
	bal := domain.ERC20Balance{Address: address, Token: token, Chain: chain, Sent: u256.Zero, Received: u256.Zero}
	err := s.pool.QueryRow(ctx,
		"SELECT sent, received FROM erc20_balances WHERE address = $1 AND token = $2 AND chain = $3",
		address, token, chain,
	).Scan(&bal.Sent, &bal.Received)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ERC20Balance{Address: address, Token: token, Chain: chain, Sent: u256.Zero, Received: u256.Zero}, nil
	}
	if err != nil {
		return domain.ERC20Balance{}, err
	}
	return bal, nil
}

// UpsertERC20Balance persists one balance row's twin counters.
func (s *Store) UpsertERC20Balance(ctx context.Context, bal domain.ERC20Balance) error {
	return s.bulkUpsert(ctx, erc20BalancesSpec, [][]any{
		{bal.Address, bal.Token, bal.Chain, bal.Sent, bal.Received},
	})
}
