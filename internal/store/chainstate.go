package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// SetIndexedBlocksAmount upserts the running counter of heights known to
// be fully committed for chain. Called once per sync pass, not per block.
func (s *Store) SetIndexedBlocksAmount(ctx context.Context, chain string, amount int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chains_indexed_state (chain, indexed_blocks_amount) VALUES ($1, $2)
		 ON CONFLICT (chain) DO UPDATE SET indexed_blocks_amount = EXCLUDED.indexed_blocks_amount`,
		chain, amount,
	)
	return err
}

// IndexedBlocksAmount reads the counter back, defaulting to 0 for a chain
// that has never synced a block.
func (s *Store) IndexedBlocksAmount(ctx context.Context, chain string) (int64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx,
		"SELECT indexed_blocks_amount FROM chains_indexed_state WHERE chain = $1", chain,
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return amount, nil
}
