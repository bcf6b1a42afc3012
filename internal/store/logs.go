package store

import (
	"context"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

var logsSpec = upsertSpec{
	table: "logs",
	columns: []string{
		"hash", "log_index", "address", "chain", "topics", "data", "removed",
		"erc20_transfers_parsed", "nft_transfers_parsed",
	},
	conflictColumns: []string{"hash", "log_index"},
}

// UpsertLogs persists logs, the fourth write of a chunk's commit order —
// after receipts, since a log row only makes sense once its parent
// receipt exists.
func (s *Store) UpsertLogs(ctx context.Context, logs []domain.Log) error {
	rows := make([][]any, len(logs))
	for i, l := range logs {
		rows[i] = []any{
			l.Hash, l.LogIndex, l.Address, l.Chain, l.Topics, l.Data, l.Removed,
			l.ERC20TransfersParsed, l.NFTTransfersParsed,
		}
	}
	return s.bulkUpsert(ctx, logsSpec, rows)
}

// UnparsedERC20Logs returns up to limit logs for chain whose
// erc20_transfers_parsed flag is still false, for the ERC-20 transfer
// decoder worker's batch pull.
func (s *Store) UnparsedERC20Logs(ctx context.Context, chain string, limit int) ([]domain.Log, error) {
	return s.queryLogs(ctx,
		"SELECT hash, log_index, address, chain, topics, data, removed, erc20_transfers_parsed, nft_transfers_parsed FROM logs WHERE chain = $1 AND erc20_transfers_parsed = FALSE LIMIT $2",
		chain, limit,
	)
}

// UnparsedNFTLogs is UnparsedERC20Logs's NFT-transfer-decoder counterpart.
func (s *Store) UnparsedNFTLogs(ctx context.Context, chain string, limit int) ([]domain.Log, error) {
	return s.queryLogs(ctx,
		"SELECT hash, log_index, address, chain, topics, data, removed, erc20_transfers_parsed, nft_transfers_parsed FROM logs WHERE chain = $1 AND nft_transfers_parsed = FALSE LIMIT $2",
		chain, limit,
	)
}

func (s *Store) queryLogs(ctx context.Context, query string, args ...any) ([]domain.Log, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Log
	for rows.Next() {
		var l domain.Log
		if err := rows.Scan(
			&l.Hash, &l.LogIndex, &l.Address, &l.Chain, &l.Topics, &l.Data, &l.Removed,
			&l.ERC20TransfersParsed, &l.NFTTransfersParsed,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MarkERC20TransfersParsed flags a batch of logs as having had the ERC-20
// transfer decoder run over them, regardless of whether a row was derived.
func (s *Store) MarkERC20TransfersParsed(ctx context.Context, keys [][2]any) error {
	return s.markLogsParsed(ctx, "erc20_transfers_parsed", keys)
}

// MarkNFTTransfersParsed is MarkERC20TransfersParsed's NFT counterpart.
func (s *Store) MarkNFTTransfersParsed(ctx context.Context, keys [][2]any) error {
	return s.markLogsParsed(ctx, "nft_transfers_parsed", keys)
}

func (s *Store) markLogsParsed(ctx context.Context, column string, keys [][2]any) error {
	for _, k := range keys {
		_, err := s.pool.Exec(ctx,
			"UPDATE logs SET "+column+" = TRUE WHERE hash = $1 AND log_index = $2",
			k[0], k[1],
		)
		if err != nil {
			return err
		}
	}
	return nil
}
