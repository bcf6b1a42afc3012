package store

import (
	"context"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

var transactionsSpec = upsertSpec{
	table: "transactions",
	columns: []string{
		"hash", "block_hash", "block_number", "chain", "from_address", "to_address",
		"value", "gas", "gas_price", "max_fee_per_gas", "max_priority_fee_per_gas",
		"nonce", "transaction_index", "transaction_type", "input", "method", "timestamp",
	},
	conflictColumns: []string{"hash"},
}

// UpsertTransactions persists transactions, the second write of a chunk's
// commit order (contracts were already written so their foreign rows
// exist before a crash could observe a transaction pointing at nothing).
func (s *Store) UpsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	rows := make([][]any, len(txs))
	for i, t := range txs {
		rows[i] = []any{
			t.Hash, t.BlockHash, t.BlockNumber, t.Chain, t.FromAddress, t.ToAddress,
			t.Value, t.Gas, t.GasPrice, t.MaxFeePerGas, t.MaxPriorityFeePerGas,
			t.Nonce, t.TransactionIndex, t.TransactionType, t.Input, t.Method, t.Timestamp,
		}
	}
	return s.bulkUpsert(ctx, transactionsSpec, rows)
}

// TransactionCountAtHeight returns how many transaction rows are recorded
// for (chain, height), used by invariant checks and tests.
func (s *Store) TransactionCountAtHeight(ctx context.Context, chain string, height int64) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM transactions WHERE chain = $1 AND block_number = $2",
		chain, height,
	).Scan(&count)
	return count, err
}
