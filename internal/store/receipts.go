package store

import (
	"context"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

var receiptsSpec = upsertSpec{
	table: "transactions_receipts",
	columns: []string{
		"hash", "contract_address", "cumulative_gas_used", "effective_gas_price",
		"gas_used", "status",
	},
	conflictColumns: []string{"hash"},
}

// UpsertReceipts persists receipts, the third write of a chunk's commit
// order, after contracts and transactions.
func (s *Store) UpsertReceipts(ctx context.Context, receipts []domain.Receipt) error {
	rows := make([][]any, len(receipts))
	for i, r := range receipts {
		rows[i] = []any{
			r.Hash, r.ContractAddress, r.CumulativeGasUsed, r.EffectiveGasPrice,
			r.GasUsed, r.Status,
		}
	}
	return s.bulkUpsert(ctx, receiptsSpec, rows)
}
