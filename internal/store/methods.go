package store

import (
	"context"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

var methodsSpec = upsertSpec{
	table:           "methods",
	columns:         []string{"method", "name"},
	conflictColumns: []string{"method"},
}

// UpsertMethods persists one row per function entry parsed out of a
// fetched ABI, keyed by its 4-byte selector.
func (s *Store) UpsertMethods(ctx context.Context, methods []domain.Method) error {
	rows := make([][]any, len(methods))
	for i, m := range methods {
		rows[i] = []any{m.Method, m.Name}
	}
	return s.bulkUpsert(ctx, methodsSpec, rows)
}
