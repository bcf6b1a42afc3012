package store

import "context"

var contractsAdaptersSpec = upsertSpec{
	table:           "contracts_adapters",
	columns:         []string{"adapter_id", "chain", "address"},
	conflictColumns: []string{"address", "chain"},
}

// AdapterRecord is one (adapter_id, chain, address) row sourced from the
// adapter-fetcher's remote JSON endpoint.
type AdapterRecord struct {
	AdapterID string
	Chain     string
	Address   string
}

// UpsertAdapterRecords persists adapter-fetcher output. Conflict targets
// (address, chain), not (hash, log_index) as an earlier draft of this
// table's upsert clause referenced — those columns don't exist here.
func (s *Store) UpsertAdapterRecords(ctx context.Context, records []AdapterRecord) error {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.AdapterID, r.Chain, r.Address}
	}
	return s.bulkUpsert(ctx, contractsAdaptersSpec, rows)
}
