package store

import (
	"context"

	"github.com/csic-platform/evm-indexer/internal/domain"
)

var contractsSpec = upsertSpec{
	table:           "contracts",
	columns:         []string{"hash", "block", "chain", "contract", "creator", "parsed", "verified"},
	conflictColumns: []string{"hash"},
}

var contractsInformationSpec = upsertSpec{
	table:           "contracts_information",
	columns:         []string{"chain", "contract", "abi", "name", "verified"},
	conflictColumns: []string{"chain", "contract"},
}

// UpsertContracts persists contract-deployment rows, the first write of a
// chunk's commit order — every other table in the chunk can reference a
// contract address, so it goes down before anything else.
func (s *Store) UpsertContracts(ctx context.Context, contracts []domain.Contract) error {
	rows := make([][]any, len(contracts))
	for i, c := range contracts {
		rows[i] = []any{c.Hash, c.Block, c.Chain, c.Contract, c.Creator, c.Parsed, c.Verified}
	}
	return s.bulkUpsert(ctx, contractsSpec, rows)
}

// UnparsedContracts returns up to limit contracts awaiting an ABI-fetch
// attempt, for the ABI fetcher's poll loop.
func (s *Store) UnparsedContracts(ctx context.Context, chain string, limit int) ([]domain.Contract, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT hash, block, chain, contract, creator, parsed, verified FROM contracts WHERE chain = $1 AND parsed = FALSE LIMIT $2",
		chain, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contract
	for rows.Next() {
		var c domain.Contract
		if err := rows.Scan(&c.Hash, &c.Block, &c.Chain, &c.Contract, &c.Creator, &c.Parsed, &c.Verified); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkContractParsed sets a contract's parsed flag and its verified flag
// after a conclusive ABI-fetch outcome (verified, or confirmed unverified).
func (s *Store) MarkContractParsed(ctx context.Context, hash string, verified bool) error {
	_, err := s.pool.Exec(ctx, "UPDATE contracts SET parsed = TRUE, verified = $2 WHERE hash = $1", hash, verified)
	return err
}

// UpsertContractInformation persists a fetched ABI (or the lack of one).
func (s *Store) UpsertContractInformation(ctx context.Context, info domain.ContractInformation) error {
	return s.bulkUpsert(ctx, contractsInformationSpec, [][]any{
		{info.Chain, info.Contract, info.ABI, info.Name, info.Verified},
	})
}
