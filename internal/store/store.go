// Package store is the relational persistence layer: one pgxpool-backed
// connection pool, a DDL bootstrap, and a chunked bulk-upsert helper that
// every entity-specific file in this package builds on. Every write is an
// UPSERT on the entity's natural key, per the design's idempotence
// substrate — no transactional boundary spans more than one chunk.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csic-platform/evm-indexer/internal/ierrors"
)

// maxParameters is Postgres's hard limit on bound parameters per statement.
const maxParameters = 65535

// Store wraps the shared connection pool. One Store is constructed per
// process and handed to every component that persists state.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and applies the bootstrap DDL. The pool's
// MaxConns is sized generously (500) since every sync-chunk task and every
// extractor worker borrows a connection independently; see the design's
// concurrency model.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, &ierrors.ConfigError{Msg: "malformed DATABASE_URL", Cause: err}
	}
	if cfg.MaxConns < 500 {
		cfg.MaxConns = 500
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &ierrors.ConfigError{Msg: "connect to postgres", Cause: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ierrors.ConfigError{Msg: "ping postgres", Cause: err}
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, &ierrors.ConfigError{Msg: "apply schema", Cause: err}
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// upsertSpec describes one entity's bulk-upsert shape: its table, the
// column order every row tuple follows, and which columns form the
// natural key the ON CONFLICT clause targets.
type upsertSpec struct {
	table           string
	columns         []string
	conflictColumns []string
}

// chunkSize returns the largest row count whose column count stays under
// the parameter budget, per the design's `floor(P/C)` chunking rule.
func chunkSize(numColumns int) int {
	if numColumns == 0 {
		return 0
	}
	return maxParameters / numColumns
}

// updateColumns returns every column not part of the conflict key, for the
// DO UPDATE SET clause.
func (s upsertSpec) updateColumns() []string {
	conflict := make(map[string]struct{}, len(s.conflictColumns))
	for _, c := range s.conflictColumns {
		conflict[c] = struct{}{}
	}
	var out []string
	for _, c := range s.columns {
		if _, skip := conflict[c]; !skip {
			out = append(out, c)
		}
	}
	return out
}

// bulkUpsert issues one parameterized INSERT ... ON CONFLICT statement per
// chunk of rows, each chunk sized to stay under Postgres's 65,535 bound
// parameter ceiling. rows are already in spec.columns order.
func (s *Store) bulkUpsert(ctx context.Context, spec upsertSpec, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	size := chunkSize(len(spec.columns))
	if size == 0 {
		return fmt.Errorf("store: upsert spec for %s has no columns", spec.table)
	}

	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.execChunk(ctx, spec, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) execChunk(ctx context.Context, spec upsertSpec, chunk [][]any) error {
	numCols := len(spec.columns)
	args := make([]any, 0, len(chunk)*numCols)

	var valuesClause strings.Builder
	for i, row := range chunk {
		if i > 0 {
			valuesClause.WriteString(", ")
		}
		valuesClause.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				valuesClause.WriteByte(',')
			}
			args = append(args, v)
			fmt.Fprintf(&valuesClause, "$%d", len(args))
		}
		valuesClause.WriteByte(')')
	}

	update := spec.updateColumns()
	var setClause strings.Builder
	for i, c := range update {
		if i > 0 {
			setClause.WriteString(", ")
		}
		fmt.Fprintf(&setClause, "%s = EXCLUDED.%s", c, c)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s)",
		spec.table,
		strings.Join(spec.columns, ", "),
		valuesClause.String(),
		strings.Join(spec.conflictColumns, ", "),
	)
	if len(update) == 0 {
		query += " DO NOTHING"
	} else {
		query += fmt.Sprintf(" DO UPDATE SET %s", setClause.String())
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("store: upsert into %s: %w", spec.table, err)
	}
	return nil
}
