package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyRows bulk-inserts rows with the COPY protocol.
// It must run inside a transaction so that a failed copy leaves nothing behind.
func (m *TxManager) CopyRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	t := m.txFrom(ctx)
	if t == nil {
		return 0, fmt.Errorf("copy into %s requires a transaction", table)
	}

	n, err := t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// ExecBatch sends statements in one round trip and stops at the first failure.
func (m *TxManager) ExecBatch(ctx context.Context, stmts []Statement) error {
	if len(stmts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range stmts {
		batch.Queue(s.SQL, s.Args...)
	}

	var results pgx.BatchResults
	if t := m.txFrom(ctx); t != nil {
		results = t.SendBatch(ctx, batch)
	} else {
		results = m.pool.SendBatch(ctx, batch)
	}
	defer results.Close()

	for i := range stmts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return nil
}

// Statement is one queued SQL statement.
type Statement struct {
	SQL  string
	Args []any
}
