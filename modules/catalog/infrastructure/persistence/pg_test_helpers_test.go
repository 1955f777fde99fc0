package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type beginnerFunc func(ctx context.Context) (pgx.Tx, error)

func (f beginnerFunc) Begin(ctx context.Context) (pgx.Tx, error) { return f(ctx) }

type stubTx struct {
	execErr   error
	execErrAt int
	execN     int
	execSQLs  []string
	execTags  []string

	queryErr  error
	queryN    int
	queryArgs [][]any
	rows      [][][]any

	rowErr  error
	rowN    int
	rowArgs [][]any
	row     [][]any

	commitErr error
	committed bool
}

func (t *stubTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *stubTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}
func (t *stubTx) Rollback(context.Context) error { return nil }
func (t *stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Conn() *pgx.Conn { return nil }

func (t *stubTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execSQLs = append(t.execSQLs, sql)
	t.execN++
	if t.execErr != nil {
		at := t.execErrAt
		if at == 0 {
			at = 1
		}
		if t.execN == at {
			return pgconn.CommandTag{}, t.execErr
		}
	}
	if i := t.execN - 1; i < len(t.execTags) {
		return pgconn.NewCommandTag(t.execTags[i]), nil
	}
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	t.queryN++
	t.queryArgs = append(t.queryArgs, args)
	if t.queryErr != nil {
		return nil, t.queryErr
	}
	if i := t.queryN - 1; i < len(t.rows) {
		return &valueRows{vals: t.rows[i]}, nil
	}
	return &valueRows{}, nil
}

func (t *stubTx) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	t.rowN++
	t.rowArgs = append(t.rowArgs, args)
	if t.rowErr != nil {
		return stubRow{err: t.rowErr}
	}
	if i := t.rowN - 1; i < len(t.row) {
		return stubRow{vals: t.row[i]}
	}
	return stubRow{err: pgx.ErrNoRows}
}

type stubRow struct {
	vals []any
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.vals, dest)
}

type valueRows struct {
	vals    [][]any
	idx     int
	scanErr error
	err     error
}

func (r *valueRows) Close()                        {}
func (r *valueRows) Err() error                    { return r.err }
func (r *valueRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *valueRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}
func (r *valueRows) Next() bool {
	if r.idx >= len(r.vals) {
		return false
	}
	r.idx++
	return true
}
func (r *valueRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	return assign(r.vals[r.idx-1], dest)
}
func (r *valueRows) Values() ([]any, error) { return nil, nil }
func (r *valueRows) RawValues() [][]byte    { return nil }
func (r *valueRows) Conn() *pgx.Conn        { return nil }

func assign(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values for %d targets", len(vals), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = vals[i].(string)
		case *int:
			*p = vals[i].(int)
		case *int64:
			*p = vals[i].(int64)
		case *bool:
			*p = vals[i].(bool)
		case *time.Time:
			*p = vals[i].(time.Time)
		default:
			return errors.New("unsupported scan type")
		}
	}
	return nil
}
