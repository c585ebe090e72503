package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/wlsqlite/internal/codec"
	"github.com/mesh-intelligence/wlsqlite/internal/sqlerr"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// execQuerier is satisfied by both *sql.DB and *sql.Tx. Work inside a
// transaction must go through the *sql.Tx: the handle holds a single
// connection, so using the *sql.DB there would wait forever.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Query runs raw SQL on identity. Placeholders may be written $1..$N or
// ?. Values are encoded for storage and every returned row is decoded
// against the schema of table; pass an empty table to skip decoding.
func (a *Adapter) Query(ctx context.Context, identity, table, query string, values []any) ([]types.Record, error) {
	c, err := a.conn(identity)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, c.db, table, query, values)
}

func (c *connection) query(ctx context.Context, eq execQuerier, table, query string, values []any) ([]types.Record, error) {
	q, args, err := c.prepare(query, values)
	if err != nil {
		return nil, err
	}

	rows, err := eq.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, sqlerr.Wrap(err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, sqlerr.Wrap(err)
	}

	t := c.schema.TableOrEmpty(table)
	for i, row := range records {
		decoded, err := codec.DecodeRecord(row, t.AttributeForColumn)
		if err != nil {
			return nil, fmt.Errorf("decoding %s row: %w", table, err)
		}
		records[i] = decoded
	}
	return records, nil
}

func (c *connection) exec(ctx context.Context, eq execQuerier, query string, values []any) (sql.Result, error) {
	q, args, err := c.prepare(query, values)
	if err != nil {
		return nil, err
	}
	res, err := eq.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, sqlerr.Wrap(err)
	}
	return res, nil
}

// prepare rewrites placeholders and encodes values for the driver.
func (c *connection) prepare(query string, values []any) (string, []any, error) {
	q, args, err := RewritePlaceholders(query, values)
	if err != nil {
		return "", nil, err
	}
	encoded, err := codec.EncodeAll(args)
	if err != nil {
		return "", nil, fmt.Errorf("encoding values: %w", err)
	}
	if c.config.Debug {
		c.log.WithFields(log.Fields{"sql": q, "args": encoded}).Info("query")
	}
	return q, encoded, nil
}

// withTx runs fn in a transaction, committing when fn succeeds and rolling
// back otherwise.
func (c *connection) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return sqlerr.Wrap(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return sqlerr.Wrap(tx.Commit())
}

// RewritePlaceholders replaces numbered $N placeholders with positional ?
// and returns values reordered to match their textual order. Placeholders
// inside quoted literals and identifiers are left alone. A query without
// numbered placeholders is returned unchanged with values as given.
func RewritePlaceholders(query string, values []any) (string, []any, error) {
	if !strings.Contains(query, "$") {
		return query, values, nil
	}

	var (
		out   strings.Builder
		args  []any
		quote byte
		found bool
	)
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			out.WriteByte(ch)
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
			out.WriteByte(ch)
			continue
		case '$':
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j == i+1 {
				out.WriteByte(ch)
				continue
			}
			n, _ := strconv.Atoi(query[i+1 : j])
			if n < 1 || n > len(values) {
				return "", nil, fmt.Errorf("placeholder $%d out of range: %d values", n, len(values))
			}
			args = append(args, values[n-1])
			out.WriteByte('?')
			found = true
			i = j - 1
			continue
		}
		out.WriteByte(ch)
	}
	if !found {
		return query, values, nil
	}
	return out.String(), args, nil
}

// scanRows reads every row into a Record keyed by column name. The result
// is empty, never nil, when there are no rows.
func scanRows(rows *sql.Rows) ([]types.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []types.Record{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(types.Record, len(cols))
		for i, col := range cols {
			rec[col] = vals[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
