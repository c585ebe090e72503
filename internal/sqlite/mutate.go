package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/wlsqlite/internal/ddl"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// Create inserts values into table and returns the stored row, including
// any engine-assigned key and defaults.
func (a *Adapter) Create(ctx context.Context, identity, table string, values types.Record) (types.Record, error) {
	c, err := a.conn(identity)
	if err != nil {
		return nil, err
	}

	t := c.schema.TableOrEmpty(table)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var query string
	args := make([]any, len(keys))
	if len(keys) == 0 {
		query = "INSERT INTO " + ddl.Quote(table) + " DEFAULT VALUES"
	} else {
		cols := make([]string, len(keys))
		ph := make([]string, len(keys))
		for i, k := range keys {
			cols[i] = ddl.Quote(t.ColumnOf(k))
			ph[i] = "$" + strconv.Itoa(i+1)
			args[i] = values[k]
		}
		query = "INSERT INTO " + ddl.Quote(table) +
			" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")"
	}

	var created types.Record
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		res, err := c.exec(ctx, tx, query, args)
		if err != nil {
			return err
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading inserted row id: %w", err)
		}
		rows, err := c.query(ctx, tx, table,
			"SELECT * FROM "+ddl.Quote(table)+" WHERE rowid = $1", []any{rowid})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("inserted row %d of %s not found", rowid, table)
		}
		created = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Find returns the rows of table matching c. No match is an empty slice.
func (a *Adapter) Find(ctx context.Context, identity, table string, c types.Criteria) ([]types.Record, error) {
	conn, err := a.conn(identity)
	if err != nil {
		return nil, err
	}
	return conn.find(ctx, conn.db, table, c)
}

func (c *connection) find(ctx context.Context, eq execQuerier, table string, cr types.Criteria) ([]types.Record, error) {
	st, err := c.compiler.Find(table, cr)
	if err != nil {
		return nil, fmt.Errorf("compiling find on %s: %w", table, err)
	}
	return c.query(ctx, eq, table, st.Query, st.Values)
}

// Update applies patch to the rows of table matching c and returns those
// rows as they are after the update. Rows are identified before the
// update runs, so a patch that changes the filtered columns still
// returns every row it touched. Nothing matching is an empty slice and
// issues no UPDATE.
func (a *Adapter) Update(ctx context.Context, identity, table string, c types.Criteria, patch types.Record) ([]types.Record, error) {
	conn, err := a.conn(identity)
	if err != nil {
		return nil, err
	}

	where, err := conn.compiler.SimpleWhere(table, c.Where)
	if err != nil {
		return nil, fmt.Errorf("compiling update on %s: %w", table, err)
	}
	st, err := conn.compiler.Update(table, c, patch)
	if err != nil {
		return nil, fmt.Errorf("compiling update on %s: %w", table, err)
	}

	updated := []types.Record{}
	err = conn.withTx(ctx, func(tx *sql.Tx) error {
		ids, err := conn.query(ctx, tx, "",
			`SELECT rowid AS "rowid" FROM `+ddl.Quote(table)+where.Query, where.Values)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if _, err := conn.exec(ctx, tx, st.Query, st.Values); err != nil {
			return err
		}

		// The ids travel as one JSON array so the statement binds a single
		// variable however many rows matched.
		rowids := make([]int64, len(ids))
		for i, row := range ids {
			rowids[i] = toInt64(row["rowid"])
		}
		list, err := json.Marshal(rowids)
		if err != nil {
			return fmt.Errorf("encoding row ids: %w", err)
		}
		rows, err := conn.query(ctx, tx, table,
			"SELECT * FROM "+ddl.Quote(table)+" WHERE rowid IN (SELECT value FROM json_each($1))",
			[]any{string(list)})
		if err != nil {
			return err
		}
		updated = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Destroy deletes the rows of table matching c and returns them as they
// were before deletion.
func (a *Adapter) Destroy(ctx context.Context, identity, table string, c types.Criteria) ([]types.Record, error) {
	conn, err := a.conn(identity)
	if err != nil {
		return nil, err
	}
	st, err := conn.compiler.Destroy(table, c)
	if err != nil {
		return nil, fmt.Errorf("compiling destroy on %s: %w", table, err)
	}

	var destroyed []types.Record
	err = conn.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := conn.find(ctx, tx, table, types.Criteria{Where: c.Where})
		if err != nil {
			return err
		}
		if _, err := conn.exec(ctx, tx, st.Query, st.Values); err != nil {
			return err
		}
		destroyed = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return destroyed, nil
}

// Count returns the number of rows of table matching c.
func (a *Adapter) Count(ctx context.Context, identity, table string, c types.Criteria) (int64, error) {
	conn, err := a.conn(identity)
	if err != nil {
		return 0, err
	}
	st, err := conn.compiler.Count(table, c)
	if err != nil {
		return 0, fmt.Errorf("compiling count on %s: %w", table, err)
	}
	rows, err := conn.query(ctx, conn.db, "", st.Query, st.Values)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
}

// Join finds the rows of table matching c and populates the associations
// named by instructions.
func (a *Adapter) Join(ctx context.Context, identity, table string, c types.Criteria, instructions []types.JoinInstruction) ([]types.Record, error) {
	conn, err := a.conn(identity)
	if err != nil {
		return nil, err
	}
	return a.populate(ctx, finder{conn}, table, c, instructions)
}

// finder binds the find and primary-key capabilities to one connection.
type finder struct {
	c *connection
}

func (f finder) Find(ctx context.Context, table string, c types.Criteria) ([]types.Record, error) {
	return f.c.find(ctx, f.c.db, table, c)
}

func (f finder) PrimaryKeyOf(table string) string {
	return f.c.schema.PrimaryKeyOf(table)
}
