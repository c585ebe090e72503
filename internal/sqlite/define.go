package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/wlsqlite/internal/ddl"
	"github.com/mesh-intelligence/wlsqlite/internal/schema"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

const describeColumns = `SELECT "name", "type", "pk" FROM pragma_table_info($1)`

// describeIndexes lists one row per indexed column with the width of the
// index it belongs to.
const describeIndexes = `SELECT ii."name" AS "column", il."unique" AS "unique",
	(SELECT COUNT(*) FROM pragma_index_info(il."name")) AS "width"
FROM pragma_index_list($1) AS il, pragma_index_info(il."name") AS ii`

// Describe reports the physical columns of table keyed by column name.
// Primary-key columns are always indexed and unique, whether or not they
// alias the rowid. It returns nil, without error, when the table does not
// exist.
func (a *Adapter) Describe(ctx context.Context, identity, table string) (map[string]types.ColumnDescription, error) {
	c, err := a.conn(identity)
	if err != nil {
		return nil, err
	}

	cols, err := c.query(ctx, c.db, "", describeColumns, []any{table})
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}

	desc := make(map[string]types.ColumnDescription, len(cols))
	for _, row := range cols {
		name, _ := row["name"].(string)
		typ, _ := row["type"].(string)
		pk := toInt64(row["pk"]) > 0
		desc[name] = types.ColumnDescription{
			PrimaryKey: pk,
			Type:       strings.ToUpper(typ),
			Indexed:    pk,
			Unique:     pk,
		}
	}

	idx, err := c.query(ctx, c.db, "", describeIndexes, []any{table})
	if err != nil {
		return nil, err
	}
	for _, row := range idx {
		name, _ := row["column"].(string)
		d, ok := desc[name]
		if !ok {
			continue
		}
		d.Indexed = true
		if toInt64(row["unique"]) == 1 && toInt64(row["width"]) == 1 {
			d.Unique = true
		}
		desc[name] = d
	}
	return desc, nil
}

// Define creates table from defs, with its indexes, in one transaction.
func (a *Adapter) Define(ctx context.Context, identity, table string, defs map[string]types.Definition) error {
	c, err := a.conn(identity)
	if err != nil {
		return err
	}
	stmts, err := c.translator.CreateTable(schema.NewTable(table, defs))
	if err != nil {
		return fmt.Errorf("defining %s: %w", table, err)
	}
	return c.execAll(ctx, stmts)
}

// AddAttribute adds column name to table.
func (a *Adapter) AddAttribute(ctx context.Context, identity, table, name string, def types.Definition) error {
	c, err := a.conn(identity)
	if err != nil {
		return err
	}
	stmts, err := c.translator.AddColumn(c.schema.TableOrEmpty(table), name, def.Normalize())
	if err != nil {
		return fmt.Errorf("adding %s.%s: %w", table, name, err)
	}
	return c.execAll(ctx, stmts)
}

// RemoveAttribute drops the column of attribute name from table.
func (a *Adapter) RemoveAttribute(ctx context.Context, identity, table, name string) error {
	c, err := a.conn(identity)
	if err != nil {
		return err
	}
	column := c.schema.TableOrEmpty(table).ColumnOf(name)
	return c.execAll(ctx, ddl.AlterTable(table, func(t *ddl.Table) {
		t.DropColumn(column)
	}))
}

// Drop removes table if it exists.
func (a *Adapter) Drop(ctx context.Context, identity, table string) error {
	c, err := a.conn(identity)
	if err != nil {
		return err
	}
	return c.execAll(ctx, []string{ddl.DropTableIfExists(table)})
}

func (c *connection) execAll(ctx context.Context, stmts []string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := c.exec(ctx, tx, stmt, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
	}
	return 0
}
