// Package ddl builds the CREATE, ALTER and DROP statements the adapter
// issues against SQLite. Column uniqueness and index hints are emitted as
// separate CREATE INDEX statements so that the same text is valid whether
// the column is created with its table or added later.
package ddl

import (
	"fmt"
	"strings"
)

// Physical column kinds.
const (
	KindText    = "TEXT"
	KindInteger = "INTEGER"
	KindReal    = "REAL"
	KindBinary  = "BLOB"
)

// Quote quotes an identifier, doubling embedded quote characters.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Literal renders a storage value as an SQL literal.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case []byte:
		return fmt.Sprintf("X'%X'", x), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case float32, float64:
		return fmt.Sprintf("%v", x), nil
	}
	return "", fmt.Errorf("unsupported literal type %T", v)
}

// Column is one column of a table being built.
type Column struct {
	table   *Table
	name    string
	kind    string
	serial  bool
	notNull bool
	def     *string
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the physical column type.
func (c *Column) Kind() string { return c.kind }

// NotNullable marks the column NOT NULL.
func (c *Column) NotNullable() *Column {
	c.notNull = true
	return c
}

// DefaultTo sets the column default to the given literal.
func (c *Column) DefaultTo(literal string) *Column {
	c.def = &literal
	return c
}

// Index adds a plain index over the column. An empty name is generated
// from the table and column names.
func (c *Column) Index(name string) *Column {
	c.table.addIndex(name, false, []string{c.name})
	return c
}

// Unique adds a unique index over the column and any sibling columns.
func (c *Column) Unique(siblings ...string) *Column {
	c.table.addIndex("", true, append([]string{c.name}, siblings...))
	return c
}

func (c *Column) String() string {
	var b strings.Builder
	b.WriteString(Quote(c.name))
	b.WriteByte(' ')
	b.WriteString(c.kind)
	if c.serial {
		b.WriteString(" PRIMARY KEY AUTOINCREMENT")
	}
	if c.notNull {
		b.WriteString(" NOT NULL")
	}
	if c.def != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(*c.def)
	}
	return b.String()
}

type index struct {
	name    string
	unique  bool
	columns []string
}

// Table collects the columns, constraints and indexes of one CREATE or
// ALTER TABLE operation.
type Table struct {
	name    string
	columns []*Column
	primary []string
	indexes []index
	drops   []string
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Text adds a TEXT column.
func (t *Table) Text(name string) *Column { return t.add(name, KindText) }

// Integer adds an INTEGER column.
func (t *Table) Integer(name string) *Column { return t.add(name, KindInteger) }

// Real adds a REAL column.
func (t *Table) Real(name string) *Column { return t.add(name, KindReal) }

// Binary adds a BLOB column.
func (t *Table) Binary(name string) *Column { return t.add(name, KindBinary) }

// SpecificType adds a column with a verbatim engine type.
func (t *Table) SpecificType(name, typ string) *Column { return t.add(name, typ) }

// Increments adds an auto-incrementing INTEGER PRIMARY KEY column.
func (t *Table) Increments(name string) *Column {
	c := t.add(name, KindInteger)
	c.serial = true
	return c
}

// Primary declares the table primary key. Columns already declared
// inline by Increments are skipped.
func (t *Table) Primary(columns ...string) {
	t.primary = append(t.primary, columns...)
}

// DropColumn removes a column. Only valid in AlterTable.
func (t *Table) DropColumn(name string) {
	t.drops = append(t.drops, name)
}

// Columns returns the columns added so far.
func (t *Table) Columns() []*Column { return t.columns }

func (t *Table) add(name, kind string) *Column {
	c := &Column{table: t, name: name, kind: kind}
	t.columns = append(t.columns, c)
	return c
}

func (t *Table) addIndex(name string, unique bool, columns []string) {
	if name == "" {
		suffix := "index"
		if unique {
			suffix = "unique"
		}
		parts := make([]string, 0, len(columns)+2)
		parts = append(parts, t.name)
		parts = append(parts, columns...)
		name = strings.Join(append(parts, suffix), "_")
	}
	t.indexes = append(t.indexes, index{name: name, unique: unique, columns: columns})
}

func (t *Table) hasSerial() bool {
	for _, c := range t.columns {
		if c.serial {
			return true
		}
	}
	return false
}

func (t *Table) indexStatements() []string {
	stmts := make([]string, 0, len(t.indexes))
	for _, idx := range t.indexes {
		cols := make([]string, len(idx.columns))
		for i, c := range idx.columns {
			cols[i] = Quote(c)
		}
		kw := "CREATE INDEX"
		if idx.unique {
			kw = "CREATE UNIQUE INDEX"
		}
		stmts = append(stmts, fmt.Sprintf("%s %s ON %s (%s)",
			kw, Quote(idx.name), Quote(t.name), strings.Join(cols, ", ")))
	}
	return stmts
}

// CreateTable returns the statements that create table name as described
// by fn, in execution order.
func CreateTable(name string, fn func(*Table)) []string {
	t := &Table{name: name}
	fn(t)

	defs := make([]string, 0, len(t.columns)+1)
	for _, c := range t.columns {
		defs = append(defs, c.String())
	}
	if len(t.primary) > 0 && !t.hasSerial() {
		cols := make([]string, len(t.primary))
		for i, c := range t.primary {
			cols[i] = Quote(c)
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(cols, ", ")+")")
	}

	stmts := []string{fmt.Sprintf("CREATE TABLE %s (%s)", Quote(name), strings.Join(defs, ", "))}
	return append(stmts, t.indexStatements()...)
}

// AlterTable returns the statements that apply fn's column additions and
// removals to table name, in execution order.
func AlterTable(name string, fn func(*Table)) []string {
	t := &Table{name: name}
	fn(t)

	var stmts []string
	for _, c := range t.drops {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", Quote(name), Quote(c)))
	}
	for _, c := range t.columns {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", Quote(name), c.String()))
	}
	return append(stmts, t.indexStatements()...)
}

// DropTableIfExists returns the statement that drops table name.
func DropTableIfExists(name string) string {
	return "DROP TABLE IF EXISTS " + Quote(name)
}
