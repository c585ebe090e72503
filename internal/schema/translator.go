package schema

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/wlsqlite/internal/codec"
	"github.com/mesh-intelligence/wlsqlite/internal/ddl"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// kinds maps lower-cased semantic types to physical column kinds.
var kinds = map[string]string{
	"text":       ddl.KindText,
	"mediumtext": ddl.KindText,
	"longtext":   ddl.KindText,
	"string":     ddl.KindText,
	"json":       ddl.KindText,
	"array":      ddl.KindText,

	"boolean":     ddl.KindInteger,
	"serial":      ddl.KindInteger,
	"smallserial": ddl.KindInteger,
	"bigserial":   ddl.KindInteger,
	"int":         ddl.KindInteger,
	"integer":     ddl.KindInteger,
	"smallint":    ddl.KindInteger,
	"bigint":      ddl.KindInteger,
	"biginteger":  ddl.KindInteger,
	"datestamp":   ddl.KindInteger,
	"datetime":    ddl.KindInteger,
	"date":        ddl.KindInteger,

	"real":    ddl.KindReal,
	"float":   ddl.KindReal,
	"double":  ddl.KindReal,
	"decimal": ddl.KindReal,

	"binary": ddl.KindBinary,
	"bytea":  ddl.KindBinary,
}

// KindOf returns the physical kind of a semantic type and whether the
// type is recognized.
func KindOf(typ string) (string, bool) {
	k, ok := kinds[strings.ToLower(typ)]
	return k, ok
}

// Translator turns attribute definitions into columns and constraints.
type Translator struct {
	// Strict rejects unrecognized semantic types.
	Strict bool

	// Log receives translation anomalies. Nil uses the standard logger.
	Log log.FieldLogger
}

func (tr Translator) logger() log.FieldLogger {
	if tr.Log != nil {
		return tr.Log
	}
	return log.StandardLogger()
}

// ToColumn adds the column for attribute name to table.
func (tr Translator) ToColumn(table *ddl.Table, name string, attr types.Attribute) (*ddl.Column, error) {
	col := attr.Column(name)

	if attr.AutoIncrement {
		return table.Increments(col), nil
	}
	if attr.SQLType != "" {
		return table.SpecificType(col, attr.SQLType), nil
	}

	kind, ok := KindOf(attr.Type)
	if !ok {
		if tr.Strict {
			return nil, fmt.Errorf("attribute %s: %w %q", name, types.ErrUnknownType, attr.Type)
		}
		tr.logger().WithFields(log.Fields{
			"table":     table.Name(),
			"attribute": name,
			"type":      attr.Type,
		}).Warn("unregistered attribute type, using TEXT")
		kind = ddl.KindText
	}

	switch kind {
	case ddl.KindInteger:
		return table.Integer(col), nil
	case ddl.KindReal:
		return table.Real(col), nil
	case ddl.KindBinary:
		return table.Binary(col), nil
	default:
		return table.Text(col), nil
	}
}

// ApplyConstraints applies the column-level hints of attr to col.
// columnOf maps sibling attribute names to columns for composite unique
// hints.
func (tr Translator) ApplyConstraints(col *ddl.Column, attr types.Attribute, columnOf func(string) string) error {
	if attr.Index != nil {
		if attr.Index.Type != "" {
			tr.logger().WithFields(log.Fields{
				"column":    col.Name(),
				"indexType": attr.Index.Type,
			}).Debug("sqlite has a single index kind, ignoring index type")
		}
		col.Index(attr.Index.Name)
	}

	if attr.IsUnique() && !attr.PrimaryKey {
		siblings := make([]string, len(attr.Unique.Composite))
		for i, s := range attr.Unique.Composite {
			siblings[i] = columnOf(s)
		}
		col.Unique(siblings...)
	}

	if attr.NotNull {
		col.NotNullable()
	}

	if attr.DefaultsTo != nil && !(attr.AutoIncrement && attr.DefaultsTo == types.DefaultAutoIncrement) {
		enc, err := codec.Encode(attr.DefaultsTo)
		if err != nil {
			return fmt.Errorf("column %s default: %w", col.Name(), err)
		}
		lit, err := ddl.Literal(enc)
		if err != nil {
			return fmt.Errorf("column %s default: %w", col.Name(), err)
		}
		col.DefaultTo(lit)
	}

	for key := range attr.Extra {
		tr.logger().WithFields(log.Fields{
			"column":     col.Name(),
			"constraint": key,
		}).Warn("unknown constraint on column")
	}
	return nil
}

// ApplyTableConstraints declares every primary-key attribute of t as one
// (possibly composite) primary key.
func (tr Translator) ApplyTableConstraints(table *ddl.Table, t *Table) {
	var pks []string
	for _, name := range t.Names() {
		attr, _ := t.Attribute(name)
		if attr.PrimaryKey {
			pks = append(pks, attr.Column(name))
		}
	}
	if len(pks) > 0 {
		table.Primary(pks...)
	}
}

// CreateTable returns the statements creating t.
func (tr Translator) CreateTable(t *Table) ([]string, error) {
	var err error
	stmts := ddl.CreateTable(t.Name(), func(table *ddl.Table) {
		for _, name := range t.Names() {
			attr, _ := t.Attribute(name)
			col, cerr := tr.ToColumn(table, name, attr)
			if cerr != nil {
				err = cerr
				return
			}
			if cerr := tr.ApplyConstraints(col, attr, t.ColumnOf); cerr != nil {
				err = cerr
				return
			}
		}
		tr.ApplyTableConstraints(table, t)
	})
	if err != nil {
		return nil, err
	}
	return stmts, nil
}

// AddColumn returns the statements adding attribute name to table t.
func (tr Translator) AddColumn(t *Table, name string, attr types.Attribute) ([]string, error) {
	var err error
	stmts := ddl.AlterTable(t.Name(), func(table *ddl.Table) {
		col, cerr := tr.ToColumn(table, name, attr)
		if cerr != nil {
			err = cerr
			return
		}
		err = tr.ApplyConstraints(col, attr, t.ColumnOf)
	})
	if err != nil {
		return nil, err
	}
	return stmts, nil
}
