// Package schema resolves collection attribute definitions into table
// schemas and translates attributes into physical columns.
package schema

import (
	"sort"
	"sync"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// Table is the resolved schema of one table.
type Table struct {
	name     string
	attrs    map[string]types.Attribute
	order    []string
	byColumn map[string]string

	pkOnce sync.Once
	pk     string
}

// scanPrimaryKey finds the primary-key attribute of t. Tests replace it
// to count scans.
var scanPrimaryKey = func(t *Table) string {
	for _, name := range t.order {
		if t.attrs[name].PrimaryKey {
			return name
		}
	}
	return types.DefaultPrimaryKey
}

// NewTable normalizes defs into a Table named name.
func NewTable(name string, defs map[string]types.Definition) *Table {
	attrs := make(map[string]types.Attribute, len(defs))
	for attr, def := range defs {
		attrs[attr] = def.Normalize()
	}
	return newTable(name, attrs)
}

func newTable(name string, attrs map[string]types.Attribute) *Table {
	t := &Table{
		name:     name,
		attrs:    attrs,
		order:    OrderedNames(attrs),
		byColumn: make(map[string]string, len(attrs)),
	}
	for _, attr := range t.order {
		t.byColumn[attrs[attr].Column(attr)] = attr
	}
	return t
}

// Name returns the physical table name.
func (t *Table) Name() string { return t.name }

// Names returns the attribute names in column order.
func (t *Table) Names() []string { return t.order }

// Attribute returns the attribute named name.
func (t *Table) Attribute(name string) (types.Attribute, bool) {
	a, ok := t.attrs[name]
	return a, ok
}

// Attributes returns the attribute map. Callers must not modify it.
func (t *Table) Attributes() map[string]types.Attribute { return t.attrs }

// ColumnOf returns the physical column of attribute name, or name itself
// for unknown attributes.
func (t *Table) ColumnOf(name string) string {
	if a, ok := t.attrs[name]; ok {
		return a.Column(name)
	}
	return name
}

// AttributeForColumn returns the attribute stored in column col, or nil.
func (t *Table) AttributeForColumn(col string) *types.Attribute {
	name, ok := t.byColumn[col]
	if !ok {
		return nil
	}
	a := t.attrs[name]
	return &a
}

// PrimaryKey returns the primary-key attribute name. It is computed on
// first use and cached.
func (t *Table) PrimaryKey() string {
	t.pkOnce.Do(func() {
		t.pk = scanPrimaryKey(t)
	})
	return t.pk
}

// Registry maps table names to table schemas for one connection. It is
// immutable after Build.
type Registry struct {
	tables map[string]*Table
}

// Build resolves every collection into a Table keyed by table name. A
// collection without a TableName uses its key; one without attributes
// gets an empty set.
func Build(collections map[string]types.Collection) *Registry {
	r := &Registry{tables: make(map[string]*Table, len(collections))}
	for key, c := range collections {
		name := c.TableName
		if name == "" {
			name = key
		}
		defs := c.Attributes
		if defs == nil {
			defs = map[string]types.Definition{}
		}
		r.tables[name] = NewTable(name, defs)
	}
	return r
}

// Table returns the schema of table name.
func (r *Registry) Table(name string) (*Table, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tables[name]
	return t, ok
}

// TableOrEmpty returns the schema of table name, or an empty schema when
// the table is not registered.
func (r *Registry) TableOrEmpty(name string) *Table {
	if t, ok := r.Table(name); ok {
		return t
	}
	return newTable(name, map[string]types.Attribute{})
}

// Tables returns the registered table names, sorted.
func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PrimaryKeyOf returns the primary-key attribute of table name, or the
// default when the table is not registered.
func (r *Registry) PrimaryKeyOf(name string) string {
	if t, ok := r.Table(name); ok {
		return t.PrimaryKey()
	}
	return types.DefaultPrimaryKey
}

// OrderedNames returns attribute names with primary keys first, then the
// rest, each group sorted by name.
func OrderedNames(attrs map[string]types.Attribute) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := attrs[names[i]].PrimaryKey, attrs[names[j]].PrimaryKey
		if pi != pj {
			return pi
		}
		return names[i] < names[j]
	})
	return names
}
