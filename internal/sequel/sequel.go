// Package sequel compiles abstract criteria into parameterized SQLite
// statements. Placeholders are numbered ($1..$N) in the order their
// values appear in Statement.Values.
package sequel

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/wlsqlite/internal/schema"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// ErrEmptyPatch is returned by Update when there is nothing to set.
var ErrEmptyPatch = errors.New("update has no values")

// Options configures a Compiler.
type Options struct {
	// EscapeCharacter quotes identifiers. Defaults to a double quote.
	EscapeCharacter string

	// CaseSensitive compares strings exactly. When false, string
	// equality and LIKE are applied to LOWER() of both sides.
	CaseSensitive bool

	// CanReturnValues appends RETURNING * to UPDATE statements.
	CanReturnValues bool
}

// DefaultOptions are the options the adapter compiles with.
var DefaultOptions = Options{
	EscapeCharacter: `"`,
	CaseSensitive:   true,
	CanReturnValues: false,
}

// Compiler turns criteria into statements against the tables of one
// schema registry.
type Compiler struct {
	schema *schema.Registry
	opts   Options
}

// New returns a Compiler over registry r.
func New(r *schema.Registry, opts Options) *Compiler {
	if opts.EscapeCharacter == "" {
		opts.EscapeCharacter = `"`
	}
	return &Compiler{schema: r, opts: opts}
}

// Find compiles a SELECT.
func (c *Compiler) Find(table string, cr types.Criteria) (types.Statement, error) {
	b := c.builder(table)

	sel := "*"
	if len(cr.Select) > 0 {
		cols := make([]string, len(cr.Select))
		for i, attr := range cr.Select {
			cols[i] = b.column(attr)
		}
		sel = strings.Join(cols, ", ")
	}

	b.sql.WriteString("SELECT " + sel + " FROM " + c.quote(table))
	if err := b.writeWhere(cr.Where); err != nil {
		return types.Statement{}, err
	}
	b.writeSort(cr.Sort)
	b.writeLimit(cr.Limit, cr.Skip)
	return b.statement(), nil
}

// Count compiles a SELECT COUNT(*) whose single column is named count.
func (c *Compiler) Count(table string, cr types.Criteria) (types.Statement, error) {
	b := c.builder(table)
	b.sql.WriteString("SELECT COUNT(*) AS " + c.quote("count") + " FROM " + c.quote(table))
	if err := b.writeWhere(cr.Where); err != nil {
		return types.Statement{}, err
	}
	return b.statement(), nil
}

// Update compiles an UPDATE setting every key of patch on the rows
// matching cr.Where.
func (c *Compiler) Update(table string, cr types.Criteria, patch types.Record) (types.Statement, error) {
	if len(patch) == 0 {
		return types.Statement{}, ErrEmptyPatch
	}
	b := c.builder(table)

	keys := sortedKeys(patch)
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = b.column(k) + " = " + b.bind(patch[k])
	}

	b.sql.WriteString("UPDATE " + c.quote(table) + " SET " + strings.Join(sets, ", "))
	if err := b.writeWhere(cr.Where); err != nil {
		return types.Statement{}, err
	}
	if c.opts.CanReturnValues {
		b.sql.WriteString(" RETURNING *")
	}
	return b.statement(), nil
}

// Destroy compiles a DELETE of the rows matching cr.Where.
func (c *Compiler) Destroy(table string, cr types.Criteria) (types.Statement, error) {
	b := c.builder(table)
	b.sql.WriteString("DELETE FROM " + c.quote(table))
	if err := b.writeWhere(cr.Where); err != nil {
		return types.Statement{}, err
	}
	return b.statement(), nil
}

// SimpleWhere compiles only the WHERE clause of w, including its leading
// space. An empty w compiles to an empty clause.
func (c *Compiler) SimpleWhere(table string, w types.Where) (types.Statement, error) {
	b := c.builder(table)
	if err := b.writeWhere(w); err != nil {
		return types.Statement{}, err
	}
	return b.statement(), nil
}

func (c *Compiler) quote(ident string) string {
	q := c.opts.EscapeCharacter
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

func (c *Compiler) builder(table string) *builder {
	return &builder{c: c, table: c.schema.TableOrEmpty(table)}
}

type builder struct {
	c      *Compiler
	table  *schema.Table
	sql    strings.Builder
	values []any
}

func (b *builder) statement() types.Statement {
	return types.Statement{Query: b.sql.String(), Values: b.values}
}

func (b *builder) bind(v any) string {
	b.values = append(b.values, v)
	return "$" + strconv.Itoa(len(b.values))
}

func (b *builder) column(attr string) string {
	return b.c.quote(b.table.ColumnOf(attr))
}

func (b *builder) writeWhere(w types.Where) error {
	if len(w) == 0 {
		return nil
	}
	expr, err := b.where(w)
	if err != nil {
		return err
	}
	b.sql.WriteString(" WHERE " + expr)
	return nil
}

func (b *builder) writeSort(sorts []types.Sort) {
	if len(sorts) == 0 {
		return
	}
	parts := make([]string, len(sorts))
	for i, s := range sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts[i] = b.column(s.Attribute) + " " + dir
	}
	b.sql.WriteString(" ORDER BY " + strings.Join(parts, ", "))
}

func (b *builder) writeLimit(limit, skip int) {
	switch {
	case limit > 0:
		b.sql.WriteString(" LIMIT " + strconv.Itoa(limit))
	case skip > 0:
		b.sql.WriteString(" LIMIT -1")
	}
	if skip > 0 {
		b.sql.WriteString(" OFFSET " + strconv.Itoa(skip))
	}
}

// where compiles w into a boolean expression. Keys are visited in sorted
// order so that equal criteria compile to equal statements.
func (b *builder) where(w types.Where) (string, error) {
	parts := make([]string, 0, len(w))
	for _, k := range sortedKeys(w) {
		v := w[k]
		switch strings.ToLower(k) {
		case "or", "and":
			expr, err := b.combine(strings.ToUpper(k), v)
			if err != nil {
				return "", err
			}
			parts = append(parts, expr)
			continue
		}
		expr, err := b.predicate(k, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, expr)
	}
	if len(parts) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(parts, " AND "), nil
}

func (b *builder) combine(op string, v any) (string, error) {
	list, err := whereList(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(op), err)
	}
	if len(list) == 0 {
		if op == "OR" {
			return "0 = 1", nil
		}
		return "1 = 1", nil
	}
	parts := make([]string, len(list))
	for i, w := range list {
		expr, err := b.where(w)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + expr + ")"
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")", nil
}

func (b *builder) predicate(attr string, v any) (string, error) {
	col := b.column(attr)

	if v == nil {
		return col + " IS NULL", nil
	}
	if ops, ok := asWhere(v); ok {
		parts := make([]string, 0, len(ops))
		for _, op := range sortedKeys(ops) {
			expr, err := b.operator(col, op, ops[op])
			if err != nil {
				return "", fmt.Errorf("attribute %s: %w", attr, err)
			}
			parts = append(parts, expr)
		}
		if len(parts) == 0 {
			return "1 = 1", nil
		}
		return strings.Join(parts, " AND "), nil
	}
	if list, ok := asList(v); ok {
		return b.in(col, "IN", list, "0 = 1"), nil
	}
	return b.compare(col, "=", v), nil
}

func (b *builder) operator(col, op string, v any) (string, error) {
	switch op {
	case "<", "lessThan":
		return b.compare(col, "<", v), nil
	case "<=", "lessThanOrEqual":
		return b.compare(col, "<=", v), nil
	case ">", "greaterThan":
		return b.compare(col, ">", v), nil
	case ">=", "greaterThanOrEqual":
		return b.compare(col, ">=", v), nil
	case "!", "not":
		if v == nil {
			return col + " IS NOT NULL", nil
		}
		if list, ok := asList(v); ok {
			return b.in(col, "NOT IN", list, "1 = 1"), nil
		}
		return b.compare(col, "<>", v), nil
	case "like":
		return b.like(col, fmt.Sprint(v)), nil
	case "contains":
		return b.like(col, "%"+fmt.Sprint(v)+"%"), nil
	case "startsWith":
		return b.like(col, fmt.Sprint(v)+"%"), nil
	case "endsWith":
		return b.like(col, "%"+fmt.Sprint(v)), nil
	}
	return "", fmt.Errorf("unknown operator %q", op)
}

func (b *builder) compare(col, op string, v any) string {
	if _, isString := v.(string); isString && !b.c.opts.CaseSensitive {
		return "LOWER(" + col + ") " + op + " LOWER(" + b.bind(v) + ")"
	}
	return col + " " + op + " " + b.bind(v)
}

func (b *builder) like(col, pattern string) string {
	if !b.c.opts.CaseSensitive {
		return "LOWER(" + col + ") LIKE LOWER(" + b.bind(pattern) + ")"
	}
	return col + " LIKE " + b.bind(pattern)
}

func (b *builder) in(col, op string, list []any, empty string) string {
	if len(list) == 0 {
		return empty
	}
	ph := make([]string, len(list))
	for i, v := range list {
		ph[i] = b.bind(v)
	}
	return col + " " + op + " (" + strings.Join(ph, ", ") + ")"
}

func asWhere(v any) (types.Where, bool) {
	switch x := v.(type) {
	case types.Where:
		return x, true
	case map[string]any:
		return types.Where(x), true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	if x, ok := v.([]any); ok {
		return x, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func whereList(v any) ([]types.Where, error) {
	switch x := v.(type) {
	case []types.Where:
		return x, nil
	case []map[string]any:
		out := make([]types.Where, len(x))
		for i, w := range x {
			out[i] = w
		}
		return out, nil
	case []any:
		out := make([]types.Where, len(x))
		for i, e := range x {
			w, ok := asWhere(e)
			if !ok {
				return nil, fmt.Errorf("expected a criteria map, got %T", e)
			}
			out[i] = w
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of criteria, got %T", v)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
