package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// print writes v to the command output in the selected format.
func (a *app) print(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	switch a.output {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		return printTable(out, v)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable renders v as a text table. A list of objects gets one row
// per object, an object of objects one row per key, and any other object
// one key/value row per entry.
func printTable(out io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}

	var (
		header []string
		rows   [][]string
	)
	switch x := generic.(type) {
	case []any:
		header = columnsOf(x)
		for _, item := range x {
			obj, _ := item.(map[string]any)
			rows = append(rows, rowOf(obj, header))
		}
	case map[string]any:
		names := sortedKeys(x)
		nested := make([]any, 0, len(x))
		for _, name := range names {
			if obj, ok := x[name].(map[string]any); ok {
				nested = append(nested, obj)
			}
		}
		if len(nested) == len(x) && len(x) > 0 {
			cols := columnsOf(nested)
			header = append([]string{"name"}, cols...)
			for i, name := range names {
				rows = append(rows, append([]string{name}, rowOf(nested[i].(map[string]any), cols)...))
			}
			break
		}
		header = []string{"key", "value"}
		for _, name := range names {
			rows = append(rows, []string{name, cell(x[name])})
		}
	default:
		_, err := fmt.Fprintln(out, cell(generic))
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return nil
}

// columnsOf is the sorted union of the keys of every object in items.
func columnsOf(items []any) []string {
	seen := map[string]bool{}
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			for k := range obj {
				seen[k] = true
			}
		}
	}
	return sortedKeys(seen)
}

func rowOf(obj map[string]any, cols []string) []string {
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = cell(obj[c])
	}
	return row
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseObject decodes a JSON object flag. An empty string is nil.
func parseObject(flag, s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var v any
	if err := decodeJSON(s, &v); err != nil {
		return nil, userErrorf("--%s: %v", flag, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, userErrorf("--%s: expected a JSON object", flag)
	}
	return m, nil
}

// parseValue decodes a positional argument as JSON, falling back to the
// raw string.
func parseValue(s string) any {
	var v any
	if err := decodeJSON(s, &v); err != nil {
		return s
	}
	return v
}

// decodeJSON decodes s keeping integers as int64.
func decodeJSON(s string, v *any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	*v = numbers(*v)
	return nil
}

func numbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = numbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = numbers(e)
		}
	}
	return v
}

// criteriaFlags are the flags shared by commands that take criteria.
type criteriaFlags struct {
	where string
	sel   []string
	sort  []string
	limit int
	skip  int
}

func (f *criteriaFlags) register(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringVar(&f.where, "where", "", `criteria as JSON, e.g. {"status":"pending"}`)
	if !paging {
		return
	}
	cmd.Flags().StringSliceVar(&f.sel, "select", nil, "attributes to return")
	cmd.Flags().StringSliceVar(&f.sort, "sort", nil, "attributes to sort by; prefix with - for descending")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum rows to return")
	cmd.Flags().IntVar(&f.skip, "skip", 0, "rows to skip")
}

func (f *criteriaFlags) criteria() (types.Criteria, error) {
	where, err := parseObject("where", f.where)
	if err != nil {
		return types.Criteria{}, err
	}
	c := types.Criteria{Where: where, Select: f.sel, Limit: f.limit, Skip: f.skip}
	for _, s := range f.sort {
		if strings.HasPrefix(s, "-") {
			c.Sort = append(c.Sort, types.Sort{Attribute: s[1:], Desc: true})
			continue
		}
		c.Sort = append(c.Sort, types.Sort{Attribute: s})
	}
	return c, nil
}
