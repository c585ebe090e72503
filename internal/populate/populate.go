// Package populate resolves associations between tables by issuing
// follow-up finds and attaching the matched child records to their
// parents.
package populate

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// Finder is the capability populate needs from a connection.
type Finder interface {
	Find(ctx context.Context, table string, c types.Criteria) ([]types.Record, error)
	PrimaryKeyOf(table string) string
}

// Populate finds the parent rows of table matching c and attaches, under
// each instruction alias, the associated child records.
//
// Instructions sharing an alias form a chain. A single hop is belongs-to
// when its ChildKey is the child's primary key (the alias holds one record
// or nil) and has-many otherwise (the alias holds a list). Two hops go
// through a junction table and always yield a list.
func Populate(ctx context.Context, f Finder, table string, c types.Criteria, instructions []types.JoinInstruction) ([]types.Record, error) {
	parents, err := f.Find(ctx, table, c)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return parents, nil
	}

	for _, chain := range chains(instructions) {
		switch len(chain) {
		case 1:
			err = oneHop(ctx, f, parents, chain[0])
		case 2:
			err = twoHops(ctx, f, parents, chain[0], chain[1])
		default:
			err = fmt.Errorf("alias %s: %d hops", chain[0].Alias, len(chain))
		}
		if err != nil {
			return nil, fmt.Errorf("populating %s: %w", chain[0].Alias, err)
		}
	}
	return parents, nil
}

// chains groups instructions by alias in order of first appearance.
func chains(instructions []types.JoinInstruction) [][]types.JoinInstruction {
	var order []string
	byAlias := map[string][]types.JoinInstruction{}
	for _, ins := range instructions {
		if _, seen := byAlias[ins.Alias]; !seen {
			order = append(order, ins.Alias)
		}
		byAlias[ins.Alias] = append(byAlias[ins.Alias], ins)
	}
	out := make([][]types.JoinInstruction, len(order))
	for i, alias := range order {
		out[i] = byAlias[alias]
	}
	return out
}

func oneHop(ctx context.Context, f Finder, parents []types.Record, ins types.JoinInstruction) error {
	parentKey := ins.ParentKey
	if parentKey == "" {
		parentKey = f.PrimaryKeyOf(ins.Parent)
	}
	single := ins.ChildKey == f.PrimaryKeyOf(ins.Child)

	children, err := fetch(ctx, f, ins, keys(parents, parentKey))
	if err != nil {
		return err
	}
	byKey := group(children, ins.ChildKey)

	for _, p := range parents {
		matched := byKey[keyOf(p[parentKey])]
		if single {
			if len(matched) > 0 {
				p[ins.Alias] = matched[0]
			} else {
				p[ins.Alias] = nil
			}
			continue
		}
		if matched == nil {
			matched = []types.Record{}
		}
		p[ins.Alias] = matched
	}
	return nil
}

func twoHops(ctx context.Context, f Finder, parents []types.Record, first, second types.JoinInstruction) error {
	parentKey := first.ParentKey
	if parentKey == "" {
		parentKey = f.PrimaryKeyOf(first.Parent)
	}

	links, err := fetch(ctx, f, first, keys(parents, parentKey))
	if err != nil {
		return err
	}
	children, err := fetch(ctx, f, second, keys(links, second.ParentKey))
	if err != nil {
		return err
	}
	childByKey := group(children, second.ChildKey)
	linksByParent := group(links, first.ChildKey)

	for _, p := range parents {
		matched := []types.Record{}
		for _, link := range linksByParent[keyOf(p[parentKey])] {
			matched = append(matched, childByKey[keyOf(link[second.ParentKey])]...)
		}
		p[first.Alias] = matched
	}
	return nil
}

// fetch finds the rows of ins.Child whose ChildKey is one of in, further
// filtered by the instruction's own criteria.
func fetch(ctx context.Context, f Finder, ins types.JoinInstruction, in []any) ([]types.Record, error) {
	if len(in) == 0 {
		return nil, nil
	}

	var c types.Criteria
	if ins.Criteria != nil {
		c = *ins.Criteria
	}
	match := types.Where{ins.ChildKey: in}
	if len(c.Where) > 0 {
		match = types.Where{"and": []types.Where{c.Where, match}}
	}
	c.Where = match

	c.Select = ins.Select
	if len(c.Select) > 0 && !contains(c.Select, ins.ChildKey) {
		c.Select = append(append([]string{}, c.Select...), ins.ChildKey)
	}
	return f.Find(ctx, ins.Child, c)
}

// keys returns the distinct non-nil values of field across rows, in
// first-seen order.
func keys(rows []types.Record, field string) []any {
	seen := map[string]bool{}
	var out []any
	for _, r := range rows {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		k := keyOf(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func group(rows []types.Record, field string) map[string][]types.Record {
	out := map[string][]types.Record{}
	for _, r := range rows {
		v := r[field]
		if v == nil {
			continue
		}
		k := keyOf(v)
		out[k] = append(out[k], r)
	}
	return out
}

// keyOf compares keys by their printed form so that an int64 column
// matches a float64 or string holding the same value.
func keyOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
