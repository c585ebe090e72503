package cli

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wlsqlite/internal/schema"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

func (a *app) newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the physical columns of a table",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.adapter.Describe(cmd.Context(), a.identity, args[0])
			if err != nil {
				return err
			}
			if desc == nil {
				return userErrorf("table %s does not exist", args[0])
			}
			return a.print(cmd, desc)
		},
	}
}

func (a *app) newDefineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "define [collection...]",
		Short: "Create tables for the configured collections",
		Long: "Create the table of every collection in the schema file, or only\n" +
			"the named collections. A collection may be named by key or table name.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := map[string]types.Collection{}
			for key, c := range a.collections {
				name := c.TableName
				if name == "" {
					name = key
				}
				if len(args) == 0 || contains(args, key) || contains(args, name) {
					tables[name] = c
				}
			}
			for _, arg := range args {
				if !a.hasCollection(arg) {
					return userErrorf("no collection named %s", arg)
				}
			}

			names := make([]string, 0, len(tables))
			for name := range tables {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if err := a.adapter.Define(cmd.Context(), a.identity, name, tables[name].Attributes); err != nil {
					return err
				}
			}
			return a.print(cmd, map[string]any{"defined": names})
		},
	}
}

func (a *app) newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table if it exists",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.adapter.Drop(cmd.Context(), a.identity, args[0]); err != nil {
				return err
			}
			return a.print(cmd, map[string]any{"dropped": args[0]})
		},
	}
}

func (a *app) newAddAttributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-attribute <table> <attribute> <definition>",
		Short: "Add a column to a table",
		Long: "Add a column to a table. The definition is a type name such as\n" +
			`string, or a JSON object such as {"type":"integer","defaultsTo":0}.`,
		Args: positional(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw any = args[2]
			if obj, err := parseObject("definition", args[2]); err == nil && obj != nil {
				raw = obj
			} else if json.Valid([]byte(args[2])) {
				return userErrorf("definition must be a type name or a JSON object")
			}
			def, err := schema.ParseDefinition(raw)
			if err != nil {
				return usageError{err}
			}
			if err := a.adapter.AddAttribute(cmd.Context(), a.identity, args[0], args[1], def); err != nil {
				return err
			}
			return a.print(cmd, map[string]any{"added": args[1]})
		},
	}
}

func (a *app) newRemoveAttributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-attribute <table> <attribute>",
		Short: "Drop a column from a table",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.adapter.RemoveAttribute(cmd.Context(), a.identity, args[0], args[1]); err != nil {
				return err
			}
			return a.print(cmd, map[string]any{"removed": args[1]})
		},
	}
}

func (a *app) hasCollection(name string) bool {
	for key, c := range a.collections {
		if key == name || c.TableName == name {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
