package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

func (a *app) newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <table> <sql> [value...]",
		Short: "Run raw SQL and print the decoded rows",
		Long: "Run raw SQL. Placeholders are $1..$N or ?. Values are parsed as JSON\n" +
			"when they can be, otherwise passed as strings. Rows are decoded against\n" +
			`the schema of <table>; pass "" to skip decoding.`,
		Args: positional(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]any, 0, len(args)-2)
			for _, s := range args[2:] {
				values = append(values, parseValue(s))
			}
			rows, err := a.adapter.Query(cmd.Context(), a.identity, args[0], args[1], values)
			if err != nil {
				return err
			}
			return a.print(cmd, rows)
		},
	}
}

func (a *app) newFindCmd() *cobra.Command {
	var f criteriaFlags
	cmd := &cobra.Command{
		Use:   "find <table>",
		Short: "Find rows matching criteria",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			rows, err := a.adapter.Find(cmd.Context(), a.identity, args[0], c)
			if err != nil {
				return err
			}
			return a.print(cmd, rows)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *app) newCountCmd() *cobra.Command {
	var f criteriaFlags
	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count rows matching criteria",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			n, err := a.adapter.Count(cmd.Context(), a.identity, args[0], c)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]any{"count": n})
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *app) newJoinCmd() *cobra.Command {
	var (
		f     criteriaFlags
		joins string
	)
	cmd := &cobra.Command{
		Use:   "join <table>",
		Short: "Find rows and populate their associations",
		Long: "Find rows and populate associations. --with takes a JSON list of join\n" +
			`instructions, e.g. [{"parent":"users","child":"pets","childKey":"owner","alias":"pets"}].`,
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			var instructions []types.JoinInstruction
			if err := json.Unmarshal([]byte(joins), &instructions); err != nil {
				return userErrorf("--with: %v", err)
			}
			rows, err := a.adapter.Join(cmd.Context(), a.identity, args[0], c, instructions)
			if err != nil {
				return err
			}
			return a.print(cmd, rows)
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&joins, "with", "[]", "join instructions as a JSON list")
	return cmd
}

func (a *app) newCreateCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Insert a row and print it as stored",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseObject("data", data)
			if err != nil {
				return err
			}
			rec, err := a.adapter.Create(cmd.Context(), a.identity, args[0], values)
			if err != nil {
				return err
			}
			return a.print(cmd, rec)
		},
	}
	cmd.Flags().StringVar(&data, "data", "{}", "row values as a JSON object")
	return cmd
}

func (a *app) newUpdateCmd() *cobra.Command {
	var (
		f    criteriaFlags
		data string
	)
	cmd := &cobra.Command{
		Use:   "update <table>",
		Short: "Update rows matching criteria and print them",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			patch, err := parseObject("data", data)
			if err != nil {
				return err
			}
			if len(patch) == 0 {
				return userErrorf("--data: nothing to update")
			}
			rows, err := a.adapter.Update(cmd.Context(), a.identity, args[0], c, patch)
			if err != nil {
				return err
			}
			return a.print(cmd, rows)
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&data, "data", "", "values to set as a JSON object")
	return cmd
}

func (a *app) newDestroyCmd() *cobra.Command {
	var f criteriaFlags
	cmd := &cobra.Command{
		Use:   "destroy <table>",
		Short: "Delete rows matching criteria and print them",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			rows, err := a.adapter.Destroy(cmd.Context(), a.identity, args[0], c)
			if err != nil {
				return err
			}
			return a.print(cmd, rows)
		},
	}
	f.register(cmd, false)
	return cmd
}
