package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wlsqlite/internal/jsonl"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

func (a *app) newExportCmd() *cobra.Command {
	var (
		f    criteriaFlags
		file string
	)
	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Write matching rows to a JSONL file",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return userErrorf("--file is required")
			}
			c, err := f.criteria()
			if err != nil {
				return err
			}
			rows, err := a.adapter.Find(cmd.Context(), a.identity, args[0], c)
			if err != nil {
				return err
			}
			if err := jsonl.Write(file, rows); err != nil {
				return fmt.Errorf("exporting %s: %w", args[0], err)
			}
			return a.print(cmd, map[string]any{"exported": len(rows), "file": file})
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&file, "file", "", "destination JSONL file")
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import <table>",
		Short: "Create one row per line of a JSONL file",
		Long: "Create one row per line of a JSONL file. Blank lines are ignored and\n" +
			"malformed lines are skipped with a warning. Rows are created one at a\n" +
			"time; the first failure stops the import.",
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return userErrorf("--file is required")
			}
			records, skipped, err := jsonl.Read(file)
			if err != nil {
				return userErrorf("--file: %v", err)
			}
			for _, line := range skipped {
				a.log.WithFields(log.Fields{"file": file, "line": line}).Warn("skipping malformed line")
			}

			imported := 0
			for i, raw := range records {
				var v any
				if err := decodeJSON(string(raw), &v); err != nil {
					return fmt.Errorf("record %d: %w", i+1, err)
				}
				values, ok := v.(map[string]any)
				if !ok {
					return userErrorf("record %d: expected a JSON object", i+1)
				}
				if _, err := a.adapter.Create(cmd.Context(), a.identity, args[0], types.Record(values)); err != nil {
					return fmt.Errorf("importing record %d of %d: %w", i+1, len(records), err)
				}
				imported++
			}
			return a.print(cmd, map[string]any{"imported": imported, "skipped": len(skipped)})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "source JSONL file")
	return cmd
}
