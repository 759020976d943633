// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/cli/clierror"
	"github.com/cockroachdb/kvsql/pkg/cli/exit"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/schema"
	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/cockroachdb/kvsql/pkg/util/timeutil"
	"github.com/spf13/cobra"
)

var createTableCmd = &cobra.Command{
	Use:   "create-table NAME COLUMN... --primary-key COLUMN",
	Short: "create a table",
	Long: `
Create a table. Every COLUMN is given as

  name:TYPE[:null][:default=VALUE][:precision=N][:comment=TEXT]

Columns are not nullable unless marked null. The primary key column is
never nullable.
`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCreateTable,
}

// parseColumnDef parses the column syntax of create-table.
func parseColumnDef(s string) (catalog.ColumnDef, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return catalog.ColumnDef{}, errors.Newf("column %q: expected name:TYPE", s)
	}
	typ, ok := types.Lookup(strings.ToUpper(parts[1]))
	if !ok {
		return catalog.ColumnDef{}, errors.Newf("column %q: unknown type %s", s, parts[1])
	}
	def := catalog.ColumnDef{Name: parts[0], Type: typ}
	for _, opt := range parts[2:] {
		key, val, hasVal := strings.Cut(opt, "=")
		switch {
		case key == "null" && !hasVal:
			def.Nullable = true
		case key == "default" && hasVal:
			v := val
			def.Default = &v
		case key == "precision" && hasVal:
			p, err := strconv.Atoi(val)
			if err != nil {
				return catalog.ColumnDef{}, errors.Wrapf(err, "column %q: precision", s)
			}
			def.Precision = p
		case key == "comment" && hasVal:
			def.Comment = val
		default:
			return catalog.ColumnDef{}, errors.Newf("column %q: unknown option %q", s, opt)
		}
	}
	return def, nil
}

func runCreateTable(cmd *cobra.Command, args []string) error {
	cols := make([]catalog.ColumnDef, 0, len(args)-1)
	for _, arg := range args[1:] {
		def, err := parseColumnDef(arg)
		if err != nil {
			return clierror.NewError(err, exit.CommandLineFlagError())
		}
		cols = append(cols, def)
	}
	return runWithRegistry(cmd, func(ctx context.Context, r *schema.Registry) error {
		_, err := r.CreateTable(ctx, args[0], cols,
			[]string{createTableCtx.primaryKey}, createTableCtx.transactional)
		if err != nil {
			return err
		}
		printTag(cmd, "CREATE TABLE")
		return nil
	})
}

var dropTableCmd = &cobra.Command{
	Use:   "drop-table NAME",
	Short: "drop a table and its index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithRegistry(cmd, func(ctx context.Context, r *schema.Registry) error {
			if err := r.DropTable(ctx, args[0]); err != nil {
				return err
			}
			printTag(cmd, "DROP TABLE")
			return nil
		})
	},
}

var createIndexCmd = &cobra.Command{
	Use:   "create-index TABLE INDEX COLUMN...",
	Short: "create a secondary index",
	Long: `
Create a secondary index over the given columns of a table and back-fill it
from the existing rows. A table has at most one index.
`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := catalog.ParseIndexType(indexCtx.indexType)
		if err != nil {
			return clierror.NewError(err, exit.CommandLineFlagError())
		}
		return runWithRegistry(cmd, func(ctx context.Context, r *schema.Registry) error {
			if err := r.CreateIndex(ctx, args[1], typ, args[0], args[2:], nil); err != nil {
				return err
			}
			printTag(cmd, "CREATE INDEX")
			return nil
		})
	},
}

var dropIndexCmd = &cobra.Command{
	Use:   "drop-index TABLE INDEX",
	Short: "drop a secondary index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := catalog.ParseIndexType(indexCtx.indexType)
		if err != nil {
			return clierror.NewError(err, exit.CommandLineFlagError())
		}
		return runWithRegistry(cmd, func(ctx context.Context, r *schema.Registry) error {
			if err := r.DropIndex(ctx, args[0], args[1], typ); err != nil {
				return err
			}
			printTag(cmd, "DROP INDEX")
			return nil
		})
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe TABLE",
	Short: "show the catalog entry and columns of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithRegistry(cmd, func(ctx context.Context, r *schema.Registry) error {
			tbl, err := r.Table(ctx, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			desc := tbl.Descriptor()
			attrs := [][]string{
				{"table", desc.Name},
				{"transactional", strconv.FormatBool(desc.IsTransactional)},
				{"index type", desc.IndexType.String()},
				{"index", desc.IndexName},
				{"indexed columns", strings.Join(desc.IndexedColumns, ",")},
				{"lock status", desc.LockStatus.String()},
				{"created", desc.CreatedAt.Format(timeutil.FullTimeFormat)},
				{"charset", desc.Charset},
			}
			if err := printQueryOutput(w, []string{"attribute", "value"},
				newRowSliceIter(attrs), "", cliCtx.tableDisplayFormat); err != nil {
				return err
			}
			var rows [][]string
			for _, c := range tbl.Columns() {
				def := ""
				if c.Default != nil {
					def = formatDatum(c.Default)
				}
				rows = append(rows, []string{
					c.Name, c.Type.Name(), strconv.Itoa(c.Precision),
					strconv.FormatBool(c.Nullable), def, strconv.FormatBool(c.IsPrimary), c.Comment,
				})
			}
			return printQueryOutput(w,
				[]string{"column", "type", "precision", "nullable", "default", "primary", "comment"},
				newRowSliceIter(rows), "", cliCtx.tableDisplayFormat)
		})
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "list tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithRegistry(cmd, func(ctx context.Context, r *schema.Registry) error {
			tables, err := r.Tables(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(tables))
			for _, tbl := range tables {
				desc := tbl.Descriptor()
				rows = append(rows, []string{
					desc.Name,
					strconv.FormatBool(desc.IsTransactional),
					desc.IndexName,
					strings.Join(desc.IndexedColumns, ","),
					desc.LockStatus.String(),
				})
			}
			return printQueryOutput(cmd.OutOrStdout(),
				[]string{"table", "transactional", "index", "indexed columns", "lock status"},
				newRowSliceIter(rows), "", cliCtx.tableDisplayFormat)
		})
	},
}
