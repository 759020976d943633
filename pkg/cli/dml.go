// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/kvtable"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/rowenc"
	"github.com/cockroachdb/kvsql/pkg/sql/schema"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// withTable runs fn with the handle of a table, resolved through a fresh
// statement of the registry.
func withTable(
	cmd *cobra.Command, name string, fn func(ctx context.Context, tbl *kvtable.Table) error,
) error {
	return runWithRegistry(cmd, func(ctx context.Context, r *schema.Registry) error {
		id := uuid.New()
		defer r.ReleaseStatement(id)
		tbl, err := r.StatementTables(ctx, id).Table(ctx, name)
		if err != nil {
			return err
		}
		return fn(ctx, tbl)
	})
}

// parseValue parses a command-line value of a column. NULL, in any case,
// is SQL NULL.
func parseValue(col catalog.ColumnDescriptor, s string) (tree.Datum, error) {
	if strings.EqualFold(s, "NULL") {
		return tree.DNull, nil
	}
	d, err := rowenc.ParseDatum(col.Type, s)
	return d, errors.Wrapf(err, "column %s", col.Name)
}

func findColumn(tbl *kvtable.Table, name string) (int, error) {
	for i, c := range tbl.Columns() {
		if c.Name == name {
			return i, nil
		}
	}
	return 0, errors.Wrapf(catalog.ErrColumnNotFound, "column %q of %q", name, tbl.Name())
}

// formatDatum renders a datum for display. Strings are shown unquoted.
func formatDatum(d tree.Datum) string {
	switch t := d.(type) {
	case *tree.DString:
		return string(*t)
	case *tree.DBytes:
		return string(*t)
	default:
		return d.String()
	}
}

func formatRow(row tree.Datums) []string {
	out := make([]string, len(row))
	for i, d := range row {
		out[i] = formatDatum(d)
	}
	return out
}

var insertCmd = &cobra.Command{
	Use:   "insert TABLE VALUE...",
	Short: "insert or overwrite a row",
	Long: `
Insert a row, giving one value per column in column order. A row with the
same primary key is overwritten. NULL stands for SQL NULL.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTable(cmd, args[0], func(ctx context.Context, tbl *kvtable.Table) error {
			cols := tbl.Columns()
			values := args[1:]
			if len(values) != len(cols) {
				return pgerror.Newf(pgcode.Syntax,
					"%q has %d columns but %d values were supplied", tbl.Name(), len(cols), len(values))
			}
			row := make(tree.Datums, len(cols))
			for i, col := range cols {
				d, err := parseValue(col, values[i])
				if err != nil {
					return err
				}
				row[i] = d
			}
			if err := tbl.Insert(ctx, row); err != nil {
				return err
			}
			printTag(cmd, "INSERT 1")
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete TABLE KEY...",
	Short: "delete rows by primary key",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTable(cmd, args[0], func(ctx context.Context, tbl *kvtable.Table) error {
			var pk catalog.ColumnDescriptor
			for _, c := range tbl.Columns() {
				if c.IsPrimary {
					pk = c
				}
			}
			keys := make(tree.Datums, 0, len(args)-1)
			for _, s := range args[1:] {
				d, err := parseValue(pk, s)
				if err != nil {
					return err
				}
				keys = append(keys, d)
			}
			if err := tbl.Delete(ctx, keys); err != nil {
				return err
			}
			printTag(cmd, "DELETE %d", len(keys))
			return nil
		})
	},
}

var comparisonOps = map[string]tree.ComparisonOperator{
	"=":  tree.EQ,
	"!=": tree.NE,
	"<>": tree.NE,
	"<":  tree.LT,
	"<=": tree.LE,
	">":  tree.GT,
	">=": tree.GE,
}

// condition is a parsed --where predicate.
type condition struct {
	ord   int
	op    tree.ComparisonOperator
	value tree.Datum
	// encoded is value under the column type, whose byte order is the
	// order of the values.
	encoded []byte
}

func (c condition) expr(col catalog.ColumnDescriptor) tree.TypedExpr {
	return tree.NewTypedComparisonExpr(c.op,
		tree.NewIndexedVar(c.ord, col.Type), tree.NewLiteral(col.Type, c.value))
}

// eval evaluates the predicate the way the store does: NULL never
// satisfies a comparison.
func (c condition) eval(col catalog.ColumnDescriptor, d tree.Datum) (bool, error) {
	if d == tree.DNull {
		return false, nil
	}
	v, err := rowenc.EncodeDatum(col.Type, d)
	if err != nil {
		return false, err
	}
	cmp := bytes.Compare(v, c.encoded)
	switch c.op {
	case tree.EQ:
		return cmp == 0, nil
	case tree.NE:
		return cmp != 0, nil
	case tree.LT:
		return cmp < 0, nil
	case tree.LE:
		return cmp <= 0, nil
	case tree.GT:
		return cmp > 0, nil
	case tree.GE:
		return cmp >= 0, nil
	default:
		return false, errors.AssertionFailedf("unexpected operator %s", c.op)
	}
}

// parseWhere parses predicates of the form "column op literal".
func parseWhere(tbl *kvtable.Table, preds []string) ([]condition, error) {
	conds := make([]condition, 0, len(preds))
	for _, p := range preds {
		fields := strings.Fields(p)
		if len(fields) < 3 {
			return nil, errors.Newf("predicate %q: expected \"column op literal\"", p)
		}
		op, ok := comparisonOps[fields[1]]
		if !ok {
			return nil, pgerror.Newf(pgcode.FeatureNotSupported,
				"predicate %q: unsupported operator %s", p, fields[1])
		}
		ord, err := findColumn(tbl, fields[0])
		if err != nil {
			return nil, err
		}
		col := tbl.Columns()[ord]
		lit := strings.Join(fields[2:], " ")
		value, err := parseValue(col, strings.Trim(lit, "'"))
		if err != nil {
			return nil, err
		}
		if value == tree.DNull {
			return nil, pgerror.Newf(pgcode.FeatureNotSupported,
				"predicate %q: comparison with NULL is not supported", p)
		}
		encoded, err := rowenc.EncodeDatum(col.Type, value)
		if err != nil {
			return nil, err
		}
		conds = append(conds, condition{ord: ord, op: op, value: value, encoded: encoded})
	}
	return conds, nil
}

// parseProjection resolves a comma-separated column list to ordinals. An
// empty list selects every column.
func parseProjection(tbl *kvtable.Table, list string) ([]int, error) {
	if list == "" {
		return nil, nil
	}
	var ords []int
	for _, name := range strings.Split(list, ",") {
		ord, err := findColumn(tbl, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		ords = append(ords, ord)
	}
	return ords, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan TABLE [--where PREDICATE]... [--columns COLUMN,...]",
	Short: "print the rows of a table",
	Long: `
Print the rows of a table in primary key order. Predicates and the column
list are pushed down to the store as far as the table flavor allows; the
rest is applied here.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTable(cmd, args[0], runScan(cmd))
	},
}

func runScan(cmd *cobra.Command) func(context.Context, *kvtable.Table) error {
	return func(ctx context.Context, tbl *kvtable.Table) error {
		cols := tbl.Columns()
		conds, err := parseWhere(tbl, scanCtx.where)
		if err != nil {
			return err
		}
		proj, err := parseProjection(tbl, scanCtx.columns)
		if err != nil {
			return err
		}
		filters := make([]tree.TypedExpr, len(conds))
		for i, c := range conds {
			filters[i] = c.expr(cols[c.ord])
		}
		it, err := tbl.Scan(ctx, filters, proj)
		if err != nil {
			return err
		}
		defer it.Close()

		header := make([]string, 0, len(cols))
		if proj == nil {
			for _, c := range cols {
				header = append(header, c.Name)
			}
		} else {
			for _, ord := range proj {
				header = append(header, cols[ord].Name)
			}
		}
		caps := tbl.Capabilities()
		next := rowFuncIter(func() ([]string, error) {
			for {
				ok, err := it.Next(ctx)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, io.EOF
				}
				row := it.Datums()
				if caps.ProjectPushdown {
					return formatRow(row), nil
				}
				if !caps.FilterPushdown {
					match := true
					for _, c := range conds {
						if match, err = c.eval(cols[c.ord], row[c.ord]); err != nil {
							return nil, err
						}
						if !match {
							break
						}
					}
					if !match {
						continue
					}
				}
				if proj != nil {
					projected := make(tree.Datums, len(proj))
					for i, ord := range proj {
						projected[i] = row[ord]
					}
					row = projected
				}
				return formatRow(row), nil
			}
		})
		return printQueryOutput(cmd.OutOrStdout(), header, next, "", cliCtx.tableDisplayFormat)
	}
}

var lookupCmd = &cobra.Command{
	Use:   "lookup TABLE COLUMN VALUE",
	Short: "find rows through the secondary index",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTable(cmd, args[0], func(ctx context.Context, tbl *kvtable.Table) error {
			ord, err := findColumn(tbl, args[1])
			if err != nil {
				return err
			}
			value, err := parseValue(tbl.Columns()[ord], args[2])
			if err != nil {
				return err
			}
			rows, err := tbl.LookupByIndex(ctx, args[1], value)
			if err != nil {
				return err
			}
			header := make([]string, 0, len(tbl.Columns()))
			for _, c := range tbl.Columns() {
				header = append(header, c.Name)
			}
			out := make([][]string, len(rows))
			for i, row := range rows {
				out[i] = formatRow(row)
			}
			return printQueryOutput(cmd.OutOrStdout(), header, newRowSliceIter(out), "",
				cliCtx.tableDisplayFormat)
		})
	},
}
