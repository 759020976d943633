// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/kvsql/pkg/cli/clierror"
	"github.com/cockroachdb/kvsql/pkg/cli/exit"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/stretchr/testify/require"
)

// runCLI runs a command against an on-disk store in dir and returns its
// output.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	kvsqlCmd.SetOut(&buf)
	defer kvsqlCmd.SetOut(nil)
	err := Run(append(args, "--quorum=pebble://"+dir, "--format=tsv"))
	return buf.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	require.NoError(t, err)
	return out
}

func TestTableLifecycle(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, "CREATE TABLE\n", mustRun(t, dir,
		"create-table", "t", "k:INT", "v:VARCHAR:null", "n:BIGINT:default=7:comment=counter",
		"--primary-key", "k"))
	require.Equal(t, "INSERT 1\n", mustRun(t, dir, "insert", "t", "1", "a", "NULL"))
	mustRun(t, dir, "insert", "t", "2", "b", "5")
	mustRun(t, dir, "insert", "t", "3", "NULL", "9")

	require.Equal(t, "3 rows\nk\tv\tn\n1\ta\t7\n2\tb\t5\n3\tNULL\t9\n", mustRun(t, dir, "scan", "t"))

	for _, flavor := range []string{"SCAN", "FILTER", "FILTER_PROJECT"} {
		t.Run(flavor, func(t *testing.T) {
			out := mustRun(t, dir, "scan", "t", "--where", "n >= 6", "--columns", "v,k", "--flavor", flavor)
			require.Equal(t, "2 rows\nv\tk\na\t1\nNULL\t3\n", out)
			out = mustRun(t, dir, "scan", "t", "--where", "k > 1", "--where", "v = 'b'", "--flavor", flavor)
			require.Equal(t, "1 row\nk\tv\tn\n2\tb\t5\n", out)
		})
	}

	require.Equal(t, "CREATE INDEX\n", mustRun(t, dir, "create-index", "t", "i", "v"))
	require.Equal(t, "1 row\nk\tv\tn\n1\ta\t7\n", mustRun(t, dir, "lookup", "t", "v", "a"))
	require.Equal(t,
		"1 row\ntable\ttransactional\tindex\tindexed columns\tlock status\nt\tfalse\ti\tv\tUNLOCKED\n",
		mustRun(t, dir, "ls"))
	out := mustRun(t, dir, "describe", "t")
	require.Contains(t, out, "index type\tKEY_VALUE\n")
	require.Contains(t, out, "n\tBIGINT\t0\tfalse\t7\tfalse\tcounter\n")
	require.Contains(t, out, "k\tINTEGER\t0\tfalse\t\ttrue\t\n")

	require.Equal(t, "DELETE 2\n", mustRun(t, dir, "delete", "t", "1", "2"))
	require.Equal(t, "1 row\nk\tv\tn\n3\tNULL\t9\n", mustRun(t, dir, "scan", "t"))
	require.Equal(t, "0 rows\nk\tv\tn\n", mustRun(t, dir, "lookup", "t", "v", "a"))

	require.Equal(t, "DROP INDEX\n", mustRun(t, dir, "drop-index", "t", "i"))
	require.Equal(t, "DROP TABLE\n", mustRun(t, dir, "drop-table", "t"))
	require.Equal(t, "0 rows\ntable\ttransactional\tindex\tindexed columns\tlock status\n",
		mustRun(t, dir, "ls"))
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "create-table", "t", "k:INT", "v:VARCHAR:null", "--primary-key", "k")

	_, err := runCLI(t, dir, "scan", "missing")
	require.ErrorIs(t, err, catalog.ErrTableNotFound)
	require.Equal(t, exit.UnspecifiedError(), clierror.ExitCode(err))

	_, err = runCLI(t, dir, "insert", "t", "1")
	require.Equal(t, pgcode.Syntax, pgerror.GetPGCode(err))

	_, err = runCLI(t, dir, "scan", "t", "--where", "v ~ x")
	require.Equal(t, pgcode.FeatureNotSupported, pgerror.GetPGCode(err))

	_, err = runCLI(t, dir, "scan", "t", "--columns", "nope")
	require.ErrorIs(t, err, catalog.ErrColumnNotFound)

	_, err = runCLI(t, dir, "create-table", "u", "k:NOPE", "--primary-key", "k")
	require.Equal(t, exit.CommandLineFlagError(), clierror.ExitCode(err))

	_, err = runCLI(t, dir, "create-table", "u", "k:INT")
	require.Error(t, err)

	_, err = runCLI(t, dir, "ls", "--bogus")
	require.Equal(t, exit.CommandLineFlagError(), clierror.ExitCode(err))

	_, err = runCLI(t, dir, "ls", "--flavor", "BOGUS")
	require.Equal(t, exit.ConfigurationError(), clierror.ExitCode(err))

	_, err = runCLI(t, dir, "create-index", "t", "i", "v", "--type", "BTREE")
	require.Equal(t, exit.CommandLineFlagError(), clierror.ExitCode(err))

	// Flags of a previous run do not leak.
	require.Equal(t, "0 rows\nk\tv\n", mustRun(t, dir, "scan", "t"))
}

func TestStoreUnavailable(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, os.WriteFile(notADir, nil, 0644))
	_, err := runCLI(t, notADir, "ls")
	require.Equal(t, exit.StoreUnavailable(), clierror.ExitCode(err))
	require.Equal(t, "FATAL", pgerror.GetSeverity(err))

	var buf bytes.Buffer
	clierror.OutputError(&buf, err, false)
	require.Contains(t, buf.String(), "FATAL: connecting to pebble://")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "kvsql.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("table_flavor: FILTER_PROJECT\nmax_statements: 8\n"), 0644))

	mustRun(t, dir, "create-table", "t", "k:INT", "v:VARCHAR:null", "--primary-key", "k", "--config", cfg)
	mustRun(t, dir, "insert", "t", "1", "a", "--config", cfg)
	require.Equal(t, "1 row\nv\na\n", mustRun(t, dir, "scan", "t", "--columns", "v", "--config", cfg))

	require.NoError(t, os.WriteFile(cfg, []byte("max_statements: 0\n"), 0644))
	_, err := runCLI(t, dir, "ls", "--config", cfg)
	require.Equal(t, exit.ConfigurationError(), clierror.ExitCode(err))
}

func TestFormats(t *testing.T) {
	rows := [][]string{{"1", "a\tb"}, {"2", "x"}}
	cols := []string{"k", "v"}
	for _, tc := range []struct {
		format tableDisplayFormat
		want   string
	}{
		{tableDisplayCSV, "2 rows\nk,v\n1,a\tb\n2,x\n"},
		{tableDisplayRecords, "-[ RECORD 1 ]\nk | 1\nv | a\tb\n-[ RECORD 2 ]\nk | 2\nv | x\n"},
		{tableDisplayHTML, "<table>\n<thead><tr><th>k</th><th>v</th></tr></thead>\n<tbody>\n" +
			"<tr><td>1</td><td>a\tb</td></tr>\n<tr><td>2</td><td>x</td></tr>\n</tbody>\n</table>\n"},
	} {
		t.Run(tc.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printQueryOutput(&buf, cols, newRowSliceIter(rows), "", tc.format))
			require.Equal(t, tc.want, buf.String())
		})
	}

	var buf bytes.Buffer
	require.NoError(t, printQueryOutput(&buf, nil, nil, "DELETE 3", tableDisplayPretty))
	require.Equal(t, "DELETE 3\n", buf.String())

	var f tableDisplayFormat
	require.NoError(t, f.Set("Records"))
	require.Equal(t, tableDisplayRecords, f)
	require.Error(t, f.Set("sql"))
}
