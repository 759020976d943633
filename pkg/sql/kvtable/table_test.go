// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvtable

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvconn"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/pushdown"
	"github.com/cockroachdb/kvsql/pkg/sql/secondaryindex"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	conn    *kvconn.Connection
	catalog *catalog.Catalog
	store   kv.Store
	metrics *Metrics
}

func newEnv(t *testing.T, flavor kvconn.Flavor) *testEnv {
	ctx := context.Background()
	conn := &kvconn.Connection{}
	require.NoError(t, conn.Init(ctx, kvconn.Options{QuorumAddress: kvconn.MemScheme, TableFlavor: flavor}))
	t.Cleanup(func() { require.NoError(t, conn.Close()) })
	store, err := conn.Store()
	require.NoError(t, err)
	return &testEnv{conn: conn, catalog: catalog.New(store, nil), store: store, metrics: NewMetrics()}
}

func strPtr(s string) *string { return &s }

// kvColumns is the table k INT PRIMARY KEY, v VARCHAR.
var kvColumns = []catalog.ColumnDef{
	{Name: "k", Type: types.Int},
	{Name: "v", Type: types.VarChar, Nullable: true},
}

func (e *testEnv) create(t *testing.T, name string, cols []catalog.ColumnDef, transactional bool) {
	_, err := e.catalog.CreateTable(context.Background(), name, cols, []string{cols[0].Name}, transactional)
	require.NoError(t, err)
}

func (e *testEnv) open(t *testing.T, name string) *Table {
	return e.openWith(t, name, func(*Config) {})
}

func (e *testEnv) openWith(t *testing.T, name string, tweak func(*Config)) *Table {
	ctx := context.Background()
	desc, err := e.catalog.ReadTable(ctx, name)
	require.NoError(t, err)
	cols, err := e.catalog.ResolveColumns(ctx, name)
	require.NoError(t, err)
	coord, err := e.conn.Coordinator()
	require.NoError(t, err)
	cfg := Config{
		Store:        e.store,
		Coordinator:  coord,
		Capabilities: CapabilitiesOf(e.conn.Flavor()),
		Metrics:      e.metrics,
	}
	tweak(&cfg)
	tbl, err := New(cfg, desc, cols)
	require.NoError(t, err)
	t.Cleanup(tbl.Close)
	return tbl
}

func row(ds ...tree.Datum) tree.Datums { return ds }

func dint(v int64) tree.Datum { return tree.NewDInt(v) }

func dstr(v string) tree.Datum { return tree.NewDString(v) }

func insert(t *testing.T, tbl *Table, rows ...tree.Datums) {
	for _, r := range rows {
		require.NoError(t, tbl.Insert(context.Background(), r))
	}
}

func scan(t *testing.T, tbl *Table, filters []tree.TypedExpr, projection []int) []string {
	ctx := context.Background()
	it, err := tbl.Scan(ctx, filters, projection)
	require.NoError(t, err)
	defer it.Close()
	var out []string
	for {
		ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, it.Datums().String())
	}
}

func cmp(op tree.ComparisonOperator, idx int, typ *types.T, d tree.Datum) tree.TypedExpr {
	return tree.NewTypedComparisonExpr(op, tree.NewIndexedVar(idx, typ), tree.NewLiteral(typ, d))
}

func TestCapabilitiesOf(t *testing.T) {
	require.Equal(t, Capabilities{}, CapabilitiesOf(kvconn.Scan))
	require.Equal(t, Capabilities{FilterPushdown: true}, CapabilitiesOf(kvconn.Filter))
	require.Equal(t, Capabilities{FilterPushdown: true, ProjectPushdown: true},
		CapabilitiesOf(kvconn.FilterProject))
}

func TestInsertScanRoundTrip(t *testing.T) {
	for _, flavor := range []kvconn.Flavor{kvconn.Scan, kvconn.Filter, kvconn.FilterProject} {
		t.Run(flavor.String(), func(t *testing.T) {
			e := newEnv(t, flavor)
			e.create(t, "t", kvColumns, false)
			tbl := e.open(t, "t")
			require.Equal(t, CapabilitiesOf(flavor), tbl.Capabilities())
			insert(t, tbl, row(dint(5), dstr("x")))
			require.Equal(t, []string{"(5, 'x')"}, scan(t, tbl, nil, nil))
		})
	}
}

func TestScanOrder(t *testing.T) {
	e := newEnv(t, kvconn.Scan)
	e.create(t, "t", kvColumns, false)
	tbl := e.open(t, "t")
	insert(t, tbl, row(dint(3), dstr("c")), row(dint(-1), dstr("z")), row(dint(10), dstr("a")))
	require.Equal(t, []string{"(-1, 'z')", "(3, 'c')", "(10, 'a')"}, scan(t, tbl, nil, nil))
}

func TestScanFilters(t *testing.T) {
	keyRange := []tree.TypedExpr{
		cmp(tree.GE, 0, types.Int, dint(2)),
		cmp(tree.LT, 0, types.Int, dint(4)),
	}
	byValue := []tree.TypedExpr{cmp(tree.EQ, 1, types.VarChar, dstr("b"))}
	disjunction := []tree.TypedExpr{tree.NewTypedOrExpr(byValue[0], keyRange[0])}

	t.Run("pushed", func(t *testing.T) {
		e := newEnv(t, kvconn.Filter)
		e.create(t, "t", kvColumns, false)
		tbl := e.open(t, "t")
		insert(t, tbl,
			row(dint(1), dstr("a")), row(dint(2), dstr("b")), row(dint(3), dstr("c")),
			row(dint(4), dstr("b")), row(dint(5), tree.DNull))
		require.Equal(t, []string{"(2, 'b')", "(3, 'c')"}, scan(t, tbl, keyRange, nil))
		require.Equal(t, []string{"(2, 'b')", "(4, 'b')"}, scan(t, tbl, byValue, nil))
		require.Equal(t, 2.0, testutil.ToFloat64(e.metrics.FiltersPushed.WithLabelValues("t")))

		_, err := tbl.Scan(context.Background(), disjunction, nil)
		require.ErrorIs(t, err, pushdown.ErrUnsupportedPredicate)
		require.Equal(t, pgcode.FeatureNotSupported, pgerror.GetPGCode(err))
	})

	t.Run("ignored", func(t *testing.T) {
		e := newEnv(t, kvconn.Scan)
		e.create(t, "t", kvColumns, false)
		tbl := e.open(t, "t")
		insert(t, tbl, row(dint(1), dstr("a")), row(dint(2), dstr("b")))
		require.Equal(t, []string{"(1, 'a')", "(2, 'b')"}, scan(t, tbl, byValue, nil))
		require.Equal(t, []string{"(1, 'a')", "(2, 'b')"}, scan(t, tbl, disjunction, nil))
	})
}

func TestScanProjection(t *testing.T) {
	cols := append(append([]catalog.ColumnDef(nil), kvColumns...),
		catalog.ColumnDef{Name: "n", Type: types.BigInt, Nullable: true})

	e := newEnv(t, kvconn.FilterProject)
	e.create(t, "t", cols, false)
	tbl := e.open(t, "t")
	insert(t, tbl,
		row(dint(1), dstr("a"), dint(10)),
		row(dint(2), dstr("b"), tree.DNull),
		row(dint(3), tree.DNull, tree.DNull),
	)
	require.Equal(t, []string{"('a', 1)", "('b', 2)", "(NULL, 3)"}, scan(t, tbl, nil, []int{1, 0}))
	require.Equal(t, []string{"(10)", "(NULL)", "(NULL)"}, scan(t, tbl, nil, []int{2}))
	// Rows whose projected columns are all NULL are still returned.
	require.Equal(t, []string{"(1)", "(2)", "(3)"}, scan(t, tbl, nil, []int{0}))
	// Filtered columns need not be projected.
	require.Equal(t, []string{"(2)"}, scan(t, tbl,
		[]tree.TypedExpr{cmp(tree.EQ, 1, types.VarChar, dstr("b"))}, []int{0}))

	_, err := tbl.Scan(context.Background(), nil, []int{3})
	require.True(t, errors.HasAssertionFailure(err))

	// Without project pushdown the projection is ignored.
	e = newEnv(t, kvconn.Filter)
	e.create(t, "t", cols, false)
	tbl = e.open(t, "t")
	insert(t, tbl, row(dint(1), dstr("a"), dint(10)))
	require.Equal(t, []string{"(1, 'a', 10)"}, scan(t, tbl, nil, []int{1}))
}

func TestInsertNulls(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, kvconn.Scan)
	e.create(t, "t", []catalog.ColumnDef{
		{Name: "k", Type: types.Int},
		{Name: "v", Type: types.VarChar, Nullable: true},
		{Name: "n", Type: types.BigInt, Default: strPtr("7")},
		{Name: "m", Type: types.BigInt},
	}, false)
	tbl := e.open(t, "t")

	insert(t, tbl, row(dint(1), dstr("a"), dint(8), dint(3)))
	require.Equal(t, []string{"(1, 'a', 8, 3)"}, scan(t, tbl, nil, nil))
	// Overwriting with NULL leaves no stale value and NULL takes the default.
	insert(t, tbl, row(dint(1), tree.DNull, tree.DNull, dint(3)))
	require.Equal(t, []string{"(1, NULL, 7, 3)"}, scan(t, tbl, nil, nil))

	for _, tc := range []struct {
		name string
		row  tree.Datums
		code pgcode.Code
	}{
		{"null key", row(tree.DNull, dstr("a"), dint(1), dint(1)), pgcode.NotNullViolation},
		{"null not nullable", row(dint(2), dstr("a"), dint(1), tree.DNull), pgcode.NotNullViolation},
		{"too few values", row(dint(2), dstr("a")), pgcode.Syntax},
		{"wrong type", row(dint(2), dint(5), dint(1), dint(1)), pgcode.DatatypeMismatch},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tbl.Insert(ctx, tc.row)
			require.Error(t, err)
			require.Equal(t, tc.code, pgerror.GetPGCode(err))
		})
	}
	require.Equal(t, []string{"(1, NULL, 7, 3)"}, scan(t, tbl, nil, nil))
	require.Equal(t, 2.0, testutil.ToFloat64(e.metrics.RowsWritten.WithLabelValues("t")))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, kvconn.Scan)
	e.create(t, "t", kvColumns, false)
	tbl := e.open(t, "t")
	insert(t, tbl, row(dint(1), dstr("a")), row(dint(2), dstr("b")), row(dint(3), dstr("c")))

	require.NoError(t, tbl.Delete(ctx, row(dint(1), dint(3), dint(9))))
	require.Equal(t, []string{"(2, 'b')"}, scan(t, tbl, nil, nil))
	require.NoError(t, tbl.Delete(ctx, nil))

	err := tbl.Delete(ctx, row(tree.DNull))
	require.Equal(t, pgcode.NotNullViolation, pgerror.GetPGCode(err))
	require.Equal(t, 3.0, testutil.ToFloat64(e.metrics.RowsDeleted.WithLabelValues("t")))
}

func TestIndexedTable(t *testing.T) {
	for _, transactional := range []bool{false, true} {
		name := "best-effort"
		if transactional {
			name = "transactional"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, kvconn.Scan)
			e.create(t, "t", kvColumns, transactional)
			require.NoError(t, e.catalog.CreateIndex(ctx, "i", catalog.IndexKeyValue, "t", []string{"v"}, nil))
			tbl := e.open(t, "t")

			lookup := func(v string) []string {
				rows, err := tbl.LookupByIndex(ctx, "v", dstr(v))
				require.NoError(t, err)
				var out []string
				for _, r := range rows {
					out = append(out, r.String())
				}
				return out
			}
			insert(t, tbl, row(dint(1), dstr("a")), row(dint(2), dstr("b")), row(dint(3), dstr("a")))
			require.Equal(t, []string{"(1, 'a')", "(3, 'a')"}, lookup("a"))

			insert(t, tbl, row(dint(1), dstr("b")))
			require.Equal(t, []string{"(3, 'a')"}, lookup("a"))
			require.Equal(t, []string{"(1, 'b')", "(2, 'b')"}, lookup("b"))

			require.NoError(t, tbl.Delete(ctx, row(dint(2))))
			require.Equal(t, []string{"(1, 'b')"}, lookup("b"))

			entries, err := kv.ScanAll(ctx, e.store.Table("t.KEY_VALUE.i"), kv.ScanRequest{})
			require.NoError(t, err)
			require.Len(t, entries, 2)

			_, err = tbl.LookupByIndex(ctx, "k", dint(1))
			require.ErrorIs(t, err, secondaryindex.ErrColumnNotIndexed)
			_, err = tbl.LookupByIndex(ctx, "nope", dstr("a"))
			require.ErrorIs(t, err, catalog.ErrColumnNotFound)
		})
	}
}

func TestHandleFollowsIndexChanges(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, kvconn.Scan)
	e.create(t, "t", kvColumns, false)
	tbl := e.openWith(t, "t", func(cfg *Config) { cfg.Catalog = e.catalog })
	insert(t, tbl, row(dint(1), dstr("a")))

	var duringBuild error
	builder := catalog.New(e.store, &catalog.TestingKnobs{
		BeforeIndexBackfill: func() error {
			duringBuild = tbl.Insert(ctx, row(dint(2), dstr("a")))
			return nil
		},
	})
	require.NoError(t, builder.CreateIndex(ctx, "i", catalog.IndexKeyValue, "t", []string{"v"}, nil))
	require.ErrorIs(t, duringBuild, catalog.ErrTableLocked)
	require.Equal(t, pgcode.ObjectNotInPrerequisiteState, pgerror.GetPGCode(duringBuild))

	// The handle was built before the index and picks it up on its next write.
	require.False(t, tbl.Descriptor().Indexed())
	insert(t, tbl, row(dint(3), dstr("a")))
	require.True(t, tbl.Descriptor().Indexed())
	rows, err := tbl.LookupByIndex(ctx, "v", dstr("a"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, builder.DropIndex(ctx, "t", "i", catalog.IndexKeyValue))
	_, err = tbl.LookupByIndex(ctx, "v", dstr("a"))
	require.ErrorIs(t, err, secondaryindex.ErrColumnNotIndexed)

	require.NoError(t, builder.DropTable(ctx, "t"))
	require.ErrorIs(t, tbl.Insert(ctx, row(dint(4), dstr("b"))), catalog.ErrTableNotFound)
}

func TestLookupWithoutIndex(t *testing.T) {
	e := newEnv(t, kvconn.Scan)
	e.create(t, "t", kvColumns, false)
	tbl := e.open(t, "t")
	_, err := tbl.LookupByIndex(context.Background(), "v", dstr("a"))
	require.ErrorIs(t, err, secondaryindex.ErrColumnNotIndexed)
	require.Equal(t, pgcode.UndefinedObject, pgerror.GetPGCode(err))
}

func TestTransactionalTable(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, kvconn.Scan)
	e.create(t, "t", kvColumns, true)
	tbl := e.open(t, "t")
	insert(t, tbl, row(dint(1), dstr("a")))
	require.NoError(t, tbl.Delete(ctx, row(dint(1))))
	insert(t, tbl, row(dint(2), dstr("b")))
	require.Equal(t, []string{"(2, 'b')"}, scan(t, tbl, nil, nil))

	// Without transactions the table can be read but not written.
	ro := e.openWith(t, "t", func(cfg *Config) { cfg.Coordinator = nil })
	require.ErrorIs(t, ro.Insert(ctx, row(dint(3), dstr("c"))), kv.ErrTxnUnsupported)
	require.ErrorIs(t, ro.Delete(ctx, row(dint(2))), kv.ErrTxnUnsupported)
	require.Equal(t, []string{"(2, 'b')"}, scan(t, ro, nil, nil))
}

func TestNoPrimaryKey(t *testing.T) {
	e := newEnv(t, kvconn.Scan)
	desc := catalog.TableDescriptor{Name: "t"}
	cols := []catalog.ColumnDescriptor{{Name: "v", Type: types.VarChar, Nullable: true}}
	_, err := New(Config{Store: e.store}, desc, cols)
	require.True(t, errors.HasAssertionFailure(err))
	require.Equal(t, pgcode.Internal, pgerror.GetPGCode(err))
}

func TestIteratorClose(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, kvconn.Scan)
	e.create(t, "t", kvColumns, false)
	tbl := e.open(t, "t")
	insert(t, tbl, row(dint(1), dstr("a")), row(dint(2), dstr("b")))

	it, err := tbl.Scan(ctx, nil, nil)
	require.NoError(t, err)
	ok, err := it.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	it.Close()
	it.Close()
	ok, err = it.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.RowsScanned.WithLabelValues("t")))
}
