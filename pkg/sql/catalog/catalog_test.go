// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvpebble"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) kv.Store {
	ctx := context.Background()
	s, err := kvpebble.Open(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	for _, name := range catalogkeys.SystemTables {
		require.NoError(t, s.Admin().CreateTable(ctx, name, catalogkeys.Family))
	}
	return s
}

func newCatalog(t *testing.T, knobs *TestingKnobs) (*Catalog, kv.Store) {
	s := openStore(t)
	c := New(s, knobs)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return c, s
}

func strPtr(s string) *string { return &s }

var testColumns = []ColumnDef{
	{Name: "k", Type: types.Int, Nullable: true},
	{Name: "v", Type: types.VarChar, Nullable: true, Precision: 20},
	{Name: "n", Type: types.BigInt, Default: strPtr("7"), Comment: "counter"},
}

func tableExists(t *testing.T, s kv.Store, name string) bool {
	ok, err := s.Admin().TableExists(context.Background(), name)
	require.NoError(t, err)
	return ok
}

func columnRows(t *testing.T, s kv.Store, table string) []kv.Row {
	rows, err := kv.ScanAll(context.Background(), s.Table(catalogkeys.ColumnCatalog), kv.ScanRequest{
		Prefix: catalogkeys.ColumnKeyPrefix(table),
	})
	require.NoError(t, err)
	return rows
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()
	c, s := newCatalog(t, nil)

	desc, err := c.CreateTable(ctx, "t", testColumns, []string{"k"}, true)
	require.NoError(t, err)
	require.True(t, tableExists(t, s, "t"))

	read, err := c.ReadTable(ctx, "t")
	require.NoError(t, err)
	require.Equal(t, desc, read)
	require.Equal(t, TableDescriptor{
		Name:            "t",
		Path:            "t",
		IsTransactional: true,
		IndexType:       IndexNone,
		LockStatus:      Unlocked,
		CreatedAt:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Charset:         DefaultCharset,
		PrimaryKey:      []string{"k"},
	}, read)

	// The catalog cells are plain strings.
	rows, err := s.Table(catalogkeys.TableCatalog).Get(ctx, []byte("t"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	v, _ := rows[0].Value(catalogkeys.Family, catalogkeys.PrimaryQualifier)
	require.Equal(t, "k,", string(v))
	v, _ = rows[0].Value(catalogkeys.Family, catalogkeys.IsTransactionalQualifier)
	require.Equal(t, "true", string(v))
	v, _ = rows[0].Value(catalogkeys.Family, catalogkeys.IndexTypeQualifier)
	require.Equal(t, "NONE", string(v))
	rows, err = s.Table(catalogkeys.ColumnCatalog).Get(ctx, []byte("t.v"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	v, _ = rows[0].Value(catalogkeys.Family, catalogkeys.DatatypeQualifier)
	require.Equal(t, "VARCHAR", string(v))
	v, _ = rows[0].Value(catalogkeys.Family, catalogkeys.PositionQualifier)
	require.Equal(t, "1", string(v))

	cols, err := c.ResolveColumns(ctx, "t")
	require.NoError(t, err)
	require.Equal(t, []ColumnDescriptor{
		{Name: "k", Type: types.Int, Ordinal: 0, IsPrimary: true, Nullable: false},
		{Name: "v", Type: types.VarChar, Precision: 20, Ordinal: 1, Nullable: true},
		{Name: "n", Type: types.BigInt, Ordinal: 2, Default: tree.NewDInt(7), Comment: "counter"},
	}, cols)

	_, err = c.CreateTable(ctx, "t", testColumns, []string{"k"}, false)
	require.ErrorIs(t, err, ErrTableExists)
	require.Equal(t, pgcode.DuplicateRelation, pgerror.GetPGCode(err))

	descs, err := c.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, "t", descs[0].Name)
}

func TestCreateTableValidation(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name     string
		table    string
		cols     []ColumnDef
		pk       []string
		expected error
		code     pgcode.Code
	}{
		{
			name:  "reserved column",
			table: "t",
			cols: []ColumnDef{
				{Name: "k", Type: types.Int}, {Name: "ID", Type: types.Int},
			},
			pk:       []string{"k"},
			expected: ErrIllegalColumnName,
			code:     pgcode.ReservedName,
		},
		{
			name:     "no primary key",
			table:    "t",
			cols:     []ColumnDef{{Name: "k", Type: types.Int}},
			expected: ErrPrimaryKeyMissed,
			code:     pgcode.InvalidTableDefinition,
		},
		{
			name:     "composite primary key",
			table:    "t",
			cols:     []ColumnDef{{Name: "a", Type: types.Int}, {Name: "b", Type: types.Int}},
			pk:       []string{"a", "b"},
			expected: ErrInvalidDefinition,
			code:     pgcode.InvalidTableDefinition,
		},
		{
			name:     "unknown primary key",
			table:    "t",
			cols:     []ColumnDef{{Name: "a", Type: types.Int}},
			pk:       []string{"b"},
			expected: ErrInvalidDefinition,
			code:     pgcode.InvalidTableDefinition,
		},
		{
			name:     "duplicate column",
			table:    "t",
			cols:     []ColumnDef{{Name: "a", Type: types.Int}, {Name: "a", Type: types.Int}},
			pk:       []string{"a"},
			expected: ErrInvalidDefinition,
			code:     pgcode.InvalidTableDefinition,
		},
		{
			name:     "dotted table name",
			table:    "a.b",
			cols:     []ColumnDef{{Name: "a", Type: types.Int}},
			pk:       []string{"a"},
			expected: ErrInvalidDefinition,
			code:     pgcode.InvalidTableDefinition,
		},
		{
			name:     "catalog table name",
			table:    catalogkeys.TableCatalog,
			cols:     []ColumnDef{{Name: "a", Type: types.Int}},
			pk:       []string{"a"},
			expected: ErrInvalidDefinition,
			code:     pgcode.InvalidTableDefinition,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, s := newCatalog(t, nil)
			_, err := c.CreateTable(ctx, tc.table, tc.cols, tc.pk, false)
			require.ErrorIs(t, err, tc.expected)
			require.Equal(t, tc.code, pgerror.GetPGCode(err))

			// Nothing was written.
			names, err := s.Admin().ListTables(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{catalogkeys.ColumnCatalog, catalogkeys.TableCatalog}, names)
			descs, err := c.ListTables(ctx)
			require.NoError(t, err)
			require.Empty(t, descs)
		})
	}

	t.Run("invalid default", func(t *testing.T) {
		c, _ := newCatalog(t, nil)
		_, err := c.CreateTable(ctx, "t", []ColumnDef{
			{Name: "k", Type: types.Int},
			{Name: "v", Type: types.Int, Default: strPtr("seven")},
		}, []string{"k"}, false)
		require.Error(t, err)
		require.Equal(t, pgcode.InvalidTextRepresentation, pgerror.GetPGCode(err))
	})
}

func TestCreateTableRedrive(t *testing.T) {
	ctx := context.Background()
	crash := errors.New("crash")
	fail := true
	c, s := newCatalog(t, &TestingKnobs{
		AfterCatalogWrite: func() error {
			if fail {
				return crash
			}
			return nil
		},
	})

	cols := append([]ColumnDef(nil), testColumns...)
	cols = append(cols, ColumnDef{Name: "gone", Type: types.Bool})
	_, err := c.CreateTable(ctx, "t", cols, []string{"k"}, false)
	require.ErrorIs(t, err, crash)
	require.False(t, tableExists(t, s, "t"))
	require.Len(t, columnRows(t, s, "t"), 4)

	// Running the creation again completes it, with the new definition.
	fail = false
	_, err = c.CreateTable(ctx, "t", testColumns, []string{"k"}, false)
	require.NoError(t, err)
	require.True(t, tableExists(t, s, "t"))
	resolved, err := c.ResolveColumns(ctx, "t")
	require.NoError(t, err)
	require.Len(t, resolved, 3)
}

func TestDropTable(t *testing.T) {
	ctx := context.Background()
	c, s := newCatalog(t, nil)
	_, err := c.CreateTable(ctx, "t", testColumns, []string{"k"}, false)
	require.NoError(t, err)
	// A table whose name extends the dropped one keeps its columns.
	_, err = c.CreateTable(ctx, "tt", testColumns, []string{"k"}, false)
	require.NoError(t, err)
	require.NoError(t, c.CreateIndex(ctx, "i", IndexKeyValue, "t", []string{"v"}, nil))
	require.True(t, tableExists(t, s, "t.KEY_VALUE.i"))

	require.NoError(t, c.DropTable(ctx, "t"))
	require.False(t, tableExists(t, s, "t"))
	require.False(t, tableExists(t, s, "t.KEY_VALUE.i"))
	_, err = c.ReadTable(ctx, "t")
	require.ErrorIs(t, err, ErrTableNotFound)
	require.Equal(t, pgcode.UndefinedTable, pgerror.GetPGCode(err))
	require.Empty(t, columnRows(t, s, "t"))
	require.Len(t, columnRows(t, s, "tt"), 3)

	// Dropping again is harmless.
	require.NoError(t, c.DropTable(ctx, "t"))

	// Catalog rows left without physical table are removed too.
	require.NoError(t, s.Admin().DisableTable(ctx, "tt"))
	require.NoError(t, s.Admin().DeleteTable(ctx, "tt"))
	require.NoError(t, c.DropTable(ctx, "tt"))
	require.Empty(t, columnRows(t, s, "tt"))

	require.ErrorIs(t, c.DropTable(ctx, catalogkeys.ColumnCatalog), ErrInvalidDefinition)
}

func TestResolveColumnsErrors(t *testing.T) {
	ctx := context.Background()
	c, s := newCatalog(t, nil)
	_, err := c.ResolveColumns(ctx, "missing")
	require.ErrorIs(t, err, ErrTableNotFound)

	_, err = c.CreateTable(ctx, "t", testColumns, []string{"k"}, false)
	require.NoError(t, err)
	require.NoError(t, s.Table(catalogkeys.ColumnCatalog).Apply(ctx, kv.Put([]byte("t.v"),
		kv.Cell{Family: catalogkeys.Family, Qualifier: catalogkeys.DatatypeQualifier, Value: []byte("GEOMETRY")})))
	_, err = c.ResolveColumns(ctx, "t")
	require.True(t, errors.HasAssertionFailure(err))
	require.Equal(t, pgcode.Internal, pgerror.GetPGCode(err))
}

func TestIndexType(t *testing.T) {
	typ, err := ParseIndexType("key_value")
	require.NoError(t, err)
	require.Equal(t, IndexKeyValue, typ)
	require.Equal(t, "KEY_VALUE", typ.String())
	_, err = ParseIndexType("btree")
	require.Equal(t, pgcode.InvalidParameterValue, pgerror.GetPGCode(err))
	require.Equal(t, "IndexType(9)", IndexType(9).String())
}
