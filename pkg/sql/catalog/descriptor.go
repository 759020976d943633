// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/rowenc"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/cockroachdb/kvsql/pkg/util/timeutil"
)

// DefaultCharset is recorded for every table. Strings are stored as UTF-8.
const DefaultCharset = "UTF-8"

// IndexType is the kind of secondary index of a table.
type IndexType int

const (
	// IndexNone marks a table without secondary index.
	IndexNone IndexType = iota
	// IndexKeyValue is a secondary index kept in a key-value table.
	IndexKeyValue
)

var indexTypeNames = [...]string{
	IndexNone:     "NONE",
	IndexKeyValue: "KEY_VALUE",
}

func (t IndexType) String() string {
	if t < 0 || int(t) >= len(indexTypeNames) {
		return "IndexType(" + strconv.Itoa(int(t)) + ")"
	}
	return indexTypeNames[t]
}

// ParseIndexType parses an index type name, ignoring case.
func ParseIndexType(s string) (IndexType, error) {
	for i, n := range indexTypeNames {
		if strings.EqualFold(s, n) {
			return IndexType(i), nil
		}
	}
	return 0, pgerror.Newf(pgcode.InvalidParameterValue,
		"unknown index type %q, expected one of %s", s, strings.Join(indexTypeNames[:], ", "))
}

// LockStatus tells whether a schema change is in progress on a table.
type LockStatus int

const (
	// Unlocked is the status of a table at rest.
	Unlocked LockStatus = iota
	// Locked is set while an index is being built.
	Locked
)

func (s LockStatus) String() string {
	if s == Locked {
		return "LOCKED"
	}
	return "UNLOCKED"
}

// TableDescriptor is the table catalog entry of a table.
type TableDescriptor struct {
	Name            string
	Path            string
	IsTransactional bool
	IndexType       IndexType
	LockStatus      LockStatus
	CreatedAt       time.Time
	Charset         string
	Comment         string
	// PrimaryKey lists the primary key columns. Exactly one is supported.
	PrimaryKey []string
	// IndexedColumns lists the columns covered by the secondary index.
	IndexedColumns []string
	IndexName      string
}

// Indexed reports whether the table has a secondary index.
func (d TableDescriptor) Indexed() bool {
	return d.IndexType != IndexNone && d.IndexName != ""
}

// PendingIndex returns the name of the index whose build locked the table,
// or the empty string when no build is in progress. A build interrupted by
// a crash leaves its name behind.
func (d TableDescriptor) PendingIndex() string {
	if d.LockStatus != Locked || d.Indexed() {
		return ""
	}
	return d.IndexName
}

// IndexTable returns the name of the table holding the secondary index, or
// the empty string when the table has none.
func (d TableDescriptor) IndexTable() string {
	if !d.Indexed() {
		return ""
	}
	return catalogkeys.IndexTableName(d.Name, d.IndexType.String(), d.IndexName)
}

// ColumnDef is a column as declared in CREATE TABLE.
type ColumnDef struct {
	Name     string
	Type     *types.T
	Nullable bool
	// Default is the textual default value, nil when the column has none.
	Default   *string
	Precision int
	Comment   string
}

// ColumnDescriptor is a column of a table as recorded in the column catalog.
type ColumnDescriptor struct {
	Name      string
	Type      *types.T
	Precision int
	// Ordinal is the 0-based position of the column in the table.
	Ordinal   int
	IsPrimary bool
	Nullable  bool
	// Default is the parsed default value, nil when the column has none.
	Default tree.Datum
	Comment string
}

func encodeBool(b bool) []byte {
	return []byte(strconv.FormatBool(b))
}

// encodeList stores a list of names as "a,b,".
func encodeList(names []string) []byte {
	if len(names) == 0 {
		return nil
	}
	return []byte(strings.Join(names, ",") + ",")
}

func decodeList(b []byte) []string {
	var names []string
	for _, n := range strings.Split(string(b), ",") {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

func cell(qualifier string, value []byte) kv.Cell {
	return kv.Cell{Family: catalogkeys.Family, Qualifier: qualifier, Value: value}
}

// tableRow returns the table catalog row of the descriptor.
func (d TableDescriptor) tableRow() kv.Mutation {
	m := kv.Put([]byte(d.Name),
		cell(catalogkeys.TablePathQualifier, []byte(d.Path)),
		cell(catalogkeys.IsTransactionalQualifier, encodeBool(d.IsTransactional)),
		cell(catalogkeys.LockStatusQualifier, []byte(d.LockStatus.String())),
		cell(catalogkeys.CreateTimeQualifier, []byte(strconv.FormatInt(d.CreatedAt.UnixMilli(), 10))),
		cell(catalogkeys.CharsetQualifier, []byte(d.Charset)),
		cell(catalogkeys.CommentQualifier, []byte(d.Comment)),
		cell(catalogkeys.PrimaryQualifier, encodeList(d.PrimaryKey)),
	)
	m.Puts = append(m.Puts, d.indexCells()...)
	return m
}

func (d TableDescriptor) indexCells() []kv.Cell {
	return []kv.Cell{
		cell(catalogkeys.IndexTypeQualifier, []byte(d.IndexType.String())),
		cell(catalogkeys.IndexColumnsQualifier, encodeList(d.IndexedColumns)),
		cell(catalogkeys.IndexNameQualifier, []byte(d.IndexName)),
	}
}

// corrupt reports a catalog row that cannot be parsed.
func corrupt(err error, format string, args ...interface{}) error {
	return errors.NewAssertionErrorWithWrappedErrf(err, format, args...)
}

func decodeTableDescriptor(row kv.Row) (TableDescriptor, error) {
	d := TableDescriptor{Name: string(row.Key)}
	for _, c := range row.Cells {
		if c.Family != catalogkeys.Family {
			continue
		}
		v := string(c.Value)
		var err error
		switch c.Qualifier {
		case catalogkeys.TablePathQualifier:
			d.Path = v
		case catalogkeys.IsTransactionalQualifier:
			d.IsTransactional, err = strconv.ParseBool(v)
		case catalogkeys.IndexTypeQualifier:
			d.IndexType, err = ParseIndexType(v)
		case catalogkeys.LockStatusQualifier:
			d.LockStatus = Unlocked
			if v == Locked.String() {
				d.LockStatus = Locked
			}
		case catalogkeys.CreateTimeQualifier:
			var ms int64
			ms, err = strconv.ParseInt(v, 10, 64)
			d.CreatedAt = timeutil.FromUnixMillis(ms)
		case catalogkeys.CharsetQualifier:
			d.Charset = v
		case catalogkeys.CommentQualifier:
			d.Comment = v
		case catalogkeys.PrimaryQualifier:
			d.PrimaryKey = decodeList(c.Value)
		case catalogkeys.IndexColumnsQualifier:
			d.IndexedColumns = decodeList(c.Value)
		case catalogkeys.IndexNameQualifier:
			d.IndexName = v
		}
		if err != nil {
			return TableDescriptor{}, corrupt(err, "table %q: invalid %s %q", d.Name, c.Qualifier, v)
		}
	}
	return d, nil
}

// columnRow returns the column catalog row of a column.
func columnRow(table string, ordinal int, col ColumnDef) kv.Mutation {
	m := kv.Put(catalogkeys.ColumnKey(table, col.Name),
		cell(catalogkeys.NullableQualifier, encodeBool(col.Nullable)),
		cell(catalogkeys.DatatypeQualifier, []byte(col.Type.Name())),
		cell(catalogkeys.PrecisionQualifier, []byte(strconv.Itoa(col.Precision))),
		cell(catalogkeys.PositionQualifier, []byte(strconv.Itoa(ordinal))),
		cell(catalogkeys.CommentQualifier, []byte(col.Comment)),
	)
	if col.Default != nil {
		m.Puts = append(m.Puts, cell(catalogkeys.DefaultQualifier, []byte(*col.Default)))
	}
	return m
}

func decodeColumnDescriptor(table string, row kv.Row) (ColumnDescriptor, error) {
	name, ok := catalogkeys.ColumnName(table, row.Key)
	if !ok {
		return ColumnDescriptor{}, errors.AssertionFailedf(
			"column catalog row %q does not belong to table %q", row.Key, table)
	}
	d := ColumnDescriptor{Name: name, Ordinal: -1}
	var def *string
	for _, c := range row.Cells {
		if c.Family != catalogkeys.Family {
			continue
		}
		v := string(c.Value)
		var err error
		switch c.Qualifier {
		case catalogkeys.NullableQualifier:
			d.Nullable, err = strconv.ParseBool(v)
		case catalogkeys.DatatypeQualifier:
			typ, ok := types.Lookup(v)
			if !ok {
				return ColumnDescriptor{}, errors.AssertionFailedf(
					"column %q of table %q has unknown type %q", name, table, v)
			}
			d.Type = typ
		case catalogkeys.PrecisionQualifier:
			d.Precision, err = strconv.Atoi(v)
		case catalogkeys.PositionQualifier:
			d.Ordinal, err = strconv.Atoi(v)
		case catalogkeys.DefaultQualifier:
			def = &v
		case catalogkeys.CommentQualifier:
			d.Comment = v
		}
		if err != nil {
			return ColumnDescriptor{}, corrupt(err, "column %q of table %q: invalid %s %q",
				name, table, c.Qualifier, v)
		}
	}
	if d.Type == nil || d.Ordinal < 0 {
		return ColumnDescriptor{}, errors.AssertionFailedf(
			"column %q of table %q lacks its type or position", name, table)
	}
	if def != nil {
		datum, err := rowenc.ParseDatum(d.Type, *def)
		if err != nil {
			return ColumnDescriptor{}, corrupt(err, "column %q of table %q: invalid default", name, table)
		}
		d.Default = datum
	}
	return d, nil
}
