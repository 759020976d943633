// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package catalogkeys defines the layout of the catalog tables and of the
// secondary index tables in the key-value store.
package catalogkeys

import (
	"strings"

	"github.com/cockroachdb/kvsql/pkg/util/encoding"
)

const (
	// TableCatalog is the store table holding one row per SQL table.
	TableCatalog = "table.sys"
	// ColumnCatalog is the store table holding one row per SQL column.
	ColumnCatalog = "column.sys"
	// Family is the column family of the catalog tables and of user tables.
	Family = "cf"
	// RowMarkerQualifier addresses the empty cell written with every row of
	// a user table, so that a row whose other columns are all NULL exists.
	// Column names are never empty.
	RowMarkerQualifier = ""

	// IndexFamily is the column family of secondary index tables.
	IndexFamily = "sif"
	// IndexQualifier is the qualifier of the index cell holding the base row
	// key.
	IndexQualifier = "r"
	// IndexSeparator separates the column name from the value in an index
	// row key.
	IndexSeparator byte = 0x00
)

// Qualifiers of the table catalog.
const (
	TablePathQualifier       = "tablePath"
	IsTransactionalQualifier = "isTransactional"
	IndexTypeQualifier       = "indexType"
	LockStatusQualifier      = "lockStatus"
	CreateTimeQualifier      = "createTime"
	CharsetQualifier         = "charset"
	CommentQualifier         = "comment"
	PrimaryQualifier         = "primary"
	IndexColumnsQualifier    = "index"
	IndexNameQualifier       = "indexName"
)

// Qualifiers of the column catalog. CommentQualifier is shared with the
// table catalog.
const (
	DefaultQualifier   = "default"
	NullableQualifier  = "nullable"
	DatatypeQualifier  = "datatype"
	PrecisionQualifier = "precision"
	PositionQualifier  = "position"
)

// SystemTables lists the catalog tables a connection creates on startup.
var SystemTables = []string{TableCatalog, ColumnCatalog}

// IsSystemTable reports whether name is one of the catalog tables.
func IsSystemTable(name string) bool {
	return name == TableCatalog || name == ColumnCatalog
}

// ColumnKey returns the column catalog row key of a column.
func ColumnKey(table, column string) []byte {
	return []byte(table + "." + column)
}

// ColumnKeyPrefix returns the prefix shared by the column catalog rows of a
// table.
func ColumnKeyPrefix(table string) []byte {
	return []byte(table + ".")
}

// ColumnName extracts the column name from a column catalog row key.
func ColumnName(table string, key []byte) (string, bool) {
	return strings.CutPrefix(string(key), table+".")
}

// IndexTableName returns the name of the store table backing a secondary
// index.
func IndexTableName(table, indexType, indexName string) string {
	return IndexTablePrefix(table) + indexType + "." + indexName
}

// IndexTablePrefix returns the prefix of the names of every index table of
// a table. Table names cannot contain '.', so no other table shares it.
func IndexTablePrefix(table string) string {
	return table + "."
}

// IndexKeyPrefix returns the prefix shared by the index entries of every
// row whose column holds value. The value is escaped and terminated so that
// no entry of another value shares the prefix.
func IndexKeyPrefix(column string, value []byte) []byte {
	key := make([]byte, 0, len(column)+len(value)+4)
	key = append(key, column...)
	key = append(key, IndexSeparator)
	return encoding.EncodeBytesAscending(key, value)
}

// IndexKey returns the row key of the index entry pointing from
// (column, value) to the base row.
func IndexKey(column string, value, row []byte) []byte {
	return append(IndexKeyPrefix(column, value), row...)
}
