// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pgerror_test

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/stretchr/testify/require"
)

func TestGetPGCode(t *testing.T) {
	sentinel := pgerror.New(pgcode.ReservedName, "reserved")
	testData := []struct {
		err      error
		expected pgcode.Code
	}{
		{errors.New("woo"), pgcode.Uncategorized},
		{pgerror.New(pgcode.InvalidTableDefinition, "woo"), pgcode.InvalidTableDefinition},
		{pgerror.Wrap(errors.New("woo"), pgcode.DuplicateRelation, "ctx"), pgcode.DuplicateRelation},
		{pgerror.Wrap(errors.New("woo"), pgcode.DuplicateRelation, ""), pgcode.DuplicateRelation},
		// The innermost code wins.
		{pgerror.Wrapf(sentinel, pgcode.FeatureNotSupported, "creating %s", "t"), pgcode.ReservedName},
		{errors.Wrap(sentinel, "ctx"), pgcode.ReservedName},
		{errors.AssertionFailedf("boom"), pgcode.Internal},
	}
	for i, test := range testData {
		require.Equal(t, test.expected, pgerror.GetPGCode(test.err), "%d: %v", i, test.err)
	}
	require.Equal(t, pgcode.Uncategorized, pgerror.GetPGCode(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	sentinel := errors.New("sentinel")
	werr := pgerror.Wrapf(sentinel, pgcode.UndefinedTable, "reading %q", "t")
	require.ErrorIs(t, werr, sentinel)
	require.Equal(t, `reading "t": sentinel`, werr.Error())
	require.Nil(t, pgerror.WithCandidateCode(nil, pgcode.Internal))
	require.Contains(t, fmt.Sprintf("%+v", werr), "candidate pg code: 42P01")
}

func TestFlatten(t *testing.T) {
	require.Nil(t, pgerror.Flatten(nil))

	err := errors.WithHint(pgerror.New(pgcode.UndefinedTable, "no such table"), "create it first")
	pg := pgerror.Flatten(errors.Wrap(err, "scan"))
	require.Equal(t, "42P01", pg.Code)
	require.Equal(t, "ERROR", pg.Severity)
	require.Equal(t, "scan: no such table", pg.Message)
	require.Equal(t, "create it first", pg.Hint)
	require.Equal(t, "ERROR: scan: no such table\nSQLSTATE: 42P01\nHINT: create it first", pg.String())

	pg = pgerror.Flatten(errors.AssertionFailedf("boom"))
	require.Equal(t, "XX000", pg.Code)
	require.Equal(t, "internal error: boom", pg.Message)
}

func TestGetSeverity(t *testing.T) {
	unavailable := pgerror.WithSeverity(errors.New("store unavailable"), "FATAL")
	require.Equal(t, "FATAL", pgerror.GetSeverity(unavailable))
	require.Equal(t, "FATAL", pgerror.GetSeverity(errors.Wrap(unavailable, "connecting")))
	require.Equal(t, "FATAL", pgerror.GetSeverity(
		pgerror.WithCandidateCode(unavailable, pgcode.ConfigFile)))

	// The outermost severity wins.
	notice := pgerror.WithSeverity(unavailable, "NOTICE")
	require.Equal(t, "NOTICE", pgerror.GetSeverity(notice))
	require.Equal(t, "store unavailable", notice.Error())

	require.Equal(t, pgerror.DefaultSeverity, pgerror.GetSeverity(
		pgerror.New(pgcode.UndefinedTable, "table does not exist")))
	require.Equal(t, pgerror.DefaultSeverity, pgerror.GetSeverity(fmt.Errorf("plain")))

	pg := pgerror.Flatten(errors.Wrap(unavailable, "connecting"))
	require.Equal(t, "FATAL: connecting: store unavailable\nSQLSTATE: XXUUU", pg.String())
}
