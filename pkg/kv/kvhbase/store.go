// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kvhbase implements the kv interfaces against an HBase cluster
// through gohbase. HBase offers no multi-row transactions, so this store is
// not a kv.Coordinator.
package kvhbase

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/tsuna/gohbase"
	"github.com/tsuna/gohbase/hrpc"
)

// Store is a kv.Store backed by an HBase cluster.
type Store struct {
	client gohbase.Client
	admin  gohbase.AdminClient
}

var _ kv.Store = (*Store)(nil)

// Open connects to the HBase cluster whose ZooKeeper quorum is given as a
// comma-separated host:port list. Connections are established lazily by the
// first request.
func Open(ctx context.Context, quorum string, opts ...gohbase.Option) *Store {
	log.Infof(ctx, "connecting to hbase quorum %s", quorum)
	return &Store{
		client: gohbase.NewClient(quorum, opts...),
		admin:  gohbase.NewAdminClient(quorum, opts...),
	}
}

// Admin implements kv.Store.
func (s *Store) Admin() kv.Admin {
	return (*admin)(s)
}

// Table implements kv.Store.
func (s *Store) Table(name string) kv.Table {
	return &table{name: name, client: s.client}
}

// Close implements kv.Store.
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

type admin Store

var _ kv.Admin = (*admin)(nil)

// CreateTable implements kv.Admin.
func (a *admin) CreateTable(ctx context.Context, name string, families ...string) error {
	if len(families) == 0 {
		return errors.Newf("table %q needs at least one column family", name)
	}
	fams := make(map[string]map[string]string, len(families))
	for _, f := range families {
		fams[f] = nil
	}
	err := a.admin.CreateTable(hrpc.NewCreateTable(ctx, []byte(name), fams))
	return translateError(err, "creating table %q", name)
}

// TableExists implements kv.Admin.
func (a *admin) TableExists(ctx context.Context, name string) (bool, error) {
	names, err := a.listTables(ctx, "^"+regexp.QuoteMeta(name)+"$")
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// DisableTable implements kv.Admin.
func (a *admin) DisableTable(ctx context.Context, name string) error {
	err := a.admin.DisableTable(hrpc.NewDisableTable(ctx, []byte(name)))
	return translateError(err, "disabling table %q", name)
}

// DeleteTable implements kv.Admin.
func (a *admin) DeleteTable(ctx context.Context, name string) error {
	err := a.admin.DeleteTable(hrpc.NewDeleteTable(ctx, []byte(name)))
	return translateError(err, "deleting table %q", name)
}

// ListTables implements kv.Admin.
func (a *admin) ListTables(ctx context.Context) ([]string, error) {
	return a.listTables(ctx, ".*")
}

func (a *admin) listTables(ctx context.Context, regex string) ([]string, error) {
	req, err := hrpc.NewListTableNames(ctx, hrpc.ListRegex(regex))
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}
	tables, err := a.admin.ListTableNames(req)
	if err != nil {
		return nil, translateError(err, "listing tables")
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, string(t.GetQualifier()))
	}
	sort.Strings(names)
	return names, nil
}

// hbaseErrors maps the names of HBase exceptions, as they appear in the
// messages of errors returned by gohbase, to the kv errors they stand for.
var hbaseErrors = []struct {
	exception string
	err       error
}{
	{"TableExistsException", kv.ErrTableExists},
	{"TableNotFoundException", kv.ErrTableNotFound},
	{"TableNotDisabledException", kv.ErrTableEnabled},
	{"TableNotEnabledException", kv.ErrTableDisabled},
	{"NoSuchColumnFamilyException", kv.ErrUnknownFamily},
}

// translateError wraps err with the given context, marking it with the
// matching kv error so that callers can test for it with errors.Is.
func translateError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, e := range hbaseErrors {
		if strings.Contains(msg, e.exception) {
			err = errors.Mark(err, e.err)
			break
		}
	}
	return errors.Wrapf(err, format, args...)
}
