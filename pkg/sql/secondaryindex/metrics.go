// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package secondaryindex

import (
	"github.com/cockroachdb/kvsql/pkg/util/metric"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metaEntriesWritten = metric.Metadata{
		Name: "secondary_index_entries_written_total",
		Help: "Number of secondary index entries written",
	}
	metaEntriesDeleted = metric.Metadata{
		Name: "secondary_index_entries_deleted_total",
		Help: "Number of stale secondary index entries deleted",
	}
	metaTxnCommits = metric.Metadata{
		Name: "secondary_index_txn_commits_total",
		Help: "Number of committed transactional index operations",
	}
	metaTxnAborts = metric.Metadata{
		Name: "secondary_index_txn_aborts_total",
		Help: "Number of aborted transactional index operations",
	}
)

// Metrics are the counters shared by the engines of a connection.
type Metrics struct {
	EntriesWritten prometheus.Counter
	EntriesDeleted prometheus.Counter
	TxnCommits     prometheus.Counter
	TxnAborts      prometheus.Counter
}

// NewMetrics creates the engine metrics. They are registered with
// metric.Registry.AddMetricStruct.
func NewMetrics() *Metrics {
	return &Metrics{
		EntriesWritten: metric.NewCounter(metaEntriesWritten),
		EntriesDeleted: metric.NewCounter(metaEntriesDeleted),
		TxnCommits:     metric.NewCounter(metaTxnCommits),
		TxnAborts:      metric.NewCounter(metaTxnAborts),
	}
}
