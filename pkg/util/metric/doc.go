// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

/*
Package metric collects the prometheus metrics exported by the SQL layer.

Adding a new metric

Components declare their metrics as exported fields of a struct and build it
with a Make function:

	type Metrics struct {
		RowsScanned *prometheus.CounterVec
	}

	func MakeMetrics() Metrics {
		return Metrics{
			RowsScanned: metric.NewCounterVec(metaRowsScanned, "table"),
		}
	}

The struct is then added to a Registry, which registers every field that is
a prometheus.Collector:

	registry.AddMetricStruct(tableMetrics)

Testing

Metric values can be read back with the prometheus testutil package.
*/
package metric
