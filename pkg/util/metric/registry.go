// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "kvsql"

// Metadata describes a metric.
type Metadata struct {
	Name string
	Help string
}

// NewCounter returns a counter described by metadata.
func NewCounter(metadata Metadata) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      metadata.Name,
		Help:      metadata.Help,
	})
}

// NewCounterVec returns a counter partitioned by the given labels.
func NewCounterVec(metadata Metadata, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      metadata.Name,
		Help:      metadata.Help,
	}, labels)
}

// Registry is a set of metrics.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates a new Registry.
func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// AddMetricStruct registers every exported field of the struct (or pointer
// to struct) that is a prometheus.Collector. Registering the same collector
// twice is a no-op.
func (r *Registry) AddMetricStruct(metricStruct interface{}) {
	v := reflect.Indirect(reflect.ValueOf(metricStruct))
	if v.Kind() != reflect.Struct {
		panic(errors.AssertionFailedf("metric struct must be a struct, got %T", metricStruct))
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		c, ok := v.Field(i).Interface().(prometheus.Collector)
		if !ok || v.Field(i).IsNil() {
			continue
		}
		if err := r.reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(errors.NewAssertionErrorWithWrappedErrf(err, "registering %s", t.Field(i).Name))
		}
	}
}

// Gatherer exposes the registered metrics, e.g. to promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
