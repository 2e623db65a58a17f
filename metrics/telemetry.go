// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics provides the meters of the execution engine.
// Meters discard every measurement until InitializePrometheusMetrics is called.
package metrics

import (
	"net/http"
	"sync"
)

// backend serves every meter, swapped for prometheus by InitializePrometheusMetrics.
var backend registry = noopRegistry{}

type registry interface {
	counterVec(name string, labels []string) CountVecMeter
	histogram(name string, buckets []int64) HistogramMeter
	histogramVec(name string, labels []string, buckets []int64) HistogramVecMeter
	handler() http.Handler
}

// BucketGas spans the gas used by a transaction or a frame.
var BucketGas = []int64{21_000, 30_000, 50_000, 100_000, 250_000, 500_000, 1_000_000, 3_000_000, 10_000_000}

// CountVecMeter is a monotonically increasing counter partitioned by labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// HistogramMeter aggregates measurements into buckets.
type HistogramMeter interface {
	Observe(int64)
}

// HistogramVecMeter is a HistogramMeter partitioned by labels.
type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

// HTTPHandler returns the handler exposing the meters, nil while metrics are disabled.
func HTTPHandler() http.Handler {
	return backend.handler()
}

func CounterVec(name string, labels []string) CountVecMeter {
	return backend.counterVec(name, labels)
}

func Histogram(name string, buckets []int64) HistogramMeter {
	return backend.histogram(name, buckets)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return backend.histogramVec(name, labels, buckets)
}

// The LazyLoad variants resolve the meter on first use, so meters can be
// declared at package level before the backend is chosen.

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return sync.OnceValue(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return sync.OnceValue(func() HistogramMeter { return Histogram(name, buckets) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return sync.OnceValue(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
