// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vmcore"

// InitializePrometheusMetrics switches the meters to prometheus. Meters already
// resolved stay no-ops. Calling it again is a no-op.
func InitializePrometheusMetrics() {
	if _, ok := backend.(*promRegistry); ok {
		return
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	backend = &promRegistry{reg: reg}
}

type promRegistry struct {
	reg    *prometheus.Registry
	meters sync.Map // kind:name => meter
}

// loadOrCreate returns the meter registered under kind and name, creating it on first use.
func loadOrCreate[T any](r *promRegistry, kind, name string, create func() (prometheus.Collector, T)) T {
	key := kind + ":" + name
	if m, ok := r.meters.Load(key); ok {
		return m.(T)
	}
	c, meter := create()
	m, loaded := r.meters.LoadOrStore(key, meter)
	if !loaded {
		if err := r.reg.Register(c); err != nil {
			log.Warn("unable to register metric", "name", name, "err", err)
		}
	}
	return m.(T)
}

func floatBuckets(buckets []int64) []float64 {
	fb := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		fb = append(fb, float64(b))
	}
	return fb
}

func (r *promRegistry) handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *promRegistry) counterVec(name string, labels []string) CountVecMeter {
	return loadOrCreate(r, "counterVec", name, func() (prometheus.Collector, CountVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, &promCountVecMeter{c}
	})
}

func (r *promRegistry) histogram(name string, buckets []int64) HistogramMeter {
	return loadOrCreate(r, "histogram", name, func() (prometheus.Collector, HistogramMeter) {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		})
		return h, &promHistogramMeter{h}
	})
}

func (r *promRegistry) histogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return loadOrCreate(r, "histogramVec", name, func() (prometheus.Collector, HistogramVecMeter) {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}, labels)
		return h, &promHistogramVecMeter{h}
	})
}

type promCountVecMeter struct {
	counter *prometheus.CounterVec
}

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promHistogramMeter struct {
	histogram prometheus.Histogram
}

func (h *promHistogramMeter) Observe(i int64) { h.histogram.Observe(float64(i)) }

type promHistogramVecMeter struct {
	histogram *prometheus.HistogramVec
}

func (h *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	h.histogram.With(labels).Observe(float64(i))
}
