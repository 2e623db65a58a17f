// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	r, ok := backend.(*promRegistry)
	require.True(t, ok)
	families, err := r.reg.Gather()
	require.NoError(t, err)

	m := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		m[mf.GetName()] = mf
	}
	return m
}

func TestPromMetrics(t *testing.T) {
	backend = noopRegistry{}
	InitializePrometheusMetrics()
	reg := backend
	InitializePrometheusMetrics()
	assert.Same(t, reg, backend)

	countVec := CounterVec("prom_count_vec", []string{"zeroOrOne"})
	hist := Histogram("prom_hist", BucketGas)
	histVec := HistogramVec("prom_hist_vec", []string{"zeroOrOne"}, nil)

	// same name resolves the same meter
	assert.Same(t, countVec, CounterVec("prom_count_vec", []string{"zeroOrOne"}))

	total := 0
	for i := 0; i < 10; i++ {
		labels := map[string]string{"zeroOrOne": strconv.Itoa(i % 2)}
		countVec.AddWithLabel(int64(i), labels)
		histVec.ObserveWithLabels(int64(i), labels)
		hist.Observe(int64(i))
		total += i
	}

	m := gather(t)
	assert.Equal(t, float64(total), m["vmcore_prom_hist"].Metric[0].GetHistogram().GetSampleSum())
	assert.Len(t, m["vmcore_prom_hist"].Metric[0].GetHistogram().GetBucket(), len(BucketGas))

	vec := m["vmcore_prom_count_vec"]
	require.Len(t, vec.Metric, 2)
	assert.Equal(t, float64(total), vec.Metric[0].GetCounter().GetValue()+vec.Metric[1].GetCounter().GetValue())

	hv := m["vmcore_prom_hist_vec"]
	require.Len(t, hv.Metric, 2)
	assert.Equal(t, float64(total), hv.Metric[0].GetHistogram().GetSampleSum()+hv.Metric[1].GetHistogram().GetSampleSum())

	assert.Contains(t, m, "go_goroutines")

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `vmcore_prom_count_vec{zeroOrOne="1"} 25`)
}

func TestLazyLoading(t *testing.T) {
	backend = noopRegistry{}

	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	// meters resolved after initialization are of the prometheus type
	InitializePrometheusMetrics()

	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
	assert.Same(t, lazyHistogram(), lazyHistogram())
}
