// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics()

	for _, a := range []any{
		Gauge("noopGauge"),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, &noopMeters{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	prom := metrics.(*prometheusMetrics)

	ops := CounterVec("ledger_ops_count", []string{"op", "result"})
	ops.AddWithLabel(1, map[string]string{"op": "stake", "result": "ok"})
	ops.AddWithLabel(1, map[string]string{"op": "stake", "result": "ok"})
	CounterVec("ledger_ops_count", []string{"op", "result"}).
		AddWithLabel(1, map[string]string{"op": "claim", "result": "too_soon"})

	stakers := Gauge("active_stakers")
	stakers.Set(10)
	stakers.Add(-3)

	hist := HistogramVec("api_duration_ms", []string{"code"}, BucketHTTPReqs)
	hist.ObserveWithLabels(5, map[string]string{"code": "200"})
	hist.ObserveWithLabels(15, map[string]string{"code": "200"})

	families, err := prom.registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	opsFamily := byName["stakebank_ledger_ops_count"]
	require.NotNil(t, opsFamily)
	var total float64
	for _, m := range opsFamily.Metric {
		total += m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(3), total)

	assert.Equal(t, float64(7), byName["stakebank_active_stakers"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(20), byName["stakebank_api_duration_ms"].Metric[0].GetHistogram().GetSampleSum())
}

func TestPromHandler(t *testing.T) {
	InitializePrometheusMetrics()
	Counter("handler_sample").Add(2)

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	require.Contains(t, families, "stakebank_handler_sample")
	assert.Equal(t, float64(2), families["stakebank_handler_sample"].Metric[0].GetCounter().GetValue())
}
