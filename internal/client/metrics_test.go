package client

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/bookclub/internal/codec"
	"github.com/five82/bookclub/internal/mason"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_RegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, nil)
	require.NoError(t, m.Register())
	require.NoError(t, m.Register())

	again := NewMetrics(reg, nil)
	assert.NoError(t, again.Register(), "already registered collectors are not an error")
}

func TestMetrics_CountsRequestsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	pool := codec.NewPool(2)
	m := NewMetrics(reg, pool)
	require.NoError(t, m.Register())

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}, func(cfg *Config) {
		cfg.Metrics = m
		cfg.Codecs = pool
	})

	ctx := testContext(t)
	_, err := Get(ctx, c, "", mason.EnvelopeOf[struct{}]())
	require.NoError(t, err)
	_, err = Get(ctx, c, "", mason.EnvelopeOf[struct{}]())
	require.NoError(t, err)
	_, err = c.Post(ctx, "", struct{}{})
	require.NoError(t, err)

	assert.Equal(t, 2.0, counterValue(t, reg, "bookclub_client_requests_total", map[string]string{"method": "GET", "outcome": OutcomeOK}))
	assert.Equal(t, 1.0, counterValue(t, reg, "bookclub_client_requests_total", map[string]string{"method": "POST", "outcome": OutcomeClientError}))

	families, err := reg.Gather()
	require.NoError(t, err)
	var gauge bool
	for _, mf := range families {
		if mf.GetName() == "bookclub_codec_handles_in_use" {
			gauge = true
			assert.Equal(t, 0.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, gauge, "handles-in-use gauge registered")
}
