package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Prompt("answered")
	m.Prompt("answered")
	m.ToolCall("getAllProducts", "ok")
	m.Turn("first")
	m.Resolution("fallback")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.prompts.WithLabelValues("answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("getAllProducts", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmTurns.WithLabelValues("first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("fallback")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.Nil(t, New(nil))
	assert.NotPanics(t, func() {
		m.Prompt("failed")
		m.ToolCall("x", "error")
		m.Turn("final")
		m.Resolution("matched")
	})
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Prompt("direct")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `shopbot_prompts_total{outcome="direct"} 1`)
}
