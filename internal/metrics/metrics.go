// Package metrics holds the Prometheus counters for prompt handling. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	prompts     *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	llmTurns    *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		registry: registry,
		prompts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopbot_prompts_total",
				Help: "Prompts handled, by outcome (answered, direct, failed)",
			},
			[]string{"outcome"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopbot_tool_calls_total",
				Help: "Tool executions by tool name and status",
			},
			[]string{"tool", "status"},
		),
		llmTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopbot_llm_turns_total",
				Help: "LLM completion requests by turn",
			},
			[]string{"turn"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopbot_category_resolutions_total",
				Help: "Category resolutions by outcome (matched, fallback, empty, fetch_error)",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(m.prompts, m.toolCalls, m.llmTurns, m.resolutions)
	return m
}

func (m *Metrics) Prompt(outcome string) {
	if m != nil {
		m.prompts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ToolCall(tool, status string) {
	if m != nil {
		m.toolCalls.WithLabelValues(tool, status).Inc()
	}
}

func (m *Metrics) Turn(turn string) {
	if m != nil {
		m.llmTurns.WithLabelValues(turn).Inc()
	}
}

func (m *Metrics) Resolution(outcome string) {
	if m != nil {
		m.resolutions.WithLabelValues(outcome).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
