package telemetry

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the Prometheus collectors Manager records through,
// scoped to four surfaces: LLM calls, tool calls, delegations, and
// context-limit warnings.
// Grounded on the teacher's pkg/observability/metrics.go CounterVec/
// HistogramVec shape, trimmed to this engine's surface (no HTTP/RAG/
// session metrics here: this package has no server of its own).
type metrics struct {
	registry *prometheus.Registry

	llmCalls        *prometheus.CounterVec
	llmCallDuration *prometheus.HistogramVec
	llmTokensInput  *prometheus.CounterVec
	llmTokensOutput *prometheus.CounterVec
	llmErrors       *prometheus.CounterVec

	toolCalls        *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	toolErrors       *prometheus.CounterVec

	delegationCalls    *prometheus.CounterVec
	delegationDuration *prometheus.HistogramVec
	delegationErrors   *prometheus.CounterVec

	contextWarnings *prometheus.CounterVec
}

func newMetrics(cfg Config) *metrics {
	m := &metrics{registry: prometheus.NewRegistry()}

	m.llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "llm", Name: "calls_total",
		Help: "Total number of LLM API calls.",
	}, []string{"agent", "model"})
	m.llmCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "llm", Name: "call_duration_seconds",
		Help: "LLM API call duration in seconds.", Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"agent", "model"})
	m.llmTokensInput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "llm", Name: "tokens_input_total",
		Help: "Total input tokens consumed.",
	}, []string{"agent", "model"})
	m.llmTokensOutput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "llm", Name: "tokens_output_total",
		Help: "Total output tokens produced.",
	}, []string{"agent", "model"})
	m.llmErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "llm", Name: "errors_total",
		Help: "Total number of failed LLM API calls.",
	}, []string{"agent", "model"})

	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "tool", Name: "calls_total",
		Help: "Total number of tool invocations.",
	}, []string{"agent", "tool"})
	m.toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "tool", Name: "call_duration_seconds",
		Help: "Tool invocation duration in seconds.", Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"agent", "tool"})
	m.toolErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "tool", Name: "errors_total",
		Help: "Total number of failed tool invocations.",
	}, []string{"agent", "tool"})

	m.delegationCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "delegation", Name: "calls_total",
		Help: "Total number of delegations.",
	}, []string{"from_agent", "to_agent"})
	m.delegationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "delegation", Name: "duration_seconds",
		Help: "Delegation duration in seconds.", Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"from_agent", "to_agent"})
	m.delegationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "delegation", Name: "errors_total",
		Help: "Total number of failed delegations.",
	}, []string{"from_agent", "to_agent"})

	m.contextWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace, Subsystem: "context", Name: "threshold_warnings_total",
		Help: "Total number of context-window threshold warnings fired.",
	}, []string{"agent", "threshold_percent"})

	m.registry.MustRegister(
		m.llmCalls, m.llmCallDuration, m.llmTokensInput, m.llmTokensOutput, m.llmErrors,
		m.toolCalls, m.toolCallDuration, m.toolErrors,
		m.delegationCalls, m.delegationDuration, m.delegationErrors,
		m.contextWarnings,
	)
	return m
}
