package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Manager is the lifecycle owner of this engine's tracing and metrics,
// mirroring the teacher's observability.Manager split between a
// *Tracer and a *Metrics. Every method is nil-receiver safe, so a
// *Manager obtained from a disabled Config can be threaded through
// agentchat.Config.Telemetry unconditionally.
type Manager struct {
	cfg     Config
	tracer  trace.Tracer
	metrics *metrics

	shutdownTracer func(context.Context) error
}

// NewManager builds the TracerProvider and Prometheus registry cfg
// calls for. When cfg.Enabled, the TracerProvider is installed as the
// process default via otel.SetTracerProvider; otherwise a no-op
// TracerProvider is used and the process default is left unchanged.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	tp, shutdown, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:            cfg,
		tracer:         tp.Tracer(tracerName),
		shutdownTracer: shutdown,
	}
	if cfg.MetricsEnabled {
		m.metrics = newMetrics(cfg)
	}
	return m, nil
}

// Registry exposes the Prometheus registry for the host to serve
// however it likes (promhttp.HandlerFor, a pushgateway, etc.); nil if
// metrics are disabled. This package never starts an HTTP server
// itself.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil || m.metrics == nil {
		return nil
	}
	return m.metrics.registry
}

// Shutdown flushes and releases the TracerProvider. Safe to call on a
// nil Manager.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil || m.shutdownTracer == nil {
		return nil
	}
	return m.shutdownTracer(ctx)
}

// StartLLMSpan opens a span around one Chat.callLLM invocation.
func (m *Manager) StartLLMSpan(ctx context.Context, agent, model string) (context.Context, func(error)) {
	return m.span(ctx, "llm.call", attribute.String("agent", agent), attribute.String("model", model))
}

// RecordLLMCall records the outcome of one LLM API call: duration,
// token counts, and error/success.
func (m *Manager) RecordLLMCall(agent, model string, dur time.Duration, inputTokens, outputTokens int, err error) {
	if m == nil || m.metrics == nil {
		return
	}
	labels := prometheus.Labels{"agent": agent, "model": model}
	m.metrics.llmCalls.With(labels).Inc()
	m.metrics.llmCallDuration.With(labels).Observe(dur.Seconds())
	m.metrics.llmTokensInput.With(labels).Add(float64(inputTokens))
	m.metrics.llmTokensOutput.With(labels).Add(float64(outputTokens))
	if err != nil {
		m.metrics.llmErrors.With(labels).Inc()
	}
}

// StartToolSpan opens a span around one tool invocation.
func (m *Manager) StartToolSpan(ctx context.Context, agent, toolName string) (context.Context, func(error)) {
	return m.span(ctx, "tool.call", attribute.String("agent", agent), attribute.String("tool", toolName))
}

// RecordToolCall records the outcome of one tool invocation.
func (m *Manager) RecordToolCall(agent, toolName string, dur time.Duration, err error) {
	if m == nil || m.metrics == nil {
		return
	}
	labels := prometheus.Labels{"agent": agent, "tool": toolName}
	m.metrics.toolCalls.With(labels).Inc()
	m.metrics.toolCallDuration.With(labels).Observe(dur.Seconds())
	if err != nil {
		m.metrics.toolErrors.With(labels).Inc()
	}
}

// StartDelegationSpan opens a span around one delegation call.
func (m *Manager) StartDelegationSpan(ctx context.Context, fromAgent, toAgent string) (context.Context, func(error)) {
	return m.span(ctx, "delegation.call", attribute.String("from_agent", fromAgent), attribute.String("to_agent", toAgent))
}

// RecordDelegation records the outcome of one delegation call.
func (m *Manager) RecordDelegation(fromAgent, toAgent string, dur time.Duration, err error) {
	if m == nil || m.metrics == nil {
		return
	}
	labels := prometheus.Labels{"from_agent": fromAgent, "to_agent": toAgent}
	m.metrics.delegationCalls.With(labels).Inc()
	m.metrics.delegationDuration.With(labels).Observe(dur.Seconds())
	if err != nil {
		m.metrics.delegationErrors.With(labels).Inc()
	}
}

// RecordContextWarning records one context_limit_warning firing
// (spec §4.3 step 6: checkContextThresholds).
func (m *Manager) RecordContextWarning(agent string, percent int) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.contextWarnings.With(prometheus.Labels{
		"agent": agent, "threshold_percent": strconv.Itoa(percent),
	}).Inc()
}
