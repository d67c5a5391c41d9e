// Package telemetry wraps the engine's LLM calls, tool calls,
// delegations, and context-limit warnings in OpenTelemetry spans and
// Prometheus counters/histograms, the same split the teacher's
// pkg/observability package draws between tracer.go and metrics.go.
//
// The engine never registers a span exporter or starts a metrics HTTP
// server itself: a host application owns where spans and scrapes end
// up (the same division builder.ProviderFactory draws for LLM
// transport), so Manager only creates the TracerProvider/Registry and
// leaves wiring an exporter or /metrics handler to the caller.
package telemetry

// Config controls what Manager records: Enabled turns on tracing and
// MetricsEnabled turns on metrics, each independently. A zero-value
// Config yields a fully functional no-op Manager, so callers that
// don't care about telemetry can pass one through without branching.
type Config struct {
	Enabled bool

	// ServiceName tags every span's resource attributes.
	ServiceName string
	// SamplingRate is the fraction of traces recorded, 0..1.
	SamplingRate float64

	// MetricsEnabled turns on the Prometheus counters/histograms
	// independently of tracing, mirroring the teacher's separate
	// Tracing.Enabled/Metrics.Enabled config switches.
	MetricsEnabled bool
	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = "swarm-engine"
	}
	if c.SamplingRate <= 0 {
		c.SamplingRate = 1
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = "swarm"
	}
	return c
}
