package logstream

import (
	"context"
	"time"
)

// Emitter is the pluggable sink a Stream forwards normalized entries
// to. Collector is the default, in-process implementation.
type Emitter interface {
	Emit(ctx context.Context, entry Entry)
}

// Stream is the one-line emitter used by every component (spec §4.8):
// Emit(type, fields) normalizes timestamp and execution identity from
// the ExecContext carried on ctx, then forwards to the Emitter.
type Stream struct {
	emitter Emitter
}

// New wraps emitter in a Stream. A nil emitter makes Emit a no-op,
// which lets components hold a *Stream unconditionally without a
// caller having to wire a Collector when it isn't needed.
func New(emitter Emitter) *Stream {
	return &Stream{emitter: emitter}
}

// Emit normalizes and forwards one entry of the given type. fields may
// be nil. Non-"system"-scoped events are expected to be called with an
// ExecContext already on ctx; absence of one simply leaves
// execution/swarm ids empty, as for logging performed at swarm-build
// time before an execution exists.
func (s *Stream) Emit(ctx context.Context, typ string, fields map[string]any) {
	if s == nil || s.emitter == nil {
		return
	}
	entry := Entry{
		Type:      typ,
		Timestamp: time.Now(),
		Fields:    fields,
	}
	if ec, ok := FromContext(ctx); ok {
		entry.ExecutionID = ec.ExecutionID
		entry.SwarmID = ec.SwarmID
		entry.ParentSwarmID = ec.ParentSwarmID
	}
	if agent, ok := entry.Fields["agent"]; ok {
		if name, ok := agent.(string); ok {
			entry.Agent = name
		}
	}
	s.emitter.Emit(ctx, entry)
}

// EmitError is a convenience for the "generic error events via
// LogStream.emit_error" surface named in spec §6: it emits typ with an
// "error" field set to err.Error(), merged with any extra fields.
func (s *Stream) EmitError(ctx context.Context, typ string, err error, fields map[string]any) {
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["error"] = err.Error()
	s.Emit(ctx, typ, merged)
}
