package logstream

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ExecContext is the execution-scoped identity threaded through a call
// chain in place of the source framework's fiber-local storage (see
// spec design note on dynamic per-fiber globals). It is carried on a
// context.Context and saved/restored around nested executions.
type ExecContext struct {
	ExecutionID   string
	SwarmID       string
	ParentSwarmID string
}

type execContextKey struct{}

// WithExecContext returns a context carrying ec, replacing any
// ExecContext already present. Callers that need to nest an execution
// (e.g. a swarm delegated to from another swarm) should read the
// current value first and set ParentSwarmID from it.
func WithExecContext(ctx context.Context, ec ExecContext) context.Context {
	return context.WithValue(ctx, execContextKey{}, ec)
}

// FromContext returns the ExecContext carried on ctx, if any.
func FromContext(ctx context.Context) (ExecContext, bool) {
	ec, ok := ctx.Value(execContextKey{}).(ExecContext)
	return ec, ok
}

// NewExecutionID generates an execution id of the form
// "exec_<swarm_id>_<16hex>", matching the Executor run loop's naming
// in spec §4.9.
func NewExecutionID(swarmID string) string {
	var buf [8]byte
	// A read failure leaves buf zeroed, which still yields a valid (if
	// degenerate) id rather than panicking mid-execute.
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("exec_%s_%s", swarmID, hex.EncodeToString(buf[:]))
}
