package delegate

import (
	"context"
	"strings"

	"github.com/parruda/swarm-sub004/pkg/swarmerr"
)

type callStackKey struct{}

// callStackFrom returns the delegation_call_stack carried on ctx, or
// an empty stack if none is present yet (the lead agent's first
// delegation call starts one).
func callStackFrom(ctx context.Context) []string {
	if v, ok := ctx.Value(callStackKey{}).([]string); ok {
		return v
	}
	return nil
}

// CallStack exposes the current delegation call stack carried on ctx,
// so a caller outside this package (swarm's checkpoint capture) can
// record it without reaching into delegate's internal context key.
func CallStack(ctx context.Context) []string {
	return append([]string{}, callStackFrom(ctx)...)
}

// WithCallStack returns ctx carrying stack as the delegation call
// stack, for resuming a checkpointed execution at the depth it was
// interrupted at rather than restarting cycle detection from empty.
func WithCallStack(ctx context.Context, stack []string) context.Context {
	return context.WithValue(ctx, callStackKey{}, append([]string{}, stack...))
}

// pushCallStack returns a new context with to appended to the
// delegation call stack, or a CircularDelegationError if to is
// already present (spec §4.5 step 2).
func pushCallStack(ctx context.Context, to string) (context.Context, error) {
	stack := callStackFrom(ctx)
	for _, name := range stack {
		if name == to {
			cycle := append(append([]string{}, stack...), to)
			return ctx, swarmerr.New(swarmerr.CircularDelegation, "delegate", "push_call_stack",
				"delegation cycle detected: "+strings.Join(cycle, " -> "))
		}
	}
	next := append(append([]string{}, stack...), to)
	return context.WithValue(ctx, callStackKey{}, next), nil
}
