package hook

import (
	"context"
	"fmt"

	"github.com/parruda/swarm-sub004/pkg/logstream"
)

// Executor runs a resolved hook chain, isolating a single callback's
// panic or error so it cannot break the rest of the chain (spec
// §4.7: "one bad hook must not break the chain").
type Executor struct {
	shellExec ShellExecutor
	stream    *logstream.Stream
}

// NewExecutor builds an Executor. A nil shellExec defaults to
// OSShellExecutor{}; a nil stream makes logging a no-op.
func NewExecutor(shellExec ShellExecutor, stream *logstream.Stream) *Executor {
	if shellExec == nil {
		shellExec = OSShellExecutor{}
	}
	return &Executor{shellExec: shellExec, stream: stream}
}

// ExecuteSafe runs hooks in the order given (the caller obtains that
// order from Registry.Lookup), skipping any whose Matcher rejects the
// current tool name for tool-scoped events, and returns the first
// non-Continue Result. If every hook continues, it returns Continue().
func (e *Executor) ExecuteSafe(ctx context.Context, hctx Context, hooks []*Definition) Result {
	for _, def := range hooks {
		if hctx.Event.toolScoped() && def.Matcher != nil {
			name := ""
			if hctx.ToolCall != nil {
				name = hctx.ToolCall.Name
			}
			if !def.Matcher.Match(name) {
				continue
			}
		}

		result := e.runOne(ctx, hctx, def)
		if !result.IsContinue() {
			return result
		}
	}
	return Continue()
}

func (e *Executor) runOne(ctx context.Context, hctx Context, def *Definition) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logHookError(ctx, hctx, fmt.Errorf("hook panicked: %v", r))
			result = Continue()
		}
	}()

	res, stderr, err := def.run(ctx, hctx, e.shellExec)
	if err != nil {
		e.logHookError(ctx, hctx, err)
		return Continue()
	}
	if stderr != "" && res.Kind == KindContinue {
		e.logHookError(ctx, hctx, fmt.Errorf("shell hook stderr: %s", stderr))
	}
	return res
}

func (e *Executor) logHookError(ctx context.Context, hctx Context, err error) {
	e.stream.EmitError(ctx, "hook_error", err, map[string]any{
		"event": string(hctx.Event),
		"agent": hctx.AgentName,
	})
}
