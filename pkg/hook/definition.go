package hook

import (
	"context"
	"encoding/json"
	"time"
)

// Callback is a native hook's implementation.
type Callback func(ctx context.Context, hctx Context) Result

// ShellSpec configures a shell-command hook (spec §9: "Hooks as Ruby
// blocks vs. shell commands" — both constructors produce the same
// Definition shape, internally becoming a Callable returning a
// Result).
type ShellSpec struct {
	Command string
	Timeout time.Duration
}

// Definition is one registered hook (spec §3 HookDefinition).
type Definition struct {
	Event    Event
	Matcher  *Matcher
	Priority int
	Native   Callback
	Shell    *ShellSpec
}

// NewNativeHook builds a Definition wrapping a native Go callback.
func NewNativeHook(event Event, priority int, matcher *Matcher, fn Callback) *Definition {
	return &Definition{Event: event, Priority: priority, Matcher: matcher, Native: fn}
}

// NewShellHook builds a Definition that runs command through a
// ShellExecutor and translates its exit code into a Result:
// exit 0 with stdout -> Replace(stdout); exit 2 -> Halt(stderr);
// anything else -> Continue (with stderr left for the caller to log).
func NewShellHook(event Event, priority int, matcher *Matcher, command string, timeout time.Duration) *Definition {
	return &Definition{
		Event:    event,
		Priority: priority,
		Matcher:  matcher,
		Shell:    &ShellSpec{Command: command, Timeout: timeout},
	}
}

// run invokes the Definition, translating a shell hook's exit code per
// NewShellHook's doc comment. shellExec is nil-safe only for native
// hooks; a nil shellExec with a Shell-backed Definition panics, which
// Executor.runOne recovers from, logs as hook_error and treats as
// Continue (NewExecutor never leaves shellExec nil).
func (d *Definition) run(ctx context.Context, hctx Context, shellExec ShellExecutor) (Result, string, error) {
	if d.Native != nil {
		return d.Native(ctx, hctx), "", nil
	}

	stdinJSON, err := json.Marshal(hctx)
	if err != nil {
		return Result{}, "", err
	}
	res, err := shellExec.Execute(ctx, d.Shell.Command, string(stdinJSON), d.Shell.Timeout)
	if err != nil {
		return Result{}, res.Stderr, err
	}
	switch res.ExitCode {
	case 0:
		return Replace(res.Stdout), res.Stderr, nil
	case 2:
		return Halt(res.Stderr), res.Stderr, nil
	default:
		return Continue(), res.Stderr, nil
	}
}
