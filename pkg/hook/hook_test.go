package hook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parruda/swarm-sub004/pkg/logstream"
)

func newTestExecutor() *Executor {
	return NewExecutor(nil, logstream.New(logstream.NewCollector(nil)))
}

func TestRegistryLookupOrdersByPriorityThenDefaultsFirst(t *testing.T) {
	r := NewRegistry()
	var order []string

	r.AddDefault(NewNativeHook(PreToolUse, 1, nil, func(context.Context, Context) Result {
		order = append(order, "default-1")
		return Continue()
	}))
	r.AddAgent("a", NewNativeHook(PreToolUse, 1, nil, func(context.Context, Context) Result {
		order = append(order, "agent-1")
		return Continue()
	}))
	r.AddDefault(NewNativeHook(PreToolUse, 5, nil, func(context.Context, Context) Result {
		order = append(order, "default-5")
		return Continue()
	}))

	hooks := r.Lookup(PreToolUse, "a")
	require.Len(t, hooks, 3)

	exec := newTestExecutor()
	exec.ExecuteSafe(context.Background(), Context{Event: PreToolUse, ToolCall: &ToolCall{Name: "Bash"}}, hooks)

	assert.Equal(t, []string{"default-5", "default-1", "agent-1"}, order)
}

func TestExecuteSafeShortCircuitsOnNonContinue(t *testing.T) {
	r := NewRegistry()
	var ran2 bool
	r.AddDefault(NewNativeHook(UserPrompt, 10, nil, func(context.Context, Context) Result {
		return Halt("denied")
	}))
	r.AddDefault(NewNativeHook(UserPrompt, 1, nil, func(context.Context, Context) Result {
		ran2 = true
		return Continue()
	}))

	exec := newTestExecutor()
	res := exec.ExecuteSafe(context.Background(), Context{Event: UserPrompt}, r.Lookup(UserPrompt, "a"))

	assert.Equal(t, KindHalt, res.Kind)
	assert.Equal(t, "denied", res.Message)
	assert.False(t, ran2)
}

func TestExecuteSafeIsolatesPanic(t *testing.T) {
	r := NewRegistry()
	var ranAfter bool
	r.AddDefault(NewNativeHook(AgentStep, 10, nil, func(context.Context, Context) Result {
		panic("boom")
	}))
	r.AddDefault(NewNativeHook(AgentStep, 1, nil, func(context.Context, Context) Result {
		ranAfter = true
		return Continue()
	}))

	exec := newTestExecutor()
	var res Result
	require.NotPanics(t, func() {
		res = exec.ExecuteSafe(context.Background(), Context{Event: AgentStep}, r.Lookup(AgentStep, "a"))
	})

	assert.True(t, res.IsContinue())
	assert.True(t, ranAfter)
}

func TestMatcherSkipsNonMatchingTool(t *testing.T) {
	r := NewRegistry()
	matcher := NewExactMatcher("Bash")
	var fired bool
	r.AddDefault(&Definition{
		Event: PreToolUse, Priority: 0, Matcher: &matcher,
		Native: func(context.Context, Context) Result {
			fired = true
			return Halt("no bash")
		},
	})

	exec := newTestExecutor()
	res := exec.ExecuteSafe(context.Background(),
		Context{Event: PreToolUse, ToolCall: &ToolCall{Name: "Read"}},
		r.Lookup(PreToolUse, "a"))

	assert.False(t, fired)
	assert.True(t, res.IsContinue())
}

type fakeShell struct {
	result ShellResult
	err    error
}

func (f fakeShell) Execute(ctx context.Context, command, stdinJSON string, timeout time.Duration) (ShellResult, error) {
	return f.result, f.err
}

func TestShellHookExitCodeTranslation(t *testing.T) {
	cases := []struct {
		name     string
		exitCode int
		stdout   string
		stderr   string
		want     ResultKind
	}{
		{"success", 0, "ok", "", KindReplace},
		{"halt", 2, "", "nope", KindHalt},
		{"other", 7, "", "weird", KindContinue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shell := fakeShell{result: ShellResult{ExitCode: tc.exitCode, Stdout: tc.stdout, Stderr: tc.stderr}}
			exec := NewExecutor(shell, logstream.New(logstream.NewCollector(nil)))
			def := NewShellHook(PreToolUse, 0, nil, "echo hi", 0)

			res := exec.ExecuteSafe(context.Background(), Context{Event: PreToolUse, ToolCall: &ToolCall{Name: "Bash"}}, []*Definition{def})
			assert.Equal(t, tc.want, res.Kind)
		})
	}
}
