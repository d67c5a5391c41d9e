package hook

// ResultKind discriminates the HookResult tagged union (spec §9:
// "Hook result as discriminated outcomes").
type ResultKind string

const (
	KindContinue    ResultKind = "continue"
	KindReplace     ResultKind = "replace"
	KindHalt        ResultKind = "halt"
	KindReprompt    ResultKind = "reprompt"
	KindFinishAgent ResultKind = "finish_agent"
	KindFinishSwarm ResultKind = "finish_swarm"
)

// Result is the outcome of one hook callback. Exactly one of the
// constructors below should be used to build it; Value is populated
// for Replace and Reprompt, Message for Halt/FinishAgent/FinishSwarm.
type Result struct {
	Kind    ResultKind
	Value   string
	Message string
}

// Continue lets the chain proceed to the next hook (or, if this was
// the last hook, proceeds with the unmodified input).
func Continue() Result { return Result{Kind: KindContinue} }

// Replace substitutes v for the value the hook observed (a prompt, a
// tool result, depending on event).
func Replace(v string) Result { return Result{Kind: KindReplace, Value: v} }

// Halt stops the current operation (tool call, user prompt) and
// surfaces msg as its synthesized result.
func Halt(msg string) Result { return Result{Kind: KindHalt, Message: msg} }

// Reprompt is only honored on swarm_stop: it restarts the executor
// loop with a new prompt.
func Reprompt(prompt string) Result { return Result{Kind: KindReprompt, Value: prompt} }

// FinishAgent short-circuits the current agent's ask loop, returning
// msg as that agent's final content.
func FinishAgent(msg string) Result { return Result{Kind: KindFinishAgent, Message: msg} }

// FinishSwarm bubbles a sentinel up to the Executor, terminating the
// outer swarm loop with msg as the swarm's result content.
func FinishSwarm(msg string) Result { return Result{Kind: KindFinishSwarm, Message: msg} }

// IsContinue reports whether r is the zero-impact outcome, i.e. the
// chain should proceed to the next hook.
func (r Result) IsContinue() bool { return r.Kind == KindContinue || r.Kind == "" }
