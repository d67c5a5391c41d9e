// Package agentchat implements the per-agent conversation state
// machine (spec §4.3): Chat.Ask runs the hook-gated, tool-dispatching
// LLM completion loop for one agent instance.
package agentchat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/logstream"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// UserMessageReminder lets a plugin contribute ephemeral reminder text
// for a user turn (e.g. a memory plugin suggesting relevant notes),
// per spec §4.3 step 4. Defined here rather than in pkg/plugin so
// agentchat doesn't need to depend on the (later-built) plugin
// package; any type satisfying this signature structurally qualifies.
type UserMessageReminder interface {
	OnUserMessage(ctx context.Context, agentName, prompt string) ([]string, error)
}

// Telemetry lets a Chat report LLM calls, tool calls, delegations, and
// context-limit warnings without importing pkg/telemetry directly,
// the same structural-interface approach UserMessageReminder uses;
// *telemetry.Manager satisfies this, including a nil *Manager. A nil
// Config.Telemetry skips every call site.
type Telemetry interface {
	StartLLMSpan(ctx context.Context, agent, model string) (context.Context, func(error))
	RecordLLMCall(agent, model string, dur time.Duration, inputTokens, outputTokens int, err error)
	StartToolSpan(ctx context.Context, agent, tool string) (context.Context, func(error))
	RecordToolCall(agent, tool string, dur time.Duration, err error)
	StartDelegationSpan(ctx context.Context, fromAgent, toAgent string) (context.Context, func(error))
	RecordDelegation(fromAgent, toAgent string, dur time.Duration, err error)
	RecordContextWarning(agent string, percent int)
}

// Config wires one Chat instance. Only Provider, Model and Tools are
// required; the rest have zero-value-safe defaults.
type Config struct {
	AgentName    string
	SwarmID      string
	SystemPrompt string
	Model        string

	Provider llmprovider.Provider
	Tools    *tool.Registry
	Context  *agentctx.Context

	HookRegistry *hook.Registry
	HookExecutor *hook.Executor
	Stream       *logstream.Stream

	// GlobalSemaphore bounds concurrent LLM calls across the whole
	// swarm; nil means unbounded.
	GlobalSemaphore *semaphore.Weighted
	// MaxConcurrentTools bounds this chat's per-turn tool dispatch
	// parallelism; 0 means unbounded.
	MaxConcurrentTools int

	Params  map[string]any
	Headers map[string]string
	Timeout time.Duration

	ModelRegistry             agentctx.ModelRegistry
	Compactor                 *agentctx.Compactor
	CompactionThreshold       float64
	TodoWriteReminderInterval int

	// ToolResultTruncationThreshold bounds how large an older
	// tool-result payload may grow in an LLM request before its middle
	// is replaced with a "[... N bytes truncated ...]" marker; 0 uses
	// agentctx.DefaultToolResultTruncationThreshold.
	ToolResultTruncationThreshold int

	AgentDirectory string
	Digests        *tool.DigestTracker
	Todos          *tool.TodoStore

	PluginReminders []UserMessageReminder

	Telemetry Telemetry
}

// Chat is the AgentChat entity of spec §3.
type Chat struct {
	cfg Config

	turnMu   sync.Mutex // the "AgentChat lock" of spec §5
	messages []agentctx.Message

	lastTodoWriteMessageIndex int

	subs subscriptions
}

// New builds a Chat. If cfg.SystemPrompt is non-empty, messages[0] is
// seeded as the system message (spec §3 invariant).
func New(cfg Config) *Chat {
	if cfg.TodoWriteReminderInterval <= 0 {
		cfg.TodoWriteReminderInterval = DefaultTodoWriteReminderInterval
	}
	c := &Chat{cfg: cfg, lastTodoWriteMessageIndex: -1}
	if cfg.SystemPrompt != "" {
		c.messages = append(c.messages, agentctx.Message{Role: agentctx.RoleSystem, Content: cfg.SystemPrompt})
	}
	return c
}

// Messages returns a copy of the persisted conversation history
// (reminders are never stored, per spec §3 invariant).
func (c *Chat) Messages() []agentctx.Message {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	out := make([]agentctx.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ResetToBaseline clears the conversation back to just the system
// prompt (or to nothing, if there is none), used by isolated
// delegation when preserve_context=false (spec §4.5 step 4).
func (c *Chat) ResetToBaseline() {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	c.messages = nil
	if c.cfg.SystemPrompt != "" {
		c.messages = append(c.messages, agentctx.Message{Role: agentctx.RoleSystem, Content: c.cfg.SystemPrompt})
	}
	c.lastTodoWriteMessageIndex = -1
}

// Usage reports this chat's current token-accounting properties.
func (c *Chat) Usage() agentctx.Usage {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	actx := c.cfg.Context
	if actx == nil {
		actx = &agentctx.Context{}
	}
	return agentctx.ComputeUsage(actx, c.messages, c.cfg.ModelRegistry)
}

// Digests exposes this chat's read-tracking DigestTracker so the
// owning Swarm can fold it into a snapshot document's read_tracking
// entry (spec §4.3).
func (c *Chat) Digests() *tool.DigestTracker { return c.cfg.Digests }

// FinishSwarmSignal is returned (wrapped) by Ask when a hook's
// finish_swarm outcome must bubble past this agent to the Executor
// (spec §4.3 step 5.c, §4.9).
type FinishSwarmSignal struct {
	Message string
}

func (e *FinishSwarmSignal) Error() string { return fmt.Sprintf("finish_swarm: %s", e.Message) }

// DefaultTodoWriteReminderInterval resolves spec §9's open question:
// the source disagreed on 5, 6, or 10; 6 is used here (see DESIGN.md).
const DefaultTodoWriteReminderInterval = 6
