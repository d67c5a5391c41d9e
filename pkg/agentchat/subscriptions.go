package agentchat

import (
	"sync"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
)

// SubscriptionEvent is the closed set of callback hooks a Chat exposes
// to observers (spec §3: "subscription callbacks for
// new_message|end_message|tool_call|tool_result").
type SubscriptionEvent string

const (
	EventNewMessage  SubscriptionEvent = "new_message"
	EventEndMessage  SubscriptionEvent = "end_message"
	EventToolCall    SubscriptionEvent = "tool_call"
	EventToolResult  SubscriptionEvent = "tool_result"
)

// MessageCallback observes a Message as it is appended to history.
type MessageCallback func(msg agentctx.Message)

// ToolCallback observes one dispatched tool call and, separately, its
// resulting content.
type ToolCallback func(call agentctx.ToolCall)

// ToolResultCallback observes the content a dispatched tool call
// produced.
type ToolResultCallback func(call agentctx.ToolCall, content string)

type subscriptions struct {
	mu          sync.Mutex
	newMessage  []MessageCallback
	endMessage  []MessageCallback
	toolCall    []ToolCallback
	toolResult  []ToolResultCallback
}

// OnNewMessage registers a callback fired whenever a message (user,
// assistant, or tool) is appended to history.
func (c *Chat) OnNewMessage(cb MessageCallback) {
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()
	c.subs.newMessage = append(c.subs.newMessage, cb)
}

// OnEndMessage registers a callback fired once per Ask call that runs
// the completion loop to its end, with the final assistant message
// that terminated it. A user_prompt halt or a finish_agent outcome
// returns without firing it.
func (c *Chat) OnEndMessage(cb MessageCallback) {
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()
	c.subs.endMessage = append(c.subs.endMessage, cb)
}

// OnToolCall registers a callback fired just before a non-delegation
// tool call is dispatched.
func (c *Chat) OnToolCall(cb ToolCallback) {
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()
	c.subs.toolCall = append(c.subs.toolCall, cb)
}

// OnToolResult registers a callback fired with a dispatched tool
// call's result content as the tool returned it, before any
// post_tool_use hook can replace it.
func (c *Chat) OnToolResult(cb ToolResultCallback) {
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()
	c.subs.toolResult = append(c.subs.toolResult, cb)
}

func (c *Chat) notifyNewMessage(msg agentctx.Message) {
	c.subs.mu.Lock()
	cbs := append([]MessageCallback{}, c.subs.newMessage...)
	c.subs.mu.Unlock()
	for _, cb := range cbs {
		cb(msg)
	}
}

func (c *Chat) notifyEndMessage(msg agentctx.Message) {
	c.subs.mu.Lock()
	cbs := append([]MessageCallback{}, c.subs.endMessage...)
	c.subs.mu.Unlock()
	for _, cb := range cbs {
		cb(msg)
	}
}

func (c *Chat) notifyToolCall(call agentctx.ToolCall) {
	c.subs.mu.Lock()
	cbs := append([]ToolCallback{}, c.subs.toolCall...)
	c.subs.mu.Unlock()
	for _, cb := range cbs {
		cb(call)
	}
}

func (c *Chat) notifyToolResult(call agentctx.ToolCall, content string) {
	c.subs.mu.Lock()
	cbs := append([]ToolResultCallback{}, c.subs.toolResult...)
	c.subs.mu.Unlock()
	for _, cb := range cbs {
		cb(call, content)
	}
}
