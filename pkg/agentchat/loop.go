package agentchat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// finishAgentSignal short-circuits the completion loop from within a
// tool-dispatch goroutine, carrying the content Ask should return.
type finishAgentSignal struct{ content string }

func (e *finishAgentSignal) Error() string { return "finish_agent: " + e.content }

// Ask runs one full turn of spec §4.3: hook-gated prompt handling,
// ephemeral reminder injection, and the tool-dispatching completion
// loop. It holds the chat's internal lock for the whole call, which is
// what serializes two delegators driving the same shared delegate
// (spec §4.3 "Concurrency").
func (c *Chat) Ask(ctx context.Context, prompt string) (string, error) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	isFirstMessage := !c.hasUserMessage()

	hctx := hook.Context{Event: hook.UserPrompt, AgentName: c.cfg.AgentName, SwarmID: c.cfg.SwarmID}
	result := c.runHooks(ctx, hctx)
	switch result.Kind {
	case hook.KindHalt:
		c.emitAgentStop(ctx, "halt", result.Message)
		return result.Message, nil
	case hook.KindReplace:
		prompt = prompt + "\n" + fmt.Sprintf("<hook-context>%s</hook-context>", result.Value)
	}

	reminders := c.collectReminders(ctx, isFirstMessage, prompt)
	turnContent := prompt
	for _, r := range reminders {
		turnContent = turnContent + "\n" + r
	}

	userMsg := agentctx.Message{Role: agentctx.RoleUser, Content: prompt}
	c.messages = append(c.messages, userMsg)
	c.notifyNewMessage(userMsg)
	llmMessages := append([]agentctx.Message{}, c.messages[:len(c.messages)-1]...)
	llmMessages = append(llmMessages, agentctx.Message{Role: agentctx.RoleUser, Content: turnContent})

	content, final, err := c.completionLoop(ctx, llmMessages)
	var fa *finishAgentSignal
	if errors.As(err, &fa) {
		return fa.content, nil
	}
	if err != nil {
		return "", err
	}

	c.notifyEndMessage(final)
	c.checkContextThresholds(ctx)
	return content, nil
}

func (c *Chat) hasUserMessage() bool {
	for _, m := range c.messages {
		if m.Role == agentctx.RoleUser {
			return true
		}
	}
	return false
}

func (c *Chat) runHooks(ctx context.Context, hctx hook.Context) hook.Result {
	if c.cfg.HookRegistry == nil || c.cfg.HookExecutor == nil {
		return hook.Continue()
	}
	hooks := c.cfg.HookRegistry.Lookup(hctx.Event, c.cfg.AgentName)
	return c.cfg.HookExecutor.ExecuteSafe(ctx, hctx, hooks)
}

func (c *Chat) emitAgentStop(ctx context.Context, reason, msg string) {
	c.cfg.Stream.Emit(ctx, "agent_stop", map[string]any{
		"agent": c.cfg.AgentName, "reason": reason, "message": msg,
	})
}

// completionLoop implements spec §4.3 step 5: it mutates c.messages in
// place (appending assistant/tool-role records each iteration) and
// returns the final assistant content, or a *finishAgentSignal /
// *FinishSwarmSignal error when a hook short-circuits the loop.
func (c *Chat) completionLoop(ctx context.Context, pending []agentctx.Message) (string, agentctx.Message, error) {
	for {
		outbound := agentctx.TruncateOldToolResults(pending, c.cfg.ToolResultTruncationThreshold)
		resp, err := c.callLLM(ctx, outbound)
		if err != nil {
			return "", agentctx.Message{}, swarmerr.Wrap(swarmerr.LLM, "agentchat", "complete", "provider call failed", err)
		}

		assistantMsg := agentctx.Message{
			Role:                agentctx.RoleAssistant,
			Content:             resp.Content,
			ToolCalls:           resp.ToolCalls,
			ModelID:             c.cfg.Model,
			InputTokens:         resp.InputTokens,
			OutputTokens:        resp.OutputTokens,
			CachedTokens:        resp.CachedTokens,
			CacheCreationTokens: resp.CacheCreationTokens,
		}
		c.messages = append(c.messages, assistantMsg)
		pending = append(pending, assistantMsg)
		c.notifyNewMessage(assistantMsg)

		if !resp.HasToolCalls() {
			return resp.Content, assistantMsg, nil
		}

		c.markToolCallsObserved(resp.ToolCalls)

		toolMsgs, err := c.dispatchToolCalls(ctx, resp.ToolCalls)
		if err != nil {
			return "", agentctx.Message{}, err
		}
		c.messages = append(c.messages, toolMsgs...)
		pending = append(pending, toolMsgs...)
		for _, m := range toolMsgs {
			c.notifyNewMessage(m)
		}
	}
}

func (c *Chat) callLLM(ctx context.Context, messages []agentctx.Message) (llmprovider.Response, error) {
	if c.cfg.GlobalSemaphore != nil {
		if err := c.cfg.GlobalSemaphore.Acquire(ctx, 1); err != nil {
			return llmprovider.Response{}, err
		}
		defer c.cfg.GlobalSemaphore.Release(1)
	}

	var endSpan func(error)
	if c.cfg.Telemetry != nil {
		ctx, endSpan = c.cfg.Telemetry.StartLLMSpan(ctx, c.cfg.AgentName, c.cfg.Model)
	}
	start := time.Now()

	req := llmprovider.Request{
		Model:    c.cfg.Model,
		Messages: messages,
		Tools:    toolSpecsOf(c.cfg.Tools),
		Params:   c.cfg.Params,
		Headers:  c.cfg.Headers,
		Timeout:  c.cfg.Timeout,
	}
	resp, err := c.cfg.Provider.Complete(ctx, req)

	if c.cfg.Telemetry != nil {
		c.cfg.Telemetry.RecordLLMCall(c.cfg.AgentName, c.cfg.Model, time.Since(start), resp.InputTokens, resp.OutputTokens, err)
		endSpan(err)
	}
	return resp, err
}

func toolSpecsOf(reg *tool.Registry) []llmprovider.ToolSpec {
	if reg == nil {
		return nil
	}
	activated := reg.Activated()
	if activated == nil {
		activated = reg.ActivateToolsForPrompt()
	}
	specs := make([]llmprovider.ToolSpec, 0, len(activated))
	for _, t := range activated {
		specs = append(specs, llmprovider.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return specs
}

// dispatchToolCalls runs calls with bounded parallelism
// (max_concurrent_tools), writing each result to its own pre-sized
// slot so the returned messages preserve call order regardless of
// completion order (spec §4.3 step 5.c).
func (c *Chat) dispatchToolCalls(ctx context.Context, calls []agentctx.ToolCall) ([]agentctx.Message, error) {
	results := make([]agentctx.Message, len(calls))
	errs := make([]error, len(calls))

	var sem *semaphore.Weighted
	if c.cfg.MaxConcurrentTools > 0 {
		sem = semaphore.NewWeighted(int64(c.cfg.MaxConcurrentTools))
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				continue
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				defer sem.Release(1)
			}
			results[i], errs[i] = c.dispatchOne(ctx, call)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// dispatchOne handles one tool call: delegation special-casing, then
// pre_tool_use/post_tool_use hook outcome mapping (spec §4.3 step
// 5.c).
func (c *Chat) dispatchOne(ctx context.Context, call agentctx.ToolCall) (agentctx.Message, error) {
	reg, ok := c.cfg.Tools.Get(call.Name)
	if !ok {
		return toolResultMessage(call.ID, fmt.Sprintf("tool %q is not registered", call.Name)), nil
	}

	if reg.Source == tool.SourceDelegation {
		if dt, ok := reg.Tool.(tool.DelegationTool); ok {
			return c.callDelegation(ctx, call, dt)
		}
	}

	preHctx := hook.Context{
		Event: hook.PreToolUse, AgentName: c.cfg.AgentName, SwarmID: c.cfg.SwarmID,
		ToolCall: &hook.ToolCall{ID: call.ID, Name: call.Name, Arguments: call.Arguments},
	}
	pre := c.runHooks(ctx, preHctx)
	switch pre.Kind {
	case hook.KindReplace:
		return toolResultMessage(call.ID, pre.Value), nil
	case hook.KindHalt:
		return toolResultMessage(call.ID, pre.Message), nil
	case hook.KindFinishAgent:
		return agentctx.Message{}, &finishAgentSignal{content: pre.Message}
	case hook.KindFinishSwarm:
		return agentctx.Message{}, &FinishSwarmSignal{Message: pre.Message}
	}

	c.notifyToolCall(call)
	content, callErr := c.invokeTool(ctx, reg.Tool, call)
	if callErr != nil {
		content = fmt.Sprintf("error: %s", callErr.Error())
	}
	c.notifyToolResult(call, content)

	postHctx := hook.Context{
		Event: hook.PostToolUse, AgentName: c.cfg.AgentName, SwarmID: c.cfg.SwarmID,
		ToolCall:   &hook.ToolCall{ID: call.ID, Name: call.Name, Arguments: call.Arguments},
		ToolResult: &content,
	}
	post := c.runHooks(ctx, postHctx)
	switch post.Kind {
	case hook.KindReplace:
		content = post.Value
	case hook.KindHalt:
		content = post.Message
	case hook.KindFinishAgent:
		return agentctx.Message{}, &finishAgentSignal{content: post.Message}
	case hook.KindFinishSwarm:
		return agentctx.Message{}, &FinishSwarmSignal{Message: post.Message}
	}

	return toolResultMessage(call.ID, content), nil
}

func (c *Chat) invokeTool(ctx context.Context, t tool.CallableTool, call agentctx.ToolCall) (string, error) {
	var endSpan func(error)
	if c.cfg.Telemetry != nil {
		ctx, endSpan = c.cfg.Telemetry.StartToolSpan(ctx, c.cfg.AgentName, call.Name)
	}
	start := time.Now()

	toolCtx := tool.Context{
		Context:        ctx,
		AgentName:      c.cfg.AgentName,
		AgentDirectory: c.cfg.AgentDirectory,
		Digests:        c.cfg.Digests,
		Todos:          c.cfg.Todos,
	}
	out, err := t.Call(toolCtx, call.Arguments)

	if c.cfg.Telemetry != nil {
		c.cfg.Telemetry.RecordToolCall(c.cfg.AgentName, call.Name, time.Since(start), err)
		endSpan(err)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", out), nil
}

func (c *Chat) callDelegation(ctx context.Context, call agentctx.ToolCall, dt tool.DelegationTool) (agentctx.Message, error) {
	toAgent := call.Name
	if reg, ok := c.cfg.Tools.Get(call.Name); ok && reg.Metadata["delegate"] != "" {
		toAgent = reg.Metadata["delegate"]
	}
	var endSpan func(error)
	if c.cfg.Telemetry != nil {
		ctx, endSpan = c.cfg.Telemetry.StartDelegationSpan(ctx, c.cfg.AgentName, toAgent)
	}
	start := time.Now()

	taskDescription, _ := call.Arguments["task_description"].(string)
	contextHints, _ := call.Arguments["context_hints"].(string)
	content, err := dt.Delegate(ctx, taskDescription, contextHints)

	if c.cfg.Telemetry != nil {
		c.cfg.Telemetry.RecordDelegation(c.cfg.AgentName, toAgent, time.Since(start), err)
		endSpan(err)
	}
	if err != nil {
		content = fmt.Sprintf("error: %s", err.Error())
	}
	return toolResultMessage(call.ID, content), nil
}

func toolResultMessage(toolCallID, content string) agentctx.Message {
	return agentctx.Message{Role: agentctx.RoleTool, Content: content, ToolCallID: toolCallID}
}

// checkContextThresholds implements spec §4.3 step 6.
func (c *Chat) checkContextThresholds(ctx context.Context) {
	if c.cfg.Context == nil {
		return
	}
	usage := agentctx.ComputeUsage(c.cfg.Context, c.messages, c.cfg.ModelRegistry)
	crossed := agentctx.CrossedThresholds(c.cfg.Context, usage.ContextUsagePercentage)
	for _, threshold := range crossed {
		c.cfg.Context.MarkThresholdHit(threshold)
		c.cfg.Stream.Emit(ctx, "context_limit_warning", map[string]any{
			"agent": c.cfg.AgentName, "threshold": threshold, "usage_percentage": usage.ContextUsagePercentage,
		})
		if c.cfg.Telemetry != nil {
			c.cfg.Telemetry.RecordContextWarning(c.cfg.AgentName, threshold)
		}
		c.runHooks(ctx, hook.Context{
			Event: hook.ContextWarning, AgentName: c.cfg.AgentName, SwarmID: c.cfg.SwarmID,
			Metadata: map[string]any{"threshold": threshold, "usage_percentage": usage.ContextUsagePercentage},
		})
	}
	c.maybeAutoCompact(ctx, usage.ContextUsagePercentage)
}
