package tool

import "context"

// DelegationTool is a CallableTool that also implements the
// delegation calling convention (spec §4.5). AgentChat detects a
// registration's Source == SourceDelegation and, instead of calling
// Call (which would fire pre_tool_use/post_tool_use), invokes Delegate
// directly. Delegate is responsible for its own pre_delegation/
// post_delegation events and call-stack bookkeeping; AgentChat treats
// a returned error the same way it treats a ToolExecutionError: as
// tool-result content for the LLM, never as a Go-level failure.
type DelegationTool interface {
	CallableTool
	Delegate(ctx context.Context, taskDescription, contextHints string) (string, error)
}
