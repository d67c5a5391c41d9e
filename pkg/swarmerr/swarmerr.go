// Package swarmerr defines the engine's closed error taxonomy.
//
// Every error the core raises is one of the Kinds below, wrapped in an
// *Error so callers can branch on Kind with errors.As instead of string
// matching on messages.
package swarmerr

import (
	"errors"
	"fmt"
	"time"
)

// Kind is a closed enumeration of the error kinds the core can raise.
type Kind string

const (
	// Configuration covers missing required fields, unknown delegates,
	// invalid api_version, missing directories, and delegation cycles
	// detected at swarm-build time.
	Configuration Kind = "configuration_error"

	// CircularDelegation fires when a delegation chain would revisit an
	// agent already on the call stack.
	CircularDelegation Kind = "circular_delegation_error"

	// LLM covers provider failures, including malformed proxy responses.
	LLM Kind = "llm_error"

	// ToolExecution covers a tool panicking, returning an error, or
	// failing input validation.
	ToolExecution Kind = "tool_execution_error"

	// PermissionDenied covers a file or command rule rejecting a call.
	PermissionDenied Kind = "permission_denied"

	// Hook covers a native hook raising, or a shell hook timing out.
	Hook Kind = "hook_error"

	// Mcp covers MCP connection failures, tools/list failures, and stub
	// schema-fetch failures.
	Mcp Kind = "mcp_error"

	// State covers snapshot version/type mismatches on restore.
	State Kind = "state_error"

	// Cancellation marks an execution that ended due to external
	// cancellation rather than completion or error.
	Cancellation Kind = "cancellation"
)

// Error is the concrete error type for every Kind above.
type Error struct {
	Kind      Kind
	Component string
	Operation string
	Message   string
	Err       error
	Timestamp time.Time
}

// New creates an *Error of the given kind.
func New(kind Kind, component, operation, message string) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		Operation: operation,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap creates an *Error of the given kind that wraps an underlying error.
func Wrap(kind Kind, component, operation, message string, err error) *Error {
	e := New(kind, component, operation, message)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Component, e.Operation, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, swarmerr.New(swarmerr.Configuration, "", "", "")) —
// but the idiomatic check is Kind-based via errors.As, exposed by KindOf.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
