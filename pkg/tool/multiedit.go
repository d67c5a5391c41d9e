package tool

import (
	"fmt"
	"os"
	"path/filepath"
)

// MultiEditOp is one ordered edit within a MultiEdit call.
type MultiEditOp struct {
	OldString string `json:"old_string" jsonschema:"required,description=Exact text to find; must be unique within the file as of this step"`
	NewString string `json:"new_string" jsonschema:"required,description=Replacement text"`
}

// MultiEditArgs are the arguments to the MultiEdit tool.
type MultiEditArgs struct {
	Path  string        `json:"path" jsonschema:"required,description=File path to edit, relative to the agent directory"`
	Edits []MultiEditOp `json:"edits" jsonschema:"required,description=Ordered list of find-and-replace operations applied atomically"`
}

type multiEditTool struct{}

// NewMultiEdit returns the built-in MultiEdit tool: a sequence of Edit
// operations applied to one file, all-or-nothing.
func NewMultiEdit() CallableTool { return multiEditTool{} }

func (multiEditTool) Name() string { return "MultiEdit" }
func (multiEditTool) Description() string {
	return "Apply multiple ordered find-and-replace edits to a single file atomically."
}
func (multiEditTool) InputSchema() map[string]any { return schemaFor[MultiEditArgs]() }

func (multiEditTool) Call(ctx Context, args map[string]any) (map[string]any, error) {
	a, err := decodeArgs[MultiEditArgs](args)
	if err != nil {
		return nil, err
	}
	if len(a.Edits) == 0 {
		return nil, fmt.Errorf("multiedit %s: no edits provided", a.Path)
	}
	if err := ctx.Permissions.CheckPath(ctx.AgentDirectory, a.Path); err != nil {
		return nil, err
	}

	full := a.Path
	if !filepath.IsAbs(full) {
		full = filepath.Join(ctx.AgentDirectory, a.Path)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("multiedit %s: %w", a.Path, err)
	}

	current := string(content)
	for i, op := range a.Edits {
		current, err = applyUniqueReplace(current, op.OldString, op.NewString)
		if err != nil {
			return nil, fmt.Errorf("multiedit %s: edit %d: %w", a.Path, i, err)
		}
	}

	if err := os.WriteFile(full, []byte(current), 0o644); err != nil {
		return nil, fmt.Errorf("multiedit %s: %w", a.Path, err)
	}
	if ctx.Digests != nil {
		ctx.Digests.Record(full, []byte(current))
	}
	return map[string]any{"path": a.Path, "edits_applied": len(a.Edits), "bytes": len(current)}, nil
}
