package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EditArgs are the arguments to the Edit tool.
type EditArgs struct {
	Path      string `json:"path" jsonschema:"required,description=File path to edit, relative to the agent directory"`
	OldString string `json:"old_string" jsonschema:"required,description=Exact text to find; must be unique within the file"`
	NewString string `json:"new_string" jsonschema:"required,description=Replacement text"`
}

type editTool struct{}

// NewEdit returns the built-in Edit tool: a single find-and-replace
// that requires OldString to be unique in the file.
func NewEdit() CallableTool { return editTool{} }

func (editTool) Name() string        { return "Edit" }
func (editTool) Description() string { return "Replace one exact, unique occurrence of text in a file." }
func (editTool) InputSchema() map[string]any { return schemaFor[EditArgs]() }

func (editTool) Call(ctx Context, args map[string]any) (map[string]any, error) {
	a, err := decodeArgs[EditArgs](args)
	if err != nil {
		return nil, err
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
		return nil, fmt.Errorf("edit %s: %w", a.Path, err)
	}

	updated, err := applyUniqueReplace(string(content), a.OldString, a.NewString)
	if err != nil {
		return nil, fmt.Errorf("edit %s: %w", a.Path, err)
	}

	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return nil, fmt.Errorf("edit %s: %w", a.Path, err)
	}
	if ctx.Digests != nil {
		ctx.Digests.Record(full, []byte(updated))
	}
	return map[string]any{"path": a.Path, "bytes": len(updated)}, nil
}

// applyUniqueReplace replaces the single occurrence of oldString in
// content with newString, failing if oldString is absent or ambiguous
// (grounded on the teacher's apply_patch uniqueness check).
func applyUniqueReplace(content, oldString, newString string) (string, error) {
	count := strings.Count(content, oldString)
	if count == 0 {
		return "", fmt.Errorf("old_string not found")
	}
	if count > 1 {
		return "", fmt.Errorf("old_string is ambiguous: appears %d times, add more context", count)
	}
	return strings.Replace(content, oldString, newString, 1), nil
}
