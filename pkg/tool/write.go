package tool

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteArgs are the arguments to the Write tool.
type WriteArgs struct {
	Path    string `json:"path" jsonschema:"required,description=File path to write, relative to the agent directory"`
	Content string `json:"content" jsonschema:"required,description=Full content to write"`
}

type writeTool struct{}

// NewWrite returns the built-in Write tool.
func NewWrite() CallableTool { return writeTool{} }

func (writeTool) Name() string        { return "Write" }
func (writeTool) Description() string { return "Write content to a file, creating or overwriting it." }
func (writeTool) InputSchema() map[string]any { return schemaFor[WriteArgs]() }

func (writeTool) Call(ctx Context, args map[string]any) (map[string]any, error) {
	a, err := decodeArgs[WriteArgs](args)
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
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("write %s: %w", a.Path, err)
	}
	if err := os.WriteFile(full, []byte(a.Content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", a.Path, err)
	}
	if ctx.Digests != nil {
		ctx.Digests.Record(full, []byte(a.Content))
	}
	return map[string]any{
		"path":  a.Path,
		"bytes": len(a.Content),
	}, nil
}
