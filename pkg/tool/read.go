package tool

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadArgs are the arguments to the Read tool.
type ReadArgs struct {
	Path string `json:"path" jsonschema:"required,description=File path to read, relative to the agent directory"`
}

// readTool reads a file and records its digest for later bookkeeping
// by the write/edit family (spec §4.4).
type readTool struct{}

// NewRead returns the built-in Read tool.
func NewRead() CallableTool { return readTool{} }

func (readTool) Name() string        { return "Read" }
func (readTool) Description() string { return "Read the contents of a file." }
func (readTool) InputSchema() map[string]any { return schemaFor[ReadArgs]() }

func (readTool) Call(ctx Context, args map[string]any) (map[string]any, error) {
	a, err := decodeArgs[ReadArgs](args)
	if err != nil {
		return nil, err
	}

	full := a.Path
	if !filepath.IsAbs(full) {
		full = filepath.Join(ctx.AgentDirectory, a.Path)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.Path, err)
	}
	if ctx.Digests != nil {
		ctx.Digests.Record(full, content)
	}
	return map[string]any{
		"path":    a.Path,
		"content": string(content),
		"bytes":   len(content),
	}, nil
}
