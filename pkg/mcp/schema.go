package mcp

import "encoding/json"

// schemaToMap marshals any JSON-tagged schema value (e.g.
// mcp.ToolInputSchema, or the raw map already decoded from an HTTP
// response) into a clean map[string]any.
func schemaToMap(schema any) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
