package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/parruda/swarm-sub004/pkg/tool"
)

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurationHook converts a bare numeric `timeout: <seconds>`
// (spec §6) into a time.Duration, ahead of
// mapstructure.StringToTimeDurationHookFunc which only handles string
// forms like "30s". WeaklyTypedInput would otherwise reinterpret the
// int as a nanosecond count, since time.Duration's underlying type is
// int64.
func secondsToDurationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

// ToolSpec is the single normalized record every polymorphic `tools:`
// entry form parses into (spec §9: "Tool parameter polymorphism
// (:Write, "Write", {Write: {...}}, {name:..., permissions:...})" ->
// "Parse all forms into a single ToolSpec{name, permissions?} record
// at config load").
type ToolSpec struct {
	Name        string
	Permissions *tool.Permissions
}

// permissionsBlob is the shape `allowed_paths`/`deny_paths`/
// `allowed_commands` decode into before becoming a tool.Permissions.
type permissionsBlob struct {
	AllowedPaths    []string `mapstructure:"allowed_paths"`
	DenyPaths       []string `mapstructure:"deny_paths"`
	AllowedCommands []string `mapstructure:"allowed_commands"`
}

func (b permissionsBlob) toPermissions() *tool.Permissions {
	return &tool.Permissions{
		AllowedPaths:    b.AllowedPaths,
		DenyPaths:       b.DenyPaths,
		AllowedCommands: b.AllowedCommands,
	}
}

// decodeToolSpecHook recognizes the three YAML-representable forms of
// a tools: entry and normalizes each into a ToolSpec:
//   - a bare string: "Write"                      -> {Name: "Write"}
//   - a single-key map: {Write: {allowed_paths:[...]}} -> {Name: "Write", Permissions: ...}
//   - an explicit map: {name: Write, permissions: {...}} -> same
var toolSpecType = reflect.TypeOf(ToolSpec{})

func decodeToolSpecHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != toolSpecType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return ToolSpec{Name: v}, nil

	case map[string]any:
		if name, ok := v["name"]; ok {
			spec := ToolSpec{}
			if s, ok := name.(string); ok {
				spec.Name = s
			}
			if permsRaw, ok := v["permissions"]; ok {
				perms, err := decodePermissions(permsRaw)
				if err != nil {
					return nil, err
				}
				spec.Permissions = perms
			}
			return spec, nil
		}

		if len(v) != 1 {
			return nil, fmt.Errorf("tool spec map must have exactly one key (the tool name), got %d", len(v))
		}
		for name, permsRaw := range v {
			spec := ToolSpec{Name: name}
			if permsRaw != nil {
				perms, err := decodePermissions(permsRaw)
				if err != nil {
					return nil, err
				}
				spec.Permissions = perms
			}
			return spec, nil
		}
	}
	return data, nil
}

func decodePermissions(raw any) (*tool.Permissions, error) {
	var blob permissionsBlob
	if err := mapstructure.Decode(raw, &blob); err != nil {
		return nil, fmt.Errorf("decode tool permissions: %w", err)
	}
	return blob.toPermissions(), nil
}

var delegateSpecType = reflect.TypeOf(DelegateSpec{})

// decodeDelegateSpecHook normalizes the polymorphic `delegates_to`
// entry form (spec §3: "each with optional custom tool name and
// preserve_context flag") -- a bare agent name or an expanded map.
func decodeDelegateSpecHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != delegateSpecType {
		return data, nil
	}
	if name, ok := data.(string); ok {
		return DelegateSpec{Agent: name}, nil
	}
	return data, nil
}

var disableDefaultToolsType = reflect.TypeOf(&DisableDefaultTools{})

// disableDefaultToolsHook normalizes the `true | [names] | omit` form
// of disable_default_tools into a *DisableDefaultTools.
func disableDefaultToolsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != disableDefaultToolsType {
		return data, nil
	}
	switch v := data.(type) {
	case bool:
		return &DisableDefaultTools{All: v}, nil
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("disable_default_tools entries must be strings, got %T", item)
			}
			names = append(names, s)
		}
		return &DisableDefaultTools{Names: names}, nil
	}
	return data, nil
}
