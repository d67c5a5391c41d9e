package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/parruda/swarm-sub004/pkg/hook"
)

// SupportedVersion is the only `version` this loader accepts (spec
// §4.3 persistence note's "reject version values other than the
// currently supported ones" applies equally to the config document).
const SupportedVersion = 2

// LoadEnvFiles loads .env.local then .env into the process environment,
// the same precedence and not-exist tolerance as the teacher's
// pkg/config/env.go LoadEnvFiles.
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads path, expands environment variables, decodes into a
// SwarmFile, and validates the invariants spec §3 names.
func Load(path string) (*SwarmFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse runs the same pipeline as Load over in-memory bytes.
func Parse(data []byte) (*SwarmFile, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	expanded, err := expandEnvVars(raw, nil)
	if err != nil {
		return nil, err
	}
	expandedMap, ok := expanded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config document must be a mapping at the top level")
	}

	var file SwarmFile
	if err := decode(expandedMap, &file); err != nil {
		return nil, err
	}

	assignAgentNames(&file)
	if err := validate(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

func decode(input map[string]any, out *SwarmFile) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
			decodeToolSpecHook,
			disableDefaultToolsHook,
			decodeDelegateSpecHook,
		),
	})
	if err != nil {
		return fmt.Errorf("build config decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	// mapstructure has no "decode everything unmapped into this field"
	// facility for a fixed struct target, so plugin_configs (spec §3:
	// "opaque per-plugin blob addressed by plugin name") is collected
	// by a second pass over each agent's raw map, keeping any key that
	// isn't one of AgentDefinition's known yaml tags.
	swarmRaw, _ := input["swarm"].(map[string]any)
	agentsRaw, _ := swarmRaw["agents"].(map[string]any)
	for name, def := range out.Swarm.Agents {
		raw, ok := agentsRaw[name].(map[string]any)
		if !ok {
			continue
		}
		def.PluginConfigs = extractPluginConfigs(raw)
	}
	return nil
}

var knownAgentKeys = map[string]bool{
	"description": true, "model": true, "provider": true, "base_url": true,
	"api_version": true, "directory": true, "context_window": true,
	"parameters": true, "headers": true, "timeout": true, "coding_agent": true,
	"disable_default_tools": true, "tools": true, "delegates_to": true,
	"mcp_servers": true, "hooks": true, "shared_across_delegations": true,
}

func extractPluginConfigs(raw map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for key, value := range raw {
		if knownAgentKeys[key] {
			continue
		}
		if blob, ok := value.(map[string]any); ok {
			out[key] = blob
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func assignAgentNames(file *SwarmFile) {
	for name, def := range file.Swarm.Agents {
		def.Name = name
	}
}

// validate enforces the invariants spec §3/§6 name explicitly:
// version support, unique non-"@"-containing agent names, existing
// directories, api_version only paired with an OpenAI-compatible
// provider, and closed-enum hook event names.
func validate(file *SwarmFile) error {
	if file.Version != SupportedVersion {
		return fmt.Errorf("unsupported config version %d (only %d is supported)", file.Version, SupportedVersion)
	}
	if file.Swarm.Lead == "" {
		return fmt.Errorf("swarm.lead is required")
	}
	if _, ok := file.Swarm.Agents[file.Swarm.Lead]; !ok {
		return fmt.Errorf("swarm.lead %q is not defined under swarm.agents", file.Swarm.Lead)
	}

	for name, def := range file.Swarm.Agents {
		if strings.Contains(name, "@") {
			return fmt.Errorf("agent name %q may not contain '@'", name)
		}
		if def.Description == "" {
			return fmt.Errorf("agent %q: description is required", name)
		}
		if def.Directory == "" {
			return fmt.Errorf("agent %q: directory is required", name)
		}
		if info, err := os.Stat(def.Directory); err != nil || !info.IsDir() {
			return fmt.Errorf("agent %q: directory %q does not exist", name, def.Directory)
		}
		if def.APIVersion != "" {
			if def.APIVersion != "v1/chat/completions" && def.APIVersion != "v1/responses" {
				return fmt.Errorf("agent %q: invalid api_version %q", name, def.APIVersion)
			}
			if def.Provider != "openai" && def.Provider != "" {
				return fmt.Errorf("agent %q: api_version is only valid for OpenAI-compatible providers", name)
			}
		}
		for event := range def.Hooks {
			if !hook.Event(event).Valid() {
				return fmt.Errorf("agent %q: unknown hook event %q", name, event)
			}
		}
		for _, d := range def.DelegatesTo {
			if d.Agent == "" {
				return fmt.Errorf("agent %q: delegates_to entry missing an agent name", name)
			}
		}
	}
	return nil
}
