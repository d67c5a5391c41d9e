package tool

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Permissions is the permission envelope file-touching and shell
// tools consult before acting (spec §4.4). Paths are resolved
// relative to the owning agent's directory.
type Permissions struct {
	AllowedPaths    []string
	DenyPaths       []string
	AllowedCommands []string
}

// DefaultWritePermissions is injected for write-class tools
// (Write|Edit|MultiEdit) that were configured with no explicit
// permissions (spec §3 AgentDefinition invariant, §8 boundary
// behavior).
func DefaultWritePermissions() Permissions {
	return Permissions{AllowedPaths: []string{"**/*"}}
}

// CheckPath reports whether path (resolved against agentDir) is
// permitted: it must match an AllowedPaths glob (if any is set — an
// empty AllowedPaths list with no DenyPaths match denies everything,
// since a file-touching tool always has at least the injected
// default) and must not match any DenyPaths glob, which always wins.
func (p Permissions) CheckPath(agentDir, path string) error {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(agentDir, path)
	}
	resolved = filepath.Clean(resolved)

	for _, pattern := range p.DenyPaths {
		if globMatch(filepath.Join(agentDir, pattern), resolved) {
			return fmt.Errorf("permission denied: %q matches deny_paths rule %q", path, pattern)
		}
	}

	if len(p.AllowedPaths) == 0 {
		return fmt.Errorf("permission denied: %q is not within any allowed_paths rule", path)
	}
	for _, pattern := range p.AllowedPaths {
		if globMatch(filepath.Join(agentDir, pattern), resolved) {
			return nil
		}
	}
	return fmt.Errorf("permission denied: %q is not within any allowed_paths rule", path)
}

// CheckCommand reports whether command is permitted. An empty
// AllowedCommands means no restriction beyond the shell tool's own
// timeout.
func (p Permissions) CheckCommand(command string) error {
	if len(p.AllowedCommands) == 0 {
		return nil
	}
	head := strings.Fields(command)
	name := ""
	if len(head) > 0 {
		name = head[0]
	}
	for _, allowed := range p.AllowedCommands {
		if allowed == name || allowed == command {
			return nil
		}
	}
	return fmt.Errorf("permission denied: command %q is not in allowed_commands", command)
}

// globMatch implements the "**" doublestar glob semantics the pack's
// dependencies don't cover (none of the example repos vendor a glob
// library; filepath.Match alone cannot express "**" spanning
// directories), by translating the pattern to an anchored regex.
func globMatch(pattern, name string) bool {
	pattern = filepath.ToSlash(pattern)
	name = filepath.ToSlash(name)

	var b strings.Builder
	b.WriteString("^")
	i := 0
	for i < len(pattern) {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(.*/)?")
			i += 3
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i += 2
		case pattern[i] == '*':
			b.WriteString("[^/]*")
			i++
		case pattern[i] == '?':
			b.WriteString("[^/]")
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			i++
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(name)
}
