package hook

import "regexp"

// Matcher restricts a hook to firing only for matching tool names,
// used by pre_tool_use/post_tool_use (spec §4.7: "A matcher (string or
// regex) restricts by tool name").
type Matcher struct {
	literal string
	regex   *regexp.Regexp
}

// NewExactMatcher matches only the exact tool name.
func NewExactMatcher(name string) Matcher {
	return Matcher{literal: name}
}

// NewRegexMatcher matches any tool name the pattern matches anywhere
// in the string; callers wanting a full match should anchor it
// themselves with ^...$.
func NewRegexMatcher(pattern string) (Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{regex: re}, nil
}

// Match reports whether toolName satisfies the matcher.
func (m Matcher) Match(toolName string) bool {
	if m.regex != nil {
		return m.regex.MatchString(toolName)
	}
	return m.literal == toolName
}
