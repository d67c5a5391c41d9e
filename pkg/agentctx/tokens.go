package agentctx

// Usage exposes the token-accounting properties of spec §4.3,
// computed from a chat's message history and its Context.
type Usage struct {
	ContextLimit                  int
	CumulativeInputTokens         int
	CumulativeOutputTokens        int
	CumulativeCachedTokens        int
	CumulativeCacheCreationTokens int
	EffectiveInputTokens          int
	CumulativeTotalTokens         int
	ContextUsagePercentage        float64
}

// ComputeUsage derives Usage from messages (cumulative input/output
// etc. are read from the most recent assistant message, per spec
// §4.3) and the context limit resolution order: explicit override,
// then registry, then ConservativeContextWindow.
func ComputeUsage(c *Context, messages []Message, registry ModelRegistry) Usage {
	limit := c.ContextWindowOverride
	if limit <= 0 {
		limit = resolveContextLimit(messages, registry)
	}

	var last *Message
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant {
			last = &messages[i]
			break
		}
	}

	u := Usage{ContextLimit: limit}
	if last != nil {
		u.CumulativeInputTokens = last.InputTokens
		u.CumulativeOutputTokens = last.OutputTokens
		u.CumulativeCachedTokens = last.CachedTokens
		u.CumulativeCacheCreationTokens = last.CacheCreationTokens
		u.EffectiveInputTokens = last.InputTokens - last.CachedTokens
		u.CumulativeTotalTokens = last.InputTokens + last.OutputTokens
	}
	if limit > 0 {
		u.ContextUsagePercentage = float64(u.CumulativeTotalTokens) / float64(limit) * 100
	}
	return u
}

func resolveContextLimit(messages []Message, registry ModelRegistry) int {
	if registry == nil {
		return ConservativeContextWindow
	}
	modelID := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].ModelID != "" {
			modelID = messages[i].ModelID
			break
		}
	}
	if modelID == "" {
		return ConservativeContextWindow
	}
	info, ok := registry.Find(modelID)
	if !ok || info.ContextWindow <= 0 {
		return ConservativeContextWindow
	}
	return info.ContextWindow
}

// WarningThresholds are the context-usage percentages that fire
// context_limit_warning (spec §4.3 step 6).
var WarningThresholds = []int{75, 85, 95}

// CrossedThresholds returns every threshold in WarningThresholds that
// usagePercentage has reached and that c hasn't already marked as hit,
// in ascending order, WITHOUT marking them — the caller marks each one
// it actually fires a hook for.
func CrossedThresholds(c *Context, usagePercentage float64) []int {
	var crossed []int
	for _, t := range WarningThresholds {
		if usagePercentage >= float64(t) && !c.ThresholdHit(t) {
			crossed = append(crossed, t)
		}
	}
	return crossed
}

// Cost computes the dollar cost of the most recent assistant message
// using registry pricing; missing pricing is non-fatal and yields 0
// (spec §4.3: "missing pricing -> zero cost").
func Cost(messages []Message, registry ModelRegistry) float64 {
	if registry == nil || len(messages) == 0 {
		return 0
	}
	var last *Message
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant {
			last = &messages[i]
			break
		}
	}
	if last == nil || last.ModelID == "" {
		return 0
	}
	info, ok := registry.Find(last.ModelID)
	if !ok || !info.HasPricing {
		return 0
	}
	return float64(last.InputTokens)*info.InputPricing + float64(last.OutputTokens)*info.OutputPricing
}
