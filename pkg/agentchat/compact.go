package agentchat

import (
	"context"
	"strings"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
)

// Compact runs spec §4.3's explicit compaction path ("requested via
// hook or API"): a caller outside the completion loop — a plugin, a
// host application, a native hook acting on ContextWarning — can force
// a compaction pass without waiting for the automatic threshold.
func (c *Chat) Compact(ctx context.Context) error {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	return c.compactLocked(ctx)
}

// compactLocked assumes turnMu is already held, which lets
// checkContextThresholds trigger compaction inline from within Ask
// without re-entering the lock.
func (c *Chat) compactLocked(ctx context.Context) error {
	if c.cfg.Compactor == nil {
		return nil
	}

	before := len(c.messages)
	compacted, err := c.cfg.Compactor.Compact(c.messages)
	if err != nil {
		return swarmerr.Wrap(swarmerr.State, "agentchat", "compact", "compaction failed", err)
	}
	c.messages = compacted

	c.cfg.Stream.Emit(ctx, "context_compacted", map[string]any{
		"agent":           c.cfg.AgentName,
		"messages_before": before,
		"messages_after":  len(compacted),
	})
	return nil
}

// maybeAutoCompact implements SPEC_FULL §3's supplemented automatic
// trigger: once usage crosses CompactionThreshold (default
// agentctx.DefaultCompactionThreshold), compact without waiting for an
// explicit request. Errors are logged via context_compaction_failed
// rather than returned, since this runs after Ask has already produced
// its result and has no caller left to report to.
func (c *Chat) maybeAutoCompact(ctx context.Context, usagePercentage float64) {
	if c.cfg.Compactor == nil {
		return
	}
	if !agentctx.ShouldAutoCompact(usagePercentage, c.cfg.CompactionThreshold) {
		return
	}
	if err := c.compactLocked(ctx); err != nil {
		c.cfg.Stream.Emit(ctx, "context_compaction_failed", map[string]any{
			"agent": c.cfg.AgentName, "error": err.Error(),
		})
	}
}

// DefaultSummarizer builds an agentctx.Summarizer that asks provider
// itself to condense the dropped messages into one short paragraph,
// the same model the agent otherwise talks to. Builder wiring uses
// this unless a caller supplies its own Compactor.
func DefaultSummarizer(provider llmprovider.Provider, model string) agentctx.Summarizer {
	return func(dropped []agentctx.Message) (string, error) {
		if provider == nil {
			return "", swarmerr.New(swarmerr.Configuration, "agentchat", "default_summarizer",
				"no provider configured to summarize dropped context")
		}
		instruction := agentctx.Message{
			Role: agentctx.RoleUser,
			Content: "Summarize the conversation turns below in one short paragraph, " +
				"preserving any decisions, facts, or open tasks a continuing agent would " +
				"need:\n\n" + renderForSummary(dropped),
		}
		resp, err := provider.Complete(context.Background(), llmprovider.Request{
			Model:    model,
			Messages: []agentctx.Message{instruction},
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
}

func renderForSummary(messages []agentctx.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
