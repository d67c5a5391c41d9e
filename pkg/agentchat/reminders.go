package agentchat

import (
	"context"
	"fmt"
	"strings"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// wrapReminder embeds text the LLM sees but that is stripped from
// persisted history (spec §4.3 step 4).
func wrapReminder(text string) string {
	return fmt.Sprintf("<system-reminder>%s</system-reminder>", text)
}

// collectReminders gathers every ephemeral reminder that applies to
// this turn, in the order spec §4.3 step 4 lists them: toolset/
// empty-todo on the first message, the TodoWrite staleness reminder on
// later ones, then plugin-contributed reminders.
func (c *Chat) collectReminders(ctx context.Context, isFirstMessage bool, prompt string) []string {
	var reminders []string

	toolNames := toolNamesOf(c.cfg.Tools)
	hasTodoWrite := containsName(toolNames, "TodoWrite")

	if isFirstMessage {
		if len(toolNames) > 0 {
			reminders = append(reminders, wrapReminder("Available tools: "+strings.Join(toolNames, ", ")))
		}
		if hasTodoWrite && c.cfg.Todos != nil && c.cfg.Todos.IsEmpty() {
			reminders = append(reminders, wrapReminder(
				"Your todo list is empty. For any non-trivial multi-step task, use TodoWrite to "+
					"track progress before you start."))
		}
	} else if hasTodoWrite && c.todoWriteIsStale() {
		reminders = append(reminders, wrapReminder(
			"You haven't used TodoWrite recently. If you're in the middle of a multi-step task, "+
				"update your todo list to reflect current progress."))
	}

	for _, r := range c.cfg.PluginReminders {
		extra, err := r.OnUserMessage(ctx, c.cfg.AgentName, prompt)
		if err != nil {
			c.cfg.Stream.EmitError(ctx, "plugin_reminder_error", err, map[string]any{"agent": c.cfg.AgentName})
			continue
		}
		for _, text := range extra {
			reminders = append(reminders, wrapReminder(text))
		}
	}

	return reminders
}

// todoWriteIsStale reports whether TodoWrite hasn't been called within
// the last TodoWriteReminderInterval messages. Call sites hold turnMu.
func (c *Chat) todoWriteIsStale() bool {
	if c.lastTodoWriteMessageIndex < 0 {
		return true
	}
	return len(c.messages)-c.lastTodoWriteMessageIndex > c.cfg.TodoWriteReminderInterval
}

// markToolCallsObserved records the most recent TodoWrite invocation
// position for the staleness check above.
func (c *Chat) markToolCallsObserved(calls []agentctx.ToolCall) {
	for _, call := range calls {
		if call.Name == "TodoWrite" {
			c.lastTodoWriteMessageIndex = len(c.messages)
		}
	}
}

func toolNamesOf(reg *tool.Registry) []string {
	if reg == nil {
		return nil
	}
	regs := reg.All()
	names := make([]string, 0, len(regs))
	for _, r := range regs {
		names = append(names, r.Tool.Name())
	}
	return names
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
