package delegate

import (
	"sync"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
)

// ChatFactory performs the full AgentChat creation sequence for one
// delegate the first time it is needed: AgentChat creation, context
// setup, hook configuration, declarative-hook application, tool
// activation, and nested-delegation wiring (spec §4.5).
type ChatFactory func() (*agentchat.Chat, error)

// LazyDelegateChat is a thunk keyed by "<delegate>@<delegator>" that
// runs its factory exactly once, on first use, guarded by a mutex so
// concurrent first calls serialize rather than racing (spec §4.5).
type LazyDelegateChat struct {
	factory ChatFactory

	mu   sync.Mutex
	done bool
	chat *agentchat.Chat
	err  error
}

// NewLazyDelegateChat wraps factory in a one-shot initializer.
func NewLazyDelegateChat(factory ChatFactory) *LazyDelegateChat {
	return &LazyDelegateChat{factory: factory}
}

// Get runs factory on the first call and caches its result (success or
// failure) for every subsequent call.
func (l *LazyDelegateChat) Get() (*agentchat.Chat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done {
		l.chat, l.err = l.factory()
		l.done = true
	}
	return l.chat, l.err
}

// Peek returns the chat already built by a prior Get, without
// triggering the factory. It reports false if no delegation has
// reached this target yet, so a snapshot can skip never-instantiated
// isolated delegates instead of forcing them into existence.
func (l *LazyDelegateChat) Peek() (*agentchat.Chat, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chat, l.done && l.err == nil
}
