package logstream

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/google/uuid"
)

// Filter restricts a Subscription to entries matching all of its
// key/value predicates. Supported value shapes per key:
//   - a scalar: entry field must equal it
//   - a []any: entry field must be a member of it
//   - a *regexp.Regexp: entry field (stringified) must match it
//   - a func(any) bool: entry field must satisfy the predicate
type Filter map[string]any

func (f Filter) matches(e Entry) bool {
	for key, want := range f {
		got, ok := e.Field(key)
		if !ok {
			return false
		}
		switch w := want.(type) {
		case []any:
			if !member(got, w) {
				return false
			}
		case *regexp.Regexp:
			if !w.MatchString(fmt.Sprint(got)) {
				return false
			}
		case func(any) bool:
			if !w(got) {
				return false
			}
		default:
			if got != want {
				return false
			}
		}
	}
	return true
}

func member(got any, set []any) bool {
	for _, v := range set {
		if v == got {
			return true
		}
	}
	return false
}

// Subscription is one registered callback with its restricting Filter.
type Subscription struct {
	ID       string
	Filter   Filter
	Callback func(Entry)
}

// Collector is the default Emitter: it keeps an ordered list of
// Subscriptions and dispatches each Entry synchronously, in
// subscription-registration order, isolating a panicking or erroring
// subscriber so it cannot break delivery to the others.
//
// A Collector is scoped to one execution (owned by the Swarm/Executor
// running it) rather than looked up through thread-local state: since
// goroutines spawned during that execution share the same *Collector
// value, "child fibers inherit the parent's subscriptions" falls out
// naturally, and a separate execute call simply uses a different
// Collector, so executions never leak subscriptions into one another.
type Collector struct {
	mu     sync.Mutex
	order  []string
	subs   map[string]*Subscription
	logger *slog.Logger
}

// NewCollector creates an empty Collector. A nil logger falls back to
// slog.Default().
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		subs:   make(map[string]*Subscription),
		logger: logger,
	}
}

// Subscribe registers cb for entries matching filter and returns the
// subscription id (usable with Unsubscribe).
func (c *Collector) Subscribe(filter Filter, cb func(Entry)) string {
	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[id] = &Subscription{ID: id, Filter: filter, Callback: cb}
	c.order = append(c.order, id)
	return id
}

// Unsubscribe removes a previously registered subscription. It is a
// no-op if id is unknown.
func (c *Collector) Unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[id]; !ok {
		return
	}
	delete(c.subs, id)
	for i, sid := range c.order {
		if sid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Emit implements Emitter: it delivers entry to every matching
// subscriber synchronously, in registration order.
func (c *Collector) Emit(_ context.Context, entry Entry) {
	c.mu.Lock()
	snapshot := make([]*Subscription, 0, len(c.order))
	for _, id := range c.order {
		snapshot = append(snapshot, c.subs[id])
	}
	c.mu.Unlock()

	for _, sub := range snapshot {
		if sub.Filter != nil && !sub.Filter.matches(entry) {
			continue
		}
		c.deliver(sub, entry)
	}
}

func (c *Collector) deliver(sub *Subscription, entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("logstream subscriber panicked",
				"subscription_id", sub.ID, "entry_type", entry.Type, "recover", r)
		}
	}()
	sub.Callback(entry)
}
