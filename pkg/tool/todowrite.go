package tool

import "sync"

// TodoStatus is the closed set of states a TodoItem can be in.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// TodoItem is one entry of a TodoWrite call's structured list.
type TodoItem struct {
	Content    string     `json:"content"`
	Status     TodoStatus `json:"status"`
	ActiveForm string     `json:"active_form,omitempty"`
}

// TodoStore holds the most recent todo list for one chat. Chat.Ask
// consults it (via IsEmpty) to decide whether the "empty todo list"
// guidance reminder applies (spec §4.3).
type TodoStore struct {
	mu    sync.Mutex
	items []TodoItem
}

// NewTodoStore returns an empty store.
func NewTodoStore() *TodoStore { return &TodoStore{} }

// Set replaces the current todo list.
func (s *TodoStore) Set(items []TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

// Items returns a copy of the current todo list.
func (s *TodoStore) Items() []TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TodoItem, len(s.items))
	copy(out, s.items)
	return out
}

// IsEmpty reports whether the current todo list has no items.
func (s *TodoStore) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// TodoWriteArgs are the arguments to the TodoWrite tool.
type TodoWriteArgs struct {
	Todos []TodoItem `json:"todos" jsonschema:"required,description=The full, replacement todo list"`
}

type todoWriteTool struct{}

// NewTodoWrite returns the built-in TodoWrite tool.
func NewTodoWrite() CallableTool { return todoWriteTool{} }

func (todoWriteTool) Name() string { return "TodoWrite" }
func (todoWriteTool) Description() string {
	return "Record the current structured task list, replacing any previous list."
}
func (todoWriteTool) InputSchema() map[string]any { return schemaFor[TodoWriteArgs]() }

func (todoWriteTool) Call(ctx Context, args map[string]any) (map[string]any, error) {
	a, err := decodeArgs[TodoWriteArgs](args)
	if err != nil {
		return nil, err
	}
	if ctx.Todos != nil {
		ctx.Todos.Set(a.Todos)
	}
	return map[string]any{"count": len(a.Todos)}, nil
}
