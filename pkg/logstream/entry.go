package logstream

import "time"

// Entry is one LogEntry per spec §3: a uniform envelope plus an
// event-specific field bag.
type Entry struct {
	Type          string
	Timestamp     time.Time
	ExecutionID   string
	SwarmID       string
	ParentSwarmID string
	Agent         string
	Fields        map[string]any
}

// Field looks up a field by name, checking the named envelope members
// first (so filters can match on "agent" or "type" the same way they
// match on an arbitrary field in Fields).
func (e Entry) Field(name string) (any, bool) {
	switch name {
	case "type":
		return e.Type, true
	case "agent":
		if e.Agent == "" {
			return nil, false
		}
		return e.Agent, true
	case "execution_id":
		return e.ExecutionID, true
	case "swarm_id":
		return e.SwarmID, true
	case "parent_swarm_id":
		if e.ParentSwarmID == "" {
			return nil, false
		}
		return e.ParentSwarmID, true
	default:
		v, ok := e.Fields[name]
		return v, ok
	}
}
