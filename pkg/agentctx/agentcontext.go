package agentctx

// ConservativeContextWindow is used when neither an explicit override
// nor a ModelRegistry lookup can supply a context window (spec §9:
// "Missing -> warning event + usage of explicit context_window
// override or a conservative default").
const ConservativeContextWindow = 8192

// ModelInfo is what the external model/pricing registry reports about
// one model id (spec §9). Pricing is optional; its absence means cost
// computation for that model is zero, non-fatally.
type ModelInfo struct {
	ContextWindow int
	Provider      string
	InputPricing  float64 // cost per input token; 0 if unknown
	OutputPricing float64 // cost per output token; 0 if unknown
	HasPricing    bool
}

// ModelRegistry is the external collaborator the core consumes rather
// than implements (spec §1 Non-goals: "model/pricing registry
// lookup").
type ModelRegistry interface {
	Find(modelID string) (ModelInfo, bool)
}

// Context is the AgentContext entity of spec §3: the tracking record
// instrumentation and hooks use to identify the source of an event.
type Context struct {
	Name                 string
	SwarmID              string
	ParentSwarmID        string
	DelegationTools      []string
	IsDelegationInstance bool

	// ContextWindowOverride, when non-zero, takes priority over the
	// ModelRegistry lookup for ContextLimit.
	ContextWindowOverride int

	warningThresholdsHit map[int]bool
}

// NewContext returns a Context ready to attach to a chat.
func NewContext(name, swarmID, parentSwarmID string) *Context {
	return &Context{
		Name:                 name,
		SwarmID:              swarmID,
		ParentSwarmID:        parentSwarmID,
		warningThresholdsHit: make(map[int]bool),
	}
}

// MarkThresholdHit records that the integer percentage threshold
// (e.g. 75) has already fired its context_limit_warning, so Chat.Ask
// doesn't re-fire it every subsequent turn (spec §4.3).
func (c *Context) MarkThresholdHit(threshold int) {
	if c.warningThresholdsHit == nil {
		c.warningThresholdsHit = make(map[int]bool)
	}
	c.warningThresholdsHit[threshold] = true
}

// ThresholdHit reports whether MarkThresholdHit(threshold) was
// already called.
func (c *Context) ThresholdHit(threshold int) bool {
	return c.warningThresholdsHit[threshold]
}
