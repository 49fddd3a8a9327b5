// Package assistant – context.go holds per-conversation slot-filling
// state. A context is either idle or awaiting one slot of a pending
// intent; while awaiting, the next utterance is consumed verbatim as the
// slot value instead of being re-routed.
package assistant

// ContextState names the slot-filling states.
type ContextState int

const (
	// StateIdle means no multi-turn flow is pending.
	StateIdle ContextState = iota

	// StateAwaitingSlot means the next turn fills PendingSlot.
	StateAwaitingSlot
)

// UtteranceContext is the mutable state of one conversation. Owned by a
// single session and mutated only by the planner; the assistant serializes
// turns per session, so no locking happens here.
type UtteranceContext struct {
	// State is the current slot-filling state.
	State ContextState

	// PendingIntent is the intent awaiting slots, valid in StateAwaitingSlot.
	PendingIntent string

	// PendingSlot is the slot the next turn will fill.
	PendingSlot string

	// Slots holds values collected so far for PendingIntent.
	Slots map[string]string
}

// NewUtteranceContext returns an idle context.
func NewUtteranceContext() *UtteranceContext {
	return &UtteranceContext{Slots: make(map[string]string)}
}

// Awaiting reports whether a slot value is expected next turn.
func (c *UtteranceContext) Awaiting() bool {
	return c.State == StateAwaitingSlot
}

// BeginAwait records that intentID is waiting for slotName, keeping any
// slots already collected for it.
func (c *UtteranceContext) BeginAwait(intentID, slotName string, collected map[string]string) {
	if c.PendingIntent != intentID {
		c.Slots = make(map[string]string)
	}
	for name, value := range collected {
		if value != "" {
			c.Slots[name] = value
		}
	}
	c.State = StateAwaitingSlot
	c.PendingIntent = intentID
	c.PendingSlot = slotName
}

// FillPending consumes value for the awaited slot and returns the pending
// intent id with all slots collected so far. The context stays in
// StateAwaitingSlot until the planner either dispatches (Reset) or asks
// for the next slot (BeginAwait).
func (c *UtteranceContext) FillPending(value string) (string, map[string]string) {
	c.Slots[c.PendingSlot] = value
	args := make(map[string]string, len(c.Slots))
	for name, v := range c.Slots {
		args[name] = v
	}
	return c.PendingIntent, args
}

// Reset returns the context to idle, dropping collected slots.
func (c *UtteranceContext) Reset() {
	c.State = StateIdle
	c.PendingIntent = ""
	c.PendingSlot = ""
	c.Slots = make(map[string]string)
}
