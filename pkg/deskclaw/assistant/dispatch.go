// Package assistant – dispatch.go maps intent identifiers to handlers.
// Handlers come in two shapes, registered with an explicit tag: sync
// (one string result) and streaming (fragments pushed through a callback).
// The planner dispatches without knowing the shape.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/llm"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

// ErrUnknownIntent is returned when an identifier has no registration.
// Routing draws from the catalogue, so hitting this means classifier
// output drifted; it is answered with a generic fallback, never a crash.
var ErrUnknownIntent = errors.New("unknown intent")

// TurnContext is the capability object handlers receive. It carries only
// what a handler legitimately needs for one turn, never the whole
// application.
type TurnContext struct {
	// User is the authenticated user, nil for guests.
	User *store.User

	// History is the prior conversation, oldest first.
	History []llm.Message

	// Caps bundles the external collaborators.
	Caps *Capabilities

	// ResetChat clears the presentation layer's transcript.
	ResetChat func()

	// StopSpeech flushes queued text-to-speech playback.
	StopSpeech func()

	// Now supplies the current time, swappable in tests.
	Now func() time.Time
}

// UserEmail returns the user's email, or "" for guests.
func (t *TurnContext) UserEmail() string {
	if t.User == nil {
		return ""
	}
	return t.User.Email
}

// SyncHandler produces the whole reply at once.
type SyncHandler func(ctx context.Context, turn *TurnContext, args map[string]string) (string, error)

// StreamHandler pushes reply fragments through emit as they arrive.
type StreamHandler func(ctx context.Context, turn *TurnContext, args map[string]string, emit func(string)) error

// registration ties an intent to its tagged handler shape.
type registration struct {
	intent Intent
	sync   SyncHandler
	stream StreamHandler
}

// Dispatcher resolves intent identifiers to registered handlers.
type Dispatcher struct {
	routes map[string]registration
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{routes: make(map[string]registration)}
}

// RegisterSync registers a synchronous handler for intent.
func (d *Dispatcher) RegisterSync(intent Intent, h SyncHandler) {
	d.routes[intent.ID] = registration{intent: intent, sync: h}
}

// RegisterStream registers a streaming handler for intent.
func (d *Dispatcher) RegisterStream(intent Intent, h StreamHandler) {
	d.routes[intent.ID] = registration{intent: intent, stream: h}
}

// Intent returns the declared intent for id.
func (d *Dispatcher) Intent(id string) (Intent, bool) {
	reg, ok := d.routes[id]
	return reg.intent, ok
}

// Dispatch resolves and runs the handler for intentID, emitting output
// through emit regardless of handler shape. Returns ErrUnknownIntent for
// unregistered identifiers; handler errors pass through for the planner
// to convert into a user-facing apology.
func (d *Dispatcher) Dispatch(ctx context.Context, intentID string, turn *TurnContext, args map[string]string, emit func(string)) error {
	reg, ok := d.routes[intentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIntent, intentID)
	}

	if reg.stream != nil {
		return reg.stream(ctx, turn, args, emit)
	}

	result, err := reg.sync(ctx, turn, args)
	if err != nil {
		return err
	}
	emit(result)
	return nil
}
