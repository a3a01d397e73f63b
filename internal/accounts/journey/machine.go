// Package journey drives the multi-step flows a session walks through, one
// state machine per scope.
//
// Definitions are static tables keyed by (state, event tag). Actions are pure
// functions of the current context and the event, so replaying an event log
// through Send always produces the same instance.
package journey

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrUnknownScope is returned for a scope with no definition.
	ErrUnknownScope = errors.New("journey: unknown scope")

	// ErrCorruptSnapshot is returned when a snapshot cannot be restored as-is.
	// Restore never falls back to the initial state.
	ErrCorruptSnapshot = errors.New("journey: corrupt snapshot")
)

type (
	StateID  string
	EventTag string
)

// Context is the data a journey accumulates between steps.
type Context map[string]string

// Clone returns a non-nil copy of c.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	maps.Copy(out, c)
	return out
}

// Event is what a step submits. Data is only visible to actions.
type Event struct {
	Tag  EventTag
	Data map[string]string
}

// Action transforms the context. It receives a private copy and must not
// perform I/O or read clocks or randomness.
type Action func(ctx Context, ev Event) Context

// Transition moves to Target, runs Assign, or both. An empty Target keeps
// the current state.
type Transition struct {
	Target StateID
	Assign Action
}

// Definition is one scope's state machine. A state with no transitions is
// terminal.
type Definition struct {
	Scope   string
	Initial StateID
	States  map[StateID]map[EventTag]Transition
}

// Instance is a journey in progress. Treat it as a value: Send returns a new
// instance and leaves its argument untouched.
type Instance struct {
	Scope   string
	State   StateID
	Context Context
}

// Machine is the static capability table of every known journey.
type Machine struct {
	defs map[string]Definition
}

// NewMachine validates defs and freezes them.
func NewMachine(defs ...Definition) (*Machine, error) {
	m := &Machine{defs: make(map[string]Definition, len(defs))}

	for _, def := range defs {
		if def.Scope == "" {
			return nil, errors.New("journey: definition without scope")
		}
		if _, dup := m.defs[def.Scope]; dup {
			return nil, fmt.Errorf("journey: duplicate definition for scope %q", def.Scope)
		}
		if _, ok := def.States[def.Initial]; !ok {
			return nil, fmt.Errorf("journey: %s: initial state %q not declared", def.Scope, def.Initial)
		}

		frozen := Definition{
			Scope:   def.Scope,
			Initial: def.Initial,
			States:  make(map[StateID]map[EventTag]Transition, len(def.States)),
		}
		for state, events := range def.States {
			for tag, tr := range events {
				if tr.Target == "" && tr.Assign == nil {
					return nil, fmt.Errorf("journey: %s: %s/%s does nothing", def.Scope, state, tag)
				}
				if _, ok := def.States[tr.Target]; tr.Target != "" && !ok {
					return nil, fmt.Errorf("journey: %s: %s/%s targets undeclared state %q", def.Scope, state, tag, tr.Target)
				}
			}
			frozen.States[state] = maps.Clone(events)
		}

		m.defs[def.Scope] = frozen
	}

	return m, nil
}

// MustNewMachine is NewMachine for package-level tables.
func MustNewMachine(defs ...Definition) *Machine {
	m, err := NewMachine(defs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Scopes lists the known scopes in sorted order.
func (m *Machine) Scopes() []string {
	return slices.Sorted(maps.Keys(m.defs))
}

// Has reports whether scope has a definition.
func (m *Machine) Has(scope string) bool {
	_, ok := m.defs[scope]
	return ok
}

// Create starts a journey at the scope's initial state with an empty context.
func (m *Machine) Create(scope string) (Instance, error) {
	def, ok := m.defs[scope]
	if !ok {
		return Instance{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	return Instance{Scope: scope, State: def.Initial, Context: Context{}}, nil
}

// Send applies ev. When the current state has no transition for ev.Tag the
// instance comes back unchanged and applied is false; stale or duplicated
// submissions are expected and are not errors.
func (m *Machine) Send(inst Instance, ev Event) (next Instance, applied bool) {
	def, ok := m.defs[inst.Scope]
	if !ok {
		return inst, false
	}
	tr, ok := def.States[inst.State][ev.Tag]
	if !ok {
		return inst, false
	}

	next = Instance{Scope: inst.Scope, State: inst.State, Context: inst.Context.Clone()}
	if tr.Assign != nil {
		next.Context = tr.Assign(next.Context, ev)
		if next.Context == nil {
			next.Context = Context{}
		}
	}
	if tr.Target != "" {
		next.State = tr.Target
	}
	return next, true
}

// IsTerminal reports whether inst is in a state with no outgoing transitions.
func (m *Machine) IsTerminal(inst Instance) bool {
	def, ok := m.defs[inst.Scope]
	if !ok {
		return false
	}
	events, ok := def.States[inst.State]
	return ok && len(events) == 0
}

// Accepts lists the event tags the current state responds to, sorted.
func (m *Machine) Accepts(inst Instance) []EventTag {
	def, ok := m.defs[inst.Scope]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(def.States[inst.State]))
}

type snapshot struct {
	Scope   string  `json:"scope"`
	State   StateID `json:"state"`
	Context Context `json:"context"`
}

// Snapshot encodes inst. The encoding is deterministic (context keys sorted)
// and Restore is its exact inverse.
func (m *Machine) Snapshot(inst Instance) ([]byte, error) {
	if !m.Has(inst.Scope) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, inst.Scope)
	}
	ctx := inst.Context
	if ctx == nil {
		ctx = Context{}
	}
	return json.Marshal(snapshot{Scope: inst.Scope, State: inst.State, Context: ctx})
}

// Restore decodes a snapshot for scope. It fails with ErrCorruptSnapshot when
// the data does not decode, belongs to another scope, or names a state the
// definition does not declare.
func (m *Machine) Restore(scope string, data []byte) (Instance, error) {
	def, ok := m.defs[scope]
	if !ok {
		return Instance{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	var snap snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return Instance{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.Scope != scope {
		return Instance{}, fmt.Errorf("%w: snapshot scope %q, want %q", ErrCorruptSnapshot, snap.Scope, scope)
	}
	if _, ok := def.States[snap.State]; !ok {
		return Instance{}, fmt.Errorf("%w: state %q not in %s", ErrCorruptSnapshot, snap.State, scope)
	}
	if snap.Context == nil {
		snap.Context = Context{}
	}

	return Instance{Scope: snap.Scope, State: snap.State, Context: snap.Context}, nil
}
